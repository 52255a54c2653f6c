package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"snowclone/internal/domain"
	"snowclone/internal/service/audit"
)

func newValidateCmd(app *app) *cobra.Command {
	var (
		source string
		target string
		output string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Verify that a clone exists and is linked to its source",
		Long: "Checks that the source is reachable, the target exists, and the\n" +
			"warehouse records a clone relationship between them.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := app.loadProject()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			exec, closeSession, err := app.session(ctx, project)
			if err != nil {
				return err
			}
			defer func() { _ = closeSession() }()

			auditor := audit.NewAuditor(exec, app.logger)
			result := auditor.ValidateClone(ctx, source, target)

			if err := emitResult(output, result); err != nil {
				return err
			}
			if result.Status != domain.ValidationSuccess {
				return fmt.Errorf("validation of %s against %s failed", target, source)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source object name")
	cmd.Flags().StringVar(&target, "target", "", "Target (clone) object name")
	cmd.Flags().StringVar(&output, "output", "", "Write the result to a file instead of stdout")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}
