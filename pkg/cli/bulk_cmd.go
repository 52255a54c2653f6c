package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"snowclone/internal/config"
	"snowclone/internal/domain"
	"snowclone/internal/service/clone"
)

func newBulkCmd(app *app) *cobra.Command {
	var (
		template      string
		operationFile string
		output        string
	)

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Run a declarative batch of clone operations",
		Long: "Runs every clone operation in a named template or a standalone operation\n" +
			"file: databases first, then schemas, then tables. Failed operations are\n" +
			"recorded and the batch continues.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (template == "") == (operationFile == "") {
				return fmt.Errorf("exactly one of --template or --operation-file is required")
			}

			project, err := app.loadProject()
			if err != nil {
				return err
			}

			var set config.OperationSet
			if template != "" {
				named, ok := project.Template(template)
				if !ok {
					return fmt.Errorf("template %q not found in %s", template, app.configPath)
				}
				set = named
			} else {
				loaded, err := config.LoadOperationSet(operationFile)
				if err != nil {
					return err
				}
				set = *loaded
			}

			cloneSet := set.CloneSet()
			if cloneSet.Size() == 0 {
				return fmt.Errorf("operation set is empty")
			}

			// Database-level AT_TIME requests without their own timestamp
			// inherit the project default.
			for i, req := range cloneSet.Databases {
				if req.Mode == domain.ModeAtTime && req.AtTime == "" {
					cloneSet.Databases[i].AtTime = project.Cloning.AtTime
				}
			}

			ctx := cmd.Context()
			exec, closeSession, err := app.session(ctx, project)
			if err != nil {
				return err
			}
			defer func() { _ = closeSession() }()

			engine := clone.NewEngine(exec, app.logger)
			report := engine.BulkClone(ctx, cloneSet)
			app.recordRun(ctx, domain.NewBulkRunRecord(report))

			if err := emitResult(output, report); err != nil {
				return err
			}
			if report.Summary.Failed > 0 {
				return fmt.Errorf("%d of %d operations failed", report.Summary.Failed, report.Summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Named operation template from the project file")
	cmd.Flags().StringVar(&operationFile, "operation-file", "", "Standalone YAML operation file")
	cmd.Flags().StringVar(&output, "output", "", "Write the run report to a file instead of stdout")

	return cmd
}
