package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"snowclone/internal/service/discovery"
)

func newDiscoverCmd(app *app) *cobra.Command {
	var (
		database string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Map the schemas and tables of a source database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := app.loadProject()
			if err != nil {
				return err
			}
			if database == "" {
				database = project.Snowflake.Database
			}
			if database == "" {
				return fmt.Errorf("no database given: pass --database or set snowflake.database in %s", app.configPath)
			}

			ctx := cmd.Context()
			exec, closeSession, err := app.session(ctx, project)
			if err != nil {
				return err
			}
			defer func() { _ = closeSession() }()

			svc := discovery.NewService(exec, app.logger)
			structure, err := svc.DiscoverSource(ctx, database)
			if err != nil {
				return err
			}
			return emitResult(output, structure)
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Source database to discover (default: snowflake.database)")
	cmd.Flags().StringVar(&output, "output", "", "Write the discovery result to a file instead of stdout")

	return cmd
}
