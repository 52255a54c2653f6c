// Package cli implements the snowclone command tree: cloning, bulk runs,
// role provisioning, auditing, validation, and run history.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd(newApp())
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]interface{}{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(app *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "snowclone",
		Short:         "Snowflake zero-copy cloning and RBAC provisioning",
		Long:          "Config-driven zero-copy cloning of databases, schemas, and tables,\nwith role-based access provisioning on the cloned objects.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Flag > env > default, matching the server's configuration.
			if !cmd.Flags().Changed("config") {
				if v := os.Getenv("PROJECT_FILE"); v != "" {
					app.configPath = v
				}
			}
			if err := validateOutputFormat(getOutputFormat(cmd)); err != nil {
				return err
			}
			app.setupLogger(cmd)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "snowclone.yaml", "Project configuration file")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newDiscoverCmd(app))
	rootCmd.AddCommand(newCloneCmd(app))
	rootCmd.AddCommand(newBulkCmd(app))
	rootCmd.AddCommand(newRbacCmd(app))
	rootCmd.AddCommand(newValidateCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
	rootCmd.AddCommand(newCreateConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{
					"version": version,
					"commit":  commit,
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "snowclone version %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
