package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"snowclone/internal/domain"
	"snowclone/internal/service/audit"
)

func newHistoryCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past runs and recorded clone lineage",
	}
	cmd.AddCommand(newHistoryRunsCmd(app))
	cmd.AddCommand(newHistoryClonesCmd(app))
	return cmd
}

func newHistoryRunsCmd(app *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or show one run's full report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := app.openHistory()
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			ctx := cmd.Context()

			if len(args) == 1 {
				rec, err := store.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				resp := map[string]interface{}{"run": rec}
				if len(rec.Payload) > 0 {
					resp["report"] = json.RawMessage(rec.Payload)
				}
				return printJSON(os.Stdout, resp)
			}

			runs, err := store.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]interface{}{"runs": runs})
			}
			return printRunsTable(runs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func printRunsTable(runs []domain.RunRecord) error {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tKIND\tSTARTED\tSTATUS\tSUCCEEDED")
	for _, r := range runs {
		status := "success"
		if !r.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\n",
			r.ID, r.Kind, r.StartedAt.Format(time.RFC3339), status, r.Successful, r.Total)
	}
	return w.Flush()
}

func newHistoryClonesCmd(app *app) *cobra.Command {
	var (
		objectName string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "clones",
		Short: "List the warehouse's recorded clone lineage",
		Args:  cobra.NoArgs,
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
			records := auditor.CloneHistory(ctx, objectName)

			if output == "" && getOutputFormat(cmd) == "table" {
				return printClonesTable(records)
			}
			return emitResult(output, map[string]interface{}{"clones": records})
		},
	}

	cmd.Flags().StringVar(&objectName, "object-name", "", "Filter lineage to one object name")
	cmd.Flags().StringVar(&output, "output", "", "Write the lineage to a file instead of stdout")
	return cmd
}

func printClonesTable(records []domain.CloneRecord) error {
	if len(records) == 0 {
		fmt.Println("No clone lineage recorded.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tCLONE\tTYPE\tCREATED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.SourceObject, r.CloneObject, r.CloneType, r.CreatedOn)
	}
	return w.Flush()
}
