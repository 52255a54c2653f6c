package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"snowclone/internal/domain"
	"snowclone/internal/service/clone"
	"snowclone/internal/service/rbac"
)

func newCloneCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Clone a database, schema, or table",
	}
	cmd.AddCommand(newCloneDatabaseCmd(app))
	cmd.AddCommand(newCloneSchemaCmd(app))
	cmd.AddCommand(newCloneTableCmd(app))
	return cmd
}

func newCloneDatabaseCmd(app *app) *cobra.Command {
	var (
		source    string
		target    string
		mode      string
		atTime    string
		applyRbac bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "database",
		Short: "Clone an entire database",
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

			req := domain.CloneRequest{
				Level:  domain.LevelDatabase,
				Source: domain.ParseObjectPath(source),
				Target: domain.ParseObjectPath(target),
				Mode:   domain.CloneMode(mode),
				AtTime: atTime,
			}
			if req.Mode == domain.ModeAtTime && req.AtTime == "" {
				req.AtTime = project.Cloning.AtTime
			}

			engine := clone.NewEngine(exec, app.logger)
			cloneErr := engine.Clone(ctx, req)

			result := map[string]interface{}{
				"level":     "database",
				"source":    source,
				"target":    target,
				"succeeded": cloneErr == nil,
			}
			if cloneErr != nil {
				result["error"] = cloneErr.Error()
			}

			if cloneErr == nil && applyRbac {
				orch := rbac.NewOrchestrator(exec, app.logger)
				setup, rbacErr := orch.Setup(ctx, planFromProject(project, nil), target)
				if rbacErr != nil {
					return rbacErr
				}
				app.recordRun(ctx, domain.NewRbacRunRecord(setup, time.Now().UTC()))
				result["rbac"] = setup
			}

			if err := emitResult(output, result); err != nil {
				return err
			}
			if cloneErr != nil {
				return fmt.Errorf("clone database %s to %s failed", source, target)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Source database name")
	cmd.Flags().StringVar(&target, "target", "", "Target database name")
	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeZeroCopy), "Clone mode (ZERO_COPY, AT_TIME)")
	cmd.Flags().StringVar(&atTime, "at-time", "", "Timestamp for AT_TIME clones (falls back to cloning.at_time)")
	cmd.Flags().BoolVar(&applyRbac, "apply-rbac", false, "Apply the RBAC configuration after a successful clone")
	cmd.Flags().StringVar(&output, "output", "", "Write the result to a file instead of stdout")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newCloneSchemaCmd(app *app) *cobra.Command {
	var (
		sourceDB     string
		sourceSchema string
		targetDB     string
		targetSchema string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Clone one schema into a target database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := domain.CloneRequest{
				Level:  domain.LevelSchema,
				Source: domain.ObjectPath{sourceDB, sourceSchema},
				Target: domain.ObjectPath{targetDB, targetSchema},
			}
			return app.runSingleClone(cmd, req, output)
		},
	}

	cmd.Flags().StringVar(&sourceDB, "source-db", "", "Source database name")
	cmd.Flags().StringVar(&sourceSchema, "source-schema", "", "Source schema name")
	cmd.Flags().StringVar(&targetDB, "target-db", "", "Target database name")
	cmd.Flags().StringVar(&targetSchema, "target-schema", "", "Target schema name (default: same as source)")
	cmd.Flags().StringVar(&output, "output", "", "Write the result to a file instead of stdout")
	_ = cmd.MarkFlagRequired("source-db")
	_ = cmd.MarkFlagRequired("source-schema")
	_ = cmd.MarkFlagRequired("target-db")

	return cmd
}

func newCloneTableCmd(app *app) *cobra.Command {
	var (
		sourceDB     string
		sourceSchema string
		sourceTable  string
		targetDB     string
		targetSchema string
		targetTable  string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Clone one table into a target database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := domain.CloneRequest{
				Level:  domain.LevelTable,
				Source: domain.ObjectPath{sourceDB, sourceSchema, sourceTable},
				Target: domain.ObjectPath{targetDB, targetSchema, targetTable},
			}
			return app.runSingleClone(cmd, req, output)
		},
	}

	cmd.Flags().StringVar(&sourceDB, "source-db", "", "Source database name")
	cmd.Flags().StringVar(&sourceSchema, "source-schema", "", "Source schema name")
	cmd.Flags().StringVar(&sourceTable, "source-table", "", "Source table name")
	cmd.Flags().StringVar(&targetDB, "target-db", "", "Target database name")
	cmd.Flags().StringVar(&targetSchema, "target-schema", "", "Target schema name (default: same as source)")
	cmd.Flags().StringVar(&targetTable, "target-table", "", "Target table name (default: same as source)")
	cmd.Flags().StringVar(&output, "output", "", "Write the result to a file instead of stdout")
	_ = cmd.MarkFlagRequired("source-db")
	_ = cmd.MarkFlagRequired("source-schema")
	_ = cmd.MarkFlagRequired("source-table")
	_ = cmd.MarkFlagRequired("target-db")

	return cmd
}

// runSingleClone drives one schema or table clone end to end.
func (a *app) runSingleClone(cmd *cobra.Command, req domain.CloneRequest, output string) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	exec, closeSession, err := a.session(ctx, project)
	if err != nil {
		return err
	}
	defer func() { _ = closeSession() }()

	engine := clone.NewEngine(exec, a.logger)
	cloneErr := engine.Clone(ctx, req)

	target := req.Target.String()
	if resolved, rerr := domain.ResolveTarget(req.Level, req.Source, req.Target); rerr == nil {
		target = resolved.String()
	}
	result := map[string]interface{}{
		"level":     string(req.Level),
		"source":    req.Source.String(),
		"target":    target,
		"succeeded": cloneErr == nil,
	}
	if cloneErr != nil {
		result["error"] = cloneErr.Error()
	}

	if err := emitResult(output, result); err != nil {
		return err
	}
	if cloneErr != nil {
		return fmt.Errorf("clone %s %s failed", req.Level, req.Source.String())
	}
	return nil
}
