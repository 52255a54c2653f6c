package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"snowclone/internal/config"
	"snowclone/internal/domain"
	"snowclone/internal/service/audit"
	"snowclone/internal/service/rbac"
)

func newRbacCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rbac",
		Short: "Provision and audit role-based access",
	}
	cmd.AddCommand(newRbacSetupCmd(app))
	cmd.AddCommand(newRbacAuditCmd(app))
	return cmd
}

// planFromProject converts the project's RBAC declaration into an
// orchestration plan. categories limits the privilege phase; nil means both.
func planFromProject(project *config.Project, categories []domain.RoleCategory) rbac.Plan {
	return rbac.Plan{
		ServiceRoles:        project.RBAC.RoleSpecs(domain.CategoryService),
		SystemFullRoles:     project.RBAC.RoleSpecs(domain.CategorySystemFull),
		Hierarchy:           project.RBAC.HierarchyGrants(),
		Users:               project.RBAC.Assignments(),
		PrivilegeCategories: categories,
	}
}

func newRbacSetupCmd(app *app) *cobra.Command {
	var (
		database  string
		roleTypes []string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Run the full role provisioning sequence against a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var categories []domain.RoleCategory
			for _, rt := range roleTypes {
				switch domain.RoleCategory(rt) {
				case domain.CategoryService, domain.CategorySystemFull:
					categories = append(categories, domain.RoleCategory(rt))
				default:
					return fmt.Errorf("unknown role type %q: use %s or %s",
						rt, domain.CategoryService, domain.CategorySystemFull)
				}
			}

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

			orch := rbac.NewOrchestrator(exec, app.logger)
			result, err := orch.Setup(ctx, planFromProject(project, categories), database)
			if err != nil {
				return err
			}
			app.recordRun(ctx, domain.NewRbacRunRecord(result, time.Now().UTC()))

			if err := emitResult(output, result); err != nil {
				return err
			}
			if !result.OverallSuccess {
				return fmt.Errorf("provisioning finished with failed phases: %v", result.FailedPhases)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Target database for provisioning")
	cmd.Flags().StringSliceVar(&roleTypes, "role-types", nil,
		"Role categories to apply privileges for (service_roles, system_full_roles; default both)")
	cmd.Flags().StringVar(&output, "output", "", "Write the result to a file instead of stdout")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func newRbacAuditCmd(app *app) *cobra.Command {
	var (
		database string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Snapshot every visible role and its grants",
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
			snap := auditor.Snapshot(ctx, declaredRoleNames(project), database)
			return emitResult(output, snap)
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Database whose role state to audit")
	cmd.Flags().StringVar(&output, "output", "", "Write the snapshot to a file instead of stdout")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

// declaredRoleNames lists every configured role name across both categories.
func declaredRoleNames(project *config.Project) []string {
	var names []string
	for _, category := range []domain.RoleCategory{domain.CategoryService, domain.CategorySystemFull} {
		for _, role := range project.RBAC.Roles(category) {
			names = append(names, role.Name)
		}
	}
	return names
}
