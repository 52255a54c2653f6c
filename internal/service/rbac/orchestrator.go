package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"snowclone/internal/domain"
	"snowclone/internal/warehouse"
)

// Plan is the input to Setup: declared roles, hierarchy edges, and user
// assignments, already converted from configuration.
type Plan struct {
	ServiceRoles    []domain.RoleSpec
	SystemFullRoles []domain.RoleSpec
	Hierarchy       []domain.HierarchyGrant
	Users           []domain.UserAssignment

	// PrivilegeCategories limits the privilege phase to the listed role
	// categories. Empty means both. Role creation always covers both
	// categories regardless.
	PrivilegeCategories []domain.RoleCategory
}

// privilegeRoles selects the roles whose privileges are applied, honoring
// the category filter.
func (p Plan) privilegeRoles() []domain.RoleSpec {
	categories := p.PrivilegeCategories
	if len(categories) == 0 {
		categories = []domain.RoleCategory{domain.CategoryService, domain.CategorySystemFull}
	}
	var roles []domain.RoleSpec
	for _, c := range categories {
		switch c {
		case domain.CategoryService:
			roles = append(roles, p.ServiceRoles...)
		case domain.CategorySystemFull:
			roles = append(roles, p.SystemFullRoles...)
		}
	}
	return roles
}

// Orchestrator runs phased role provisioning through an injected statement
// executor.
type Orchestrator struct {
	exec domain.StatementExecutor
	log  *slog.Logger
	now  func() time.Time
}

// NewOrchestrator creates a provisioning orchestrator.
func NewOrchestrator(exec domain.StatementExecutor, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{exec: exec, log: logger, now: time.Now}
}

// Setup runs the provisioning phases in order: service roles, system-full
// roles, privileges, hierarchy, and user assignments (skipped when none are
// configured). Phases are best-effort: a failure inside one is recorded and
// the remaining phases still run. The returned error covers pre-flight
// problems only; execution failures live in the result.
func (o *Orchestrator) Setup(ctx context.Context, plan Plan, targetDB string) (result *domain.RbacSetupResult, err error) {
	if targetDB == "" {
		return nil, domain.ErrConfig("target database is required for role provisioning")
	}

	result = &domain.RbacSetupResult{
		Timestamp:      o.now().UTC(),
		TargetDatabase: targetDB,
		FailedPhases:   []string{},
	}

	// Keep whatever phase results were produced if something blows up
	// mid-run; the caller still gets a report with Error set.
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("provisioning run panicked", "error", fmt.Sprint(r))
			result.Error = fmt.Sprintf("unexpected failure: %v", r)
			result.OverallSuccess = false
		}
	}()

	o.log.Info("role provisioning started", "target_database", targetDB,
		"service_roles", len(plan.ServiceRoles), "system_full_roles", len(plan.SystemFullRoles))

	result.Phases.ServiceRoles = o.createRoles(ctx, plan.ServiceRoles)
	result.Phases.SystemFullRoles = o.createRoles(ctx, plan.SystemFullRoles)

	result.Phases.Privileges = o.applyPrivileges(ctx, plan.privilegeRoles(), targetDB)

	result.Phases.Hierarchy = o.grantHierarchy(ctx, plan.Hierarchy)

	if len(plan.Users) > 0 {
		result.Phases.UserAssignments = o.assignUsers(ctx, plan.Users)
	}

	result.FailedPhases = failedPhases(result.Phases)
	result.OverallSuccess = len(result.FailedPhases) == 0

	o.log.Info("role provisioning finished",
		"target_database", targetDB,
		"overall_success", result.OverallSuccess,
		"failed_phases", result.FailedPhases)
	return result, nil
}

// createRoles issues one idempotent create per role and reports success by
// role name.
func (o *Orchestrator) createRoles(ctx context.Context, specs []domain.RoleSpec) map[string]bool {
	results := make(map[string]bool, len(specs))
	for _, spec := range specs {
		stmt, err := warehouse.CreateRoleIfAbsent(spec.Name, spec.Description)
		if err == nil {
			_, err = o.exec.Execute(ctx, stmt)
		}
		if err != nil {
			o.log.Error("role creation failed", "role", spec.Name, "error", err)
			results[spec.Name] = false
			continue
		}
		o.log.Info("role ensured", "role", spec.Name)
		results[spec.Name] = true
	}
	return results
}

// applyPrivileges expands and issues every role's grants against the target
// database, recording applied and failed grants per role.
func (o *Orchestrator) applyPrivileges(ctx context.Context, specs []domain.RoleSpec, targetDB string) *domain.PrivilegePhaseResult {
	phase := &domain.PrivilegePhaseResult{
		Timestamp:      o.now().UTC(),
		TargetDatabase: targetDB,
		Roles:          make(map[string]domain.RolePrivilegeResult, len(specs)),
	}

	for _, spec := range specs {
		roleResult := domain.RolePrivilegeResult{
			Role:    spec.Name,
			Success: true,
			Applied: []domain.GrantOutcome{},
			Failed:  []domain.GrantOutcome{},
		}

		for _, req := range ResolveGrants(spec, targetDB) {
			outcome := domain.GrantOutcome{
				Role:       req.Role,
				ObjectType: req.ObjectType,
				Privilege:  req.Privilege,
				Object:     req.Object,
			}
			stmt, err := warehouse.GrantPrivilege(req.Privilege, req.ObjectType, req.Object, req.Role)
			if err == nil {
				_, err = o.exec.Execute(ctx, stmt)
			}
			if err != nil {
				o.log.Error("grant failed", "role", req.Role, "privilege", req.Privilege,
					"object", req.Object, "error", err)
				outcome.Error = err.Error()
				roleResult.Failed = append(roleResult.Failed, outcome)
				roleResult.Errors = append(roleResult.Errors, err.Error())
				roleResult.Success = false
				continue
			}
			outcome.Succeeded = true
			roleResult.Applied = append(roleResult.Applied, outcome)
		}

		phase.Roles[spec.Name] = roleResult
		phase.Summary.TotalRoles++
		if roleResult.Success {
			phase.Summary.SuccessfulRoles++
		} else {
			phase.Summary.FailedRoles++
		}
	}
	return phase
}

// grantHierarchy issues one role-to-role grant per configured edge.
func (o *Orchestrator) grantHierarchy(ctx context.Context, grants []domain.HierarchyGrant) map[string]bool {
	results := make(map[string]bool, len(grants))
	for _, g := range grants {
		stmt, err := warehouse.GrantRoleToRole(g.Child, g.Parent)
		if err == nil {
			_, err = o.exec.Execute(ctx, stmt)
		}
		if err != nil {
			o.log.Error("hierarchy grant failed", "parent", g.Parent, "child", g.Child, "error", err)
			results[g.Key()] = false
			continue
		}
		o.log.Info("hierarchy grant applied", "parent", g.Parent, "child", g.Child)
		results[g.Key()] = true
	}
	return results
}

// assignUsers grants each user their configured roles, tracking every grant
// individually.
func (o *Orchestrator) assignUsers(ctx context.Context, users []domain.UserAssignment) *domain.UserPhaseResult {
	phase := &domain.UserPhaseResult{
		Timestamp: o.now().UTC(),
		Users:     make(map[string]domain.UserAssignmentResult, len(users)),
	}

	for _, u := range users {
		userResult := domain.UserAssignmentResult{
			Username:      u.Username,
			Success:       true,
			AssignedRoles: []string{},
			FailedRoles:   []string{},
		}
		for _, role := range u.Roles {
			phase.Summary.TotalAssignments++
			stmt, err := warehouse.GrantRoleToUser(role, u.Username)
			if err == nil {
				_, err = o.exec.Execute(ctx, stmt)
			}
			if err != nil {
				o.log.Error("user assignment failed", "user", u.Username, "role", role, "error", err)
				userResult.FailedRoles = append(userResult.FailedRoles, role)
				userResult.Errors = append(userResult.Errors, err.Error())
				userResult.Success = false
				phase.Summary.FailedAssignments++
				continue
			}
			userResult.AssignedRoles = append(userResult.AssignedRoles, role)
			phase.Summary.SuccessfulAssignments++
		}
		phase.Users[u.Username] = userResult
	}
	return phase
}

// failedPhases evaluates each phase's failure predicate and returns the
// failed phase names in phase order.
func failedPhases(p domain.RbacPhases) []string {
	failed := []string{}
	if anyFailed(p.ServiceRoles) {
		failed = append(failed, domain.PhaseServiceRoles)
	}
	if anyFailed(p.SystemFullRoles) {
		failed = append(failed, domain.PhaseSystemFullRoles)
	}
	if p.Privileges != nil && p.Privileges.Summary.FailedRoles > 0 {
		failed = append(failed, domain.PhasePrivileges)
	}
	if anyFailed(p.Hierarchy) {
		failed = append(failed, domain.PhaseHierarchy)
	}
	if p.UserAssignments != nil && p.UserAssignments.Summary.FailedAssignments > 0 {
		failed = append(failed, domain.PhaseUserAssignments)
	}
	return failed
}

func anyFailed(results map[string]bool) bool {
	for _, ok := range results {
		if !ok {
			return true
		}
	}
	return false
}
