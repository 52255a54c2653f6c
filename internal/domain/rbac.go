package domain

import "time"

// RoleCategory distinguishes the two configured role groups.
type RoleCategory string

const (
	// CategoryService covers scoped, read-oriented or application roles.
	CategoryService RoleCategory = "service_roles"
	// CategorySystemFull covers broad administrative roles.
	CategorySystemFull RoleCategory = "system_full_roles"
)

// ObjectType names the kind of securable a privilege applies to.
type ObjectType string

const (
	TypeDatabase  ObjectType = "DATABASE"
	TypeSchema    ObjectType = "SCHEMA"
	TypeTable     ObjectType = "TABLE"
	TypeView      ObjectType = "VIEW"
	TypeWarehouse ObjectType = "WAREHOUSE"
)

// ObjectTypeOrder fixes the iteration order over a RoleSpec's grant groups so
// expansion is deterministic regardless of configuration map ordering.
var ObjectTypeOrder = []ObjectType{TypeDatabase, TypeSchema, TypeTable, TypeView, TypeWarehouse}

// PrivilegeSpec declares one privilege over a list of object patterns.
// Patterns may contain the ${TARGET_DATABASE} placeholder; warehouse patterns
// never do, since warehouses are not database-scoped.
type PrivilegeSpec struct {
	Privilege      string
	ObjectPatterns []string
}

// RoleSpec is the declarative description of one role. Names are unique
// across both role categories; duplicates are rejected at configuration load.
type RoleSpec struct {
	Name        string
	Description string
	Grants      map[ObjectType][]PrivilegeSpec
}

// GrantRequest is one concrete grant instruction produced by expanding a
// RoleSpec against a target database: one request per (privilege, pattern).
type GrantRequest struct {
	Role       string
	ObjectType ObjectType
	Privilege  string
	Object     string
}

// GrantOutcome records the result of issuing one GrantRequest. Object holds
// the pattern after placeholder substitution.
type GrantOutcome struct {
	Role       string     `json:"role"`
	ObjectType ObjectType `json:"object_type"`
	Privilege  string     `json:"privilege"`
	Object     string     `json:"object"`
	Succeeded  bool       `json:"succeeded"`
	Error      string     `json:"error,omitempty"`
}

// RolePrivilegeResult aggregates the grant outcomes of one role. Success is
// the conjunction of all outcomes: one failed grant among many flips it while
// the rest stay recorded as applied.
type RolePrivilegeResult struct {
	Role    string         `json:"role"`
	Success bool           `json:"success"`
	Applied []GrantOutcome `json:"applied"`
	Failed  []GrantOutcome `json:"failed"`
	Errors  []string       `json:"errors,omitempty"`
}

// PrivilegeSummary counts per-role results of one privilege phase.
type PrivilegeSummary struct {
	TotalRoles      int `json:"total_roles"`
	SuccessfulRoles int `json:"successful_roles"`
	FailedRoles     int `json:"failed_roles"`
}

// PrivilegePhaseResult is the outcome of applying privileges across roles.
type PrivilegePhaseResult struct {
	Timestamp      time.Time                      `json:"timestamp"`
	TargetDatabase string                         `json:"target_database"`
	Roles          map[string]RolePrivilegeResult `json:"roles"`
	Summary        PrivilegeSummary               `json:"summary"`
}

// HierarchyGrant is one parent/child role edge: the child role is granted to
// the parent, which then inherits the child's privileges.
type HierarchyGrant struct {
	Parent string
	Child  string
}

// Key renders the edge in the "parent -> child" form used to track results.
func (h HierarchyGrant) Key() string { return h.Parent + " -> " + h.Child }

// UserAssignment maps one user to the roles they should hold.
type UserAssignment struct {
	Username string
	Roles    []string
}

// UserAssignmentResult records which of a user's configured roles were
// granted. Success requires every role grant to have succeeded.
type UserAssignmentResult struct {
	Username      string   `json:"username"`
	Success       bool     `json:"success"`
	AssignedRoles []string `json:"assigned_roles"`
	FailedRoles   []string `json:"failed_roles"`
	Errors        []string `json:"errors,omitempty"`
}

// AssignmentSummary counts individual role-to-user grants across all users.
type AssignmentSummary struct {
	TotalAssignments      int `json:"total_assignments"`
	SuccessfulAssignments int `json:"successful_assignments"`
	FailedAssignments     int `json:"failed_assignments"`
}

// UserPhaseResult is the outcome of the user-assignment phase.
type UserPhaseResult struct {
	Timestamp time.Time                       `json:"timestamp"`
	Users     map[string]UserAssignmentResult `json:"users"`
	Summary   AssignmentSummary               `json:"summary"`
}

// Phase names as recorded in RbacSetupResult.FailedPhases.
const (
	PhaseServiceRoles    = "service_roles"
	PhaseSystemFullRoles = "system_full_roles"
	PhasePrivileges      = "privileges"
	PhaseHierarchy       = "hierarchy"
	PhaseUserAssignments = "user_assignments"
)

// RbacPhases holds the per-phase results of one RBAC setup run, in phase
// order. UserAssignments is nil when no assignments are configured.
type RbacPhases struct {
	ServiceRoles    map[string]bool       `json:"service_roles"`
	SystemFullRoles map[string]bool       `json:"system_full_roles"`
	Privileges      *PrivilegePhaseResult `json:"privileges"`
	Hierarchy       map[string]bool       `json:"hierarchy"`
	UserAssignments *UserPhaseResult      `json:"user_assignments,omitempty"`
}

// RbacSetupResult is the full record of one RBAC setup run. OverallSuccess is
// false iff any phase's failure predicate fired or an unexpected failure was
// caught; partial phase results survive either way.
type RbacSetupResult struct {
	Timestamp      time.Time  `json:"timestamp"`
	TargetDatabase string     `json:"target_database"`
	Phases         RbacPhases `json:"phases"`
	OverallSuccess bool       `json:"overall_success"`
	FailedPhases   []string   `json:"failed_phases,omitempty"`
	Error          string     `json:"error,omitempty"`
}
