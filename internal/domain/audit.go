package domain

import "time"

// RoleInfo is the audit view of one role from the warehouse role listing.
type RoleInfo struct {
	CreatedOn string `json:"created_on"`
	Owner     string `json:"owner"`
	Comment   string `json:"comment"`
}

// RoleGrant is one privilege held by a role, from the warehouse grant listing.
type RoleGrant struct {
	Privilege   string `json:"privilege"`
	GrantedOn   string `json:"granted_on"`
	Name        string `json:"name"`
	GrantedTo   string `json:"granted_to"`
	GranteeName string `json:"grantee_name"`
}

// AuditSummary aggregates counts over one audit snapshot.
type AuditSummary struct {
	TotalRoles      int `json:"total_roles"`
	RolesWithGrants int `json:"roles_with_grants"`
	UsersWithRoles  int `json:"users_with_roles"`
}

// AuditSnapshot is a read-only, point-in-time view of role and grant state.
// Roles whose grant listing could not be read appear in Roles but not in
// Grants; they still count toward TotalRoles.
type AuditSnapshot struct {
	Timestamp      time.Time              `json:"timestamp"`
	TargetDatabase string                 `json:"target_database"`
	Roles          map[string]RoleInfo    `json:"roles"`
	Grants         map[string][]RoleGrant `json:"grants"`
	Summary        AuditSummary           `json:"summary"`
	Error          string                 `json:"error,omitempty"`
}
