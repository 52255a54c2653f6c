// Package audit implements read-only verification: role and grant snapshots,
// clone lineage listing, and clone validation. Nothing here mutates warehouse
// state.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"snowclone/internal/domain"
	"snowclone/internal/warehouse"
)

// Auditor runs verification queries through an injected statement executor.
type Auditor struct {
	exec domain.StatementExecutor
	log  *slog.Logger
	now  func() time.Time
}

// NewAuditor creates an auditor.
func NewAuditor(exec domain.StatementExecutor, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{exec: exec, log: logger, now: time.Now}
}

// Snapshot captures every role visible to the session: metadata, grants per
// role, and how many users hold any of them. declaredRoles are the
// configured role names; one missing from the warehouse is logged but never
// narrows the snapshot. Grant listings that cannot be read are skipped with
// a warning; only a failure to list roles at all sets the snapshot's Error.
func (a *Auditor) Snapshot(ctx context.Context, declaredRoles []string, targetDB string) *domain.AuditSnapshot {
	snap := &domain.AuditSnapshot{
		Timestamp:      a.now().UTC(),
		TargetDatabase: targetDB,
		Roles:          make(map[string]domain.RoleInfo),
		Grants:         make(map[string][]domain.RoleGrant),
	}

	rows, err := a.exec.Execute(ctx, warehouse.ShowRoles())
	if err != nil {
		a.log.Error("role listing failed", "error", err)
		snap.Error = fmt.Sprintf("list roles: %v", err)
		return snap
	}

	for _, row := range rows {
		snap.Roles[row["name"]] = domain.RoleInfo{
			CreatedOn: row["created_on"],
			Owner:     row["owner"],
			Comment:   row["comment"],
		}
	}
	snap.Summary.TotalRoles = len(snap.Roles)

	for _, name := range declaredRoles {
		if _, ok := snap.Roles[name]; !ok {
			a.log.Warn("declared role not present in warehouse", "role", name)
		}
	}

	holders := make(map[string]bool)
	for _, row := range rows {
		name := row["name"]
		if grants, ok := a.roleGrants(ctx, name); ok {
			snap.Grants[name] = grants
			if len(grants) > 0 {
				snap.Summary.RolesWithGrants++
			}
		}
		for _, user := range a.roleHolders(ctx, name) {
			holders[user] = true
		}
	}
	snap.Summary.UsersWithRoles = len(holders)

	return snap
}

// roleGrants lists the privileges held by one role. The second return is
// false when the listing failed.
func (a *Auditor) roleGrants(ctx context.Context, role string) ([]domain.RoleGrant, bool) {
	stmt, err := warehouse.ShowGrantsToRole(role)
	if err == nil {
		var rows []domain.Row
		if rows, err = a.exec.Execute(ctx, stmt); err == nil {
			grants := make([]domain.RoleGrant, 0, len(rows))
			for _, row := range rows {
				grants = append(grants, domain.RoleGrant{
					Privilege:   row["privilege"],
					GrantedOn:   row["granted_on"],
					Name:        row["name"],
					GrantedTo:   row["granted_to"],
					GranteeName: row["grantee_name"],
				})
			}
			return grants, true
		}
	}
	a.log.Warn("grant listing failed", "role", role, "error", err)
	return nil, false
}

// roleHolders returns the distinct users a role has been granted to, empty on
// any failure.
func (a *Auditor) roleHolders(ctx context.Context, role string) []string {
	stmt, err := warehouse.ShowGrantsOfRole(role)
	if err != nil {
		return nil
	}
	rows, err := a.exec.Execute(ctx, stmt)
	if err != nil {
		a.log.Warn("role holder listing failed", "role", role, "error", err)
		return nil
	}
	var users []string
	for _, row := range rows {
		if strings.EqualFold(row["granted_to"], "USER") {
			users = append(users, row["grantee_name"])
		}
	}
	return users
}
