// Package rbac implements role provisioning: expanding declared roles into
// concrete grant instructions and running the phased setup that creates
// roles, applies privileges, builds the hierarchy, and assigns users.
package rbac

import (
	"strings"

	"snowclone/internal/domain"
)

// TargetPlaceholder is the token in object patterns replaced by the target
// database name at resolution time.
const TargetPlaceholder = "${TARGET_DATABASE}"

// SubstituteTarget replaces the target-database placeholder in an object
// pattern.
func SubstituteTarget(pattern, targetDB string) string {
	return strings.ReplaceAll(pattern, TargetPlaceholder, targetDB)
}

// ResolveGrants expands a role's privilege map into concrete grant requests,
// one per (privilege, pattern) pair, in canonical object-type order. Database,
// schema, table, and view patterns get the target database substituted;
// warehouse names are account-global and pass through untouched.
func ResolveGrants(spec domain.RoleSpec, targetDB string) []domain.GrantRequest {
	var out []domain.GrantRequest
	for _, objType := range domain.ObjectTypeOrder {
		for _, priv := range spec.Grants[objType] {
			for _, pattern := range priv.ObjectPatterns {
				object := pattern
				if objType != domain.TypeWarehouse {
					object = SubstituteTarget(pattern, targetDB)
				}
				out = append(out, domain.GrantRequest{
					Role:       spec.Name,
					ObjectType: objType,
					Privilege:  priv.Privilege,
					Object:     object,
				})
			}
		}
	}
	return out
}
