// Package warehouse implements the statement surface against the data
// warehouse: a database/sql session wrapper and the builders that turn typed
// operations into instruction text. Builders validate and quote identifiers
// before interpolation; malformed names fail with a ConfigError rather than
// reaching the warehouse.
package warehouse

import (
	"fmt"
	"regexp"
	"strings"

	"snowclone/internal/domain"
)

var (
	plainIdentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)
	patternRe    = regexp.MustCompile(`^[A-Za-z0-9_$.*]+$`)
	privilegeRe  = regexp.MustCompile(`^[A-Za-z][A-Za-z_ ]*$`)
)

// QuoteIdentifier returns an identifier in a form safe to interpolate into an
// instruction. Plain identifiers pass through unquoted, preserving the
// warehouse's case-insensitive resolution; anything else is double-quoted
// with embedded quotes doubled.
func QuoteIdentifier(id string) (string, error) {
	if id == "" {
		return "", domain.ErrConfig("empty identifier")
	}
	if strings.ContainsAny(id, "\x00\n\r") {
		return "", domain.ErrConfig("identifier %q contains control characters", id)
	}
	if plainIdentRe.MatchString(id) {
		return id, nil
	}
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`, nil
}

// Qualify renders an object path as a dot-joined sequence of safe identifiers.
func Qualify(path domain.ObjectPath) (string, error) {
	if len(path) == 0 {
		return "", domain.ErrConfig("empty object path")
	}
	parts := make([]string, len(path))
	for i, seg := range path {
		q, err := QuoteIdentifier(seg)
		if err != nil {
			return "", err
		}
		parts[i] = q
	}
	return strings.Join(parts, "."), nil
}

// quoteString renders a single-quoted string literal with embedded quotes
// doubled.
func quoteString(s string) (string, error) {
	if strings.ContainsAny(s, "\x00\n\r") {
		return "", domain.ErrConfig("string literal %q contains control characters", s)
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
}

// validatePattern checks a grant object pattern. Patterns are looser than
// identifiers: wildcards and dots are allowed, quoting is not.
func validatePattern(p string) error {
	if p == "" {
		return domain.ErrConfig("empty object pattern")
	}
	if !patternRe.MatchString(p) {
		return domain.ErrConfig("object pattern %q contains unsupported characters", p)
	}
	return nil
}

func validatePrivilege(p string) (string, error) {
	if p == "" {
		return "", domain.ErrConfig("empty privilege")
	}
	if !privilegeRe.MatchString(p) {
		return "", domain.ErrConfig("privilege %q contains unsupported characters", p)
	}
	return strings.ToUpper(strings.TrimSpace(p)), nil
}

func levelKeyword(level domain.ObjectLevel) (string, error) {
	switch level {
	case domain.LevelDatabase:
		return "DATABASE", nil
	case domain.LevelSchema:
		return "SCHEMA", nil
	case domain.LevelTable:
		return "TABLE", nil
	}
	return "", domain.ErrConfig("unknown object level %q", string(level))
}

// CloneObject builds the clone instruction for a resolved source/target pair.
// A non-empty atTime adds the point-in-time clause.
func CloneObject(level domain.ObjectLevel, source, target domain.ObjectPath, atTime string) (string, error) {
	kw, err := levelKeyword(level)
	if err != nil {
		return "", err
	}
	src, err := Qualify(source)
	if err != nil {
		return "", err
	}
	dst, err := Qualify(target)
	if err != nil {
		return "", err
	}
	stmt := fmt.Sprintf("CREATE %s %s CLONE %s", kw, dst, src)
	if atTime != "" {
		lit, err := quoteString(atTime)
		if err != nil {
			return "", err
		}
		stmt += fmt.Sprintf(" AT (TIMESTAMP => %s)", lit)
	}
	return stmt, nil
}

// CreateDatabaseIfAbsent builds the idempotent database-container instruction.
func CreateDatabaseIfAbsent(name string) (string, error) {
	q, err := QuoteIdentifier(name)
	if err != nil {
		return "", err
	}
	return "CREATE DATABASE IF NOT EXISTS " + q, nil
}

// CreateSchemaIfAbsent builds the idempotent schema-container instruction.
func CreateSchemaIfAbsent(db, schema string) (string, error) {
	qualified, err := Qualify(domain.ObjectPath{db, schema})
	if err != nil {
		return "", err
	}
	return "CREATE SCHEMA IF NOT EXISTS " + qualified, nil
}

// CreateRoleIfAbsent builds the idempotent role-creation instruction, with an
// optional comment.
func CreateRoleIfAbsent(name, comment string) (string, error) {
	q, err := QuoteIdentifier(name)
	if err != nil {
		return "", err
	}
	stmt := "CREATE ROLE IF NOT EXISTS " + q
	if comment != "" {
		lit, err := quoteString(comment)
		if err != nil {
			return "", err
		}
		stmt += " COMMENT = " + lit
	}
	return stmt, nil
}

// GrantPrivilege builds a grant instruction for one privilege on one object
// pattern. The privilege "ALL" expands to "ALL PRIVILEGES".
func GrantPrivilege(privilege string, objectType domain.ObjectType, object, role string) (string, error) {
	priv, err := validatePrivilege(privilege)
	if err != nil {
		return "", err
	}
	if priv == "ALL" {
		priv = "ALL PRIVILEGES"
	}
	if err := validatePattern(object); err != nil {
		return "", err
	}
	qRole, err := QuoteIdentifier(role)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("GRANT %s ON %s %s TO ROLE %s", priv, objectType, object, qRole), nil
}

// GrantRoleToRole builds the hierarchy instruction granting child to parent.
func GrantRoleToRole(child, parent string) (string, error) {
	qChild, err := QuoteIdentifier(child)
	if err != nil {
		return "", err
	}
	qParent, err := QuoteIdentifier(parent)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("GRANT ROLE %s TO ROLE %s", qChild, qParent), nil
}

// GrantRoleToUser builds the assignment instruction granting a role to a user.
func GrantRoleToUser(role, user string) (string, error) {
	qRole, err := QuoteIdentifier(role)
	if err != nil {
		return "", err
	}
	qUser, err := QuoteIdentifier(user)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("GRANT ROLE %s TO USER %s", qRole, qUser), nil
}

// ShowRoles lists all roles visible to the session.
func ShowRoles() string { return "SHOW ROLES" }

// ShowGrantsToRole lists the privileges held by a role.
func ShowGrantsToRole(role string) (string, error) {
	q, err := QuoteIdentifier(role)
	if err != nil {
		return "", err
	}
	return "SHOW GRANTS TO ROLE " + q, nil
}

// ShowGrantsOfRole lists the users and roles a role has been granted to.
func ShowGrantsOfRole(role string) (string, error) {
	q, err := QuoteIdentifier(role)
	if err != nil {
		return "", err
	}
	return "SHOW GRANTS OF ROLE " + q, nil
}

// ShowClones lists recorded clone lineage, optionally filtered by object name.
func ShowClones(like string) (string, error) {
	if like == "" {
		return "SHOW CLONES", nil
	}
	lit, err := quoteString(like)
	if err != nil {
		return "", err
	}
	return "SHOW CLONES LIKE " + lit, nil
}

// ShowSchemas lists the schemas of a database.
func ShowSchemas(db string) (string, error) {
	q, err := QuoteIdentifier(db)
	if err != nil {
		return "", err
	}
	return "SHOW SCHEMAS IN DATABASE " + q, nil
}

// ShowTables lists the tables of a schema.
func ShowTables(db, schema string) (string, error) {
	qualified, err := Qualify(domain.ObjectPath{db, schema})
	if err != nil {
		return "", err
	}
	return "SHOW TABLES IN SCHEMA " + qualified, nil
}

// DescribeObject builds the describe instruction for a dot-qualified name,
// picking the object keyword from the path depth.
func DescribeObject(name string) (string, error) {
	path := domain.ParseObjectPath(name)
	switch len(path) {
	case 1, 2, 3:
	default:
		return "", domain.ErrInvalidPath("cannot describe %q: expected 1-3 path segments, got %d", name, len(path))
	}
	levels := map[int]domain.ObjectLevel{1: domain.LevelDatabase, 2: domain.LevelSchema, 3: domain.LevelTable}
	kw, err := levelKeyword(levels[len(path)])
	if err != nil {
		return "", err
	}
	qualified, err := Qualify(path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DESCRIBE %s %s", kw, qualified), nil
}
