package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"snowclone/internal/domain"
)

// ConnectionProfile identifies the warehouse account and session to run
// against. Password may be left empty in the file and supplied via the
// SNOWFLAKE_PASSWORD environment variable or an interactive prompt.
type ConnectionProfile struct {
	Account       string `yaml:"account"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Authenticator string `yaml:"authenticator"`
	Warehouse     string `yaml:"warehouse"`
	Database      string `yaml:"database"`
	Schema        string `yaml:"schema"`
	Role          string `yaml:"role"`
}

// CloningDefaults carries ambient defaults for clone operations.
type CloningDefaults struct {
	// AtTime is the fallback timestamp for AT_TIME clones that do not carry
	// their own, e.g. "2026-01-15 08:00:00".
	AtTime string `yaml:"at_time"`
}

// PrivilegeEntry declares one privilege over a list of object patterns.
type PrivilegeEntry struct {
	Privilege string   `yaml:"privilege"`
	Objects   []string `yaml:"objects"`
}

// PrivilegeGroups holds privilege declarations per securable kind.
type PrivilegeGroups struct {
	Databases  []PrivilegeEntry `yaml:"databases"`
	Schemas    []PrivilegeEntry `yaml:"schemas"`
	Tables     []PrivilegeEntry `yaml:"tables"`
	Views      []PrivilegeEntry `yaml:"views"`
	Warehouses []PrivilegeEntry `yaml:"warehouses"`
}

// RoleConfig declares one role and its privileges.
type RoleConfig struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Privileges  PrivilegeGroups `yaml:"privileges"`
}

// Spec converts the declaration into its domain form.
func (r RoleConfig) Spec() domain.RoleSpec {
	grants := make(map[domain.ObjectType][]domain.PrivilegeSpec)
	add := func(t domain.ObjectType, entries []PrivilegeEntry) {
		for _, e := range entries {
			grants[t] = append(grants[t], domain.PrivilegeSpec{
				Privilege:      e.Privilege,
				ObjectPatterns: append([]string(nil), e.Objects...),
			})
		}
	}
	add(domain.TypeDatabase, r.Privileges.Databases)
	add(domain.TypeSchema, r.Privileges.Schemas)
	add(domain.TypeTable, r.Privileges.Tables)
	add(domain.TypeView, r.Privileges.Views)
	add(domain.TypeWarehouse, r.Privileges.Warehouses)
	return domain.RoleSpec{Name: r.Name, Description: r.Description, Grants: grants}
}

// HierarchyEntry grants each child role to the parent role.
type HierarchyEntry struct {
	Parent   string   `yaml:"parent"`
	Children []string `yaml:"children"`
}

// UserAssignmentEntry maps one user to the roles they should hold.
type UserAssignmentEntry struct {
	Username string   `yaml:"username"`
	Roles    []string `yaml:"roles"`
}

// RBACConfig is the declarative role model applied after cloning.
type RBACConfig struct {
	ServiceRoles    []RoleConfig          `yaml:"service_roles"`
	SystemFullRoles []RoleConfig          `yaml:"system_full_roles"`
	RoleHierarchy   []HierarchyEntry      `yaml:"role_hierarchy"`
	UserAssignments []UserAssignmentEntry `yaml:"user_assignments"`
}

// Roles returns the declarations of one category in declaration order.
func (r RBACConfig) Roles(category domain.RoleCategory) []RoleConfig {
	switch category {
	case domain.CategoryService:
		return r.ServiceRoles
	case domain.CategorySystemFull:
		return r.SystemFullRoles
	}
	return nil
}

// RoleSpecs converts one category's declarations into domain form.
func (r RBACConfig) RoleSpecs(category domain.RoleCategory) []domain.RoleSpec {
	roles := r.Roles(category)
	specs := make([]domain.RoleSpec, 0, len(roles))
	for _, rc := range roles {
		specs = append(specs, rc.Spec())
	}
	return specs
}

// HierarchyGrants flattens the hierarchy entries into parent/child edges,
// preserving declaration order.
func (r RBACConfig) HierarchyGrants() []domain.HierarchyGrant {
	var edges []domain.HierarchyGrant
	for _, h := range r.RoleHierarchy {
		for _, child := range h.Children {
			edges = append(edges, domain.HierarchyGrant{Parent: h.Parent, Child: child})
		}
	}
	return edges
}

// Assignments converts the user assignment entries into domain form.
func (r RBACConfig) Assignments() []domain.UserAssignment {
	out := make([]domain.UserAssignment, 0, len(r.UserAssignments))
	for _, u := range r.UserAssignments {
		out = append(out, domain.UserAssignment{
			Username: u.Username,
			Roles:    append([]string(nil), u.Roles...),
		})
	}
	return out
}

// DatabaseCloneDoc declares one database-level clone.
type DatabaseCloneDoc struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Mode   string `yaml:"mode"`
	AtTime string `yaml:"at_time"`
}

// SchemaCloneDoc declares one schema-level clone. TargetSchema defaults to
// the source schema name.
type SchemaCloneDoc struct {
	SourceDB     string `yaml:"source_db"`
	SourceSchema string `yaml:"source_schema"`
	TargetDB     string `yaml:"target_db"`
	TargetSchema string `yaml:"target_schema"`
}

// TableCloneDoc declares one table-level clone. TargetSchema and TargetTable
// default to their source counterparts.
type TableCloneDoc struct {
	SourceDB     string `yaml:"source_db"`
	SourceSchema string `yaml:"source_schema"`
	SourceTable  string `yaml:"source_table"`
	TargetDB     string `yaml:"target_db"`
	TargetSchema string `yaml:"target_schema"`
	TargetTable  string `yaml:"target_table"`
}

// OperationSet is a declarative batch of clone operations, used both for
// named templates in the project file and standalone operation files.
type OperationSet struct {
	Databases []DatabaseCloneDoc `yaml:"databases"`
	Schemas   []SchemaCloneDoc   `yaml:"schemas"`
	Tables    []TableCloneDoc    `yaml:"tables"`
}

// CloneSet converts the declarations into domain clone requests.
func (s OperationSet) CloneSet() domain.CloneSet {
	var set domain.CloneSet
	for _, d := range s.Databases {
		mode := domain.CloneMode(d.Mode)
		if mode == "" {
			if d.AtTime != "" {
				mode = domain.ModeAtTime
			} else {
				mode = domain.ModeZeroCopy
			}
		}
		set.Databases = append(set.Databases, domain.CloneRequest{
			Level:  domain.LevelDatabase,
			Source: domain.ParseObjectPath(d.Source),
			Target: domain.ParseObjectPath(d.Target),
			Mode:   mode,
			AtTime: d.AtTime,
		})
	}
	for _, sc := range s.Schemas {
		set.Schemas = append(set.Schemas, domain.CloneRequest{
			Level:  domain.LevelSchema,
			Source: domain.ObjectPath{sc.SourceDB, sc.SourceSchema},
			Target: domain.ObjectPath{sc.TargetDB, sc.TargetSchema},
			Mode:   domain.ModeZeroCopy,
		})
	}
	for _, tc := range s.Tables {
		set.Tables = append(set.Tables, domain.CloneRequest{
			Level:  domain.LevelTable,
			Source: domain.ObjectPath{tc.SourceDB, tc.SourceSchema, tc.SourceTable},
			Target: domain.ObjectPath{tc.TargetDB, tc.TargetSchema, tc.TargetTable},
			Mode:   domain.ModeZeroCopy,
		})
	}
	return set
}

// RefreshSchedule re-runs a named template on a cron expression.
type RefreshSchedule struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
	Cron     string `yaml:"cron"`
}

// LoggingConfig carries the project-level log settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Project is the full project configuration file.
type Project struct {
	Snowflake ConnectionProfile       `yaml:"snowflake"`
	Cloning   CloningDefaults         `yaml:"cloning"`
	RBAC      RBACConfig              `yaml:"rbac"`
	Templates map[string]OperationSet `yaml:"operation_templates"`
	Refresh   []RefreshSchedule       `yaml:"refresh_schedules"`
	Logging   LoggingConfig           `yaml:"logging"`
}

// Template looks up a named operation template.
func (p *Project) Template(name string) (OperationSet, bool) {
	set, ok := p.Templates[name]
	return set, ok
}

// LoadProject reads, strictly decodes, and validates a project file. Unknown
// keys are rejected with the file path in the error. The warehouse password
// is overridden from SNOWFLAKE_PASSWORD when that variable is set.
func LoadProject(path string) (*Project, error) {
	var p Project
	if err := decodeYAMLFile(path, &p); err != nil {
		return nil, err
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		p.Snowflake.Password = v
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

// LoadOperationSet reads and strictly decodes a standalone operation file.
func LoadOperationSet(path string) (*OperationSet, error) {
	var s OperationSet
	if err := decodeYAMLFile(path, &s); err != nil {
		return nil, err
	}
	if err := validateOperationSet("operation set", s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

func decodeYAMLFile(path string, target interface{}) error {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading user-specified config files
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate checks structural consistency once at load time so the engines can
// trust their inputs. Role names must be unique across both categories.
func (p *Project) Validate() error {
	if p.Snowflake.Account == "" {
		return domain.ErrValidation("snowflake.account is required")
	}
	if p.Snowflake.User == "" {
		return domain.ErrValidation("snowflake.user is required")
	}

	seen := make(map[string]domain.RoleCategory)
	for _, category := range []domain.RoleCategory{domain.CategoryService, domain.CategorySystemFull} {
		for _, role := range p.RBAC.Roles(category) {
			if role.Name == "" {
				return domain.ErrValidation("rbac.%s: role name is required", category)
			}
			if prev, dup := seen[role.Name]; dup {
				return domain.ErrValidation("rbac: duplicate role name %q (declared in %s and %s)", role.Name, prev, category)
			}
			seen[role.Name] = category
			if err := validatePrivilegeGroups(role.Name, role.Privileges); err != nil {
				return err
			}
		}
	}

	for _, h := range p.RBAC.RoleHierarchy {
		if h.Parent == "" {
			return domain.ErrValidation("rbac.role_hierarchy: parent role is required")
		}
		if len(h.Children) == 0 {
			return domain.ErrValidation("rbac.role_hierarchy: parent %q has no children", h.Parent)
		}
		for _, c := range h.Children {
			if c == "" {
				return domain.ErrValidation("rbac.role_hierarchy: parent %q has an empty child role", h.Parent)
			}
		}
	}

	for _, u := range p.RBAC.UserAssignments {
		if u.Username == "" {
			return domain.ErrValidation("rbac.user_assignments: username is required")
		}
		if len(u.Roles) == 0 {
			return domain.ErrValidation("rbac.user_assignments: user %q has no roles", u.Username)
		}
	}

	for name, set := range p.Templates {
		if name == "" {
			return domain.ErrValidation("operation_templates: template name is required")
		}
		if err := validateOperationSet("operation_templates."+name, set); err != nil {
			return err
		}
	}

	for _, r := range p.Refresh {
		if r.Name == "" {
			return domain.ErrValidation("refresh_schedules: name is required")
		}
		if r.Cron == "" {
			return domain.ErrValidation("refresh_schedules.%s: cron expression is required", r.Name)
		}
		if _, ok := p.Templates[r.Template]; !ok {
			return domain.ErrValidation("refresh_schedules.%s: unknown template %q", r.Name, r.Template)
		}
	}

	return nil
}

func validatePrivilegeGroups(role string, groups PrivilegeGroups) error {
	check := func(kind string, entries []PrivilegeEntry) error {
		for _, e := range entries {
			if e.Privilege == "" {
				return domain.ErrValidation("rbac role %q: %s entry has no privilege", role, kind)
			}
			if len(e.Objects) == 0 {
				return domain.ErrValidation("rbac role %q: %s privilege %q has no objects", role, kind, e.Privilege)
			}
		}
		return nil
	}
	if err := check("databases", groups.Databases); err != nil {
		return err
	}
	if err := check("schemas", groups.Schemas); err != nil {
		return err
	}
	if err := check("tables", groups.Tables); err != nil {
		return err
	}
	if err := check("views", groups.Views); err != nil {
		return err
	}
	return check("warehouses", groups.Warehouses)
}

func validateOperationSet(where string, set OperationSet) error {
	for i, d := range set.Databases {
		if d.Source == "" || d.Target == "" {
			return domain.ErrValidation("%s.databases[%d]: source and target are required", where, i)
		}
		switch domain.CloneMode(d.Mode) {
		case "", domain.ModeZeroCopy, domain.ModeAtTime:
		default:
			return domain.ErrValidation("%s.databases[%d]: unknown mode %q", where, i, d.Mode)
		}
	}
	for i, s := range set.Schemas {
		if s.SourceDB == "" || s.SourceSchema == "" {
			return domain.ErrValidation("%s.schemas[%d]: source_db and source_schema are required", where, i)
		}
		if s.TargetDB == "" {
			return domain.ErrValidation("%s.schemas[%d]: target_db is required", where, i)
		}
	}
	for i, t := range set.Tables {
		if t.SourceDB == "" || t.SourceSchema == "" || t.SourceTable == "" {
			return domain.ErrValidation("%s.tables[%d]: source_db, source_schema and source_table are required", where, i)
		}
		if t.TargetDB == "" {
			return domain.ErrValidation("%s.tables[%d]: target_db is required", where, i)
		}
	}
	return nil
}
