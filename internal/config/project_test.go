package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowclone/internal/domain"
)

const validProjectYAML = `
snowflake:
  account: "acme-prod.snowflakecomputing.com"
  user: "CLONE_SVC"
  warehouse: "COMPUTE_WH"
  database: "PROD_DATALAKE"
  schema: "PUBLIC"
  role: "SYSADMIN"

cloning:
  at_time: "2026-01-15 08:00:00"

rbac:
  service_roles:
    - name: "SR_DATA_READER"
      description: "Service role for data reading"
      privileges:
        databases:
          - privilege: "USAGE"
            objects: ["${TARGET_DATABASE}"]
        schemas:
          - privilege: "USAGE"
            objects: ["${TARGET_DATABASE}.*"]
        tables:
          - privilege: "SELECT"
            objects: ["${TARGET_DATABASE}.*.*"]
  system_full_roles:
    - name: "SFULL_ADMIN"
      description: "System full administrative role"
      privileges:
        databases:
          - privilege: "ALL"
            objects: ["${TARGET_DATABASE}"]
        warehouses:
          - privilege: "USAGE"
            objects: ["COMPUTE_WH"]
  role_hierarchy:
    - parent: "SFULL_ADMIN"
      children: ["SR_DATA_READER"]
  user_assignments:
    - username: "ANALYST_1"
      roles: ["SR_DATA_READER"]

operation_templates:
  nightly_dev:
    databases:
      - source: "PROD_DATALAKE"
        target: "DEV_DATALAKE"
    tables:
      - source_db: "PROD_DATALAKE"
        source_schema: "SALES"
        source_table: "ORDERS"
        target_db: "DEV_DATALAKE"

refresh_schedules:
  - name: "dev-refresh"
    template: "nightly_dev"
    cron: "0 2 * * *"

logging:
  level: "debug"
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snowclone.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadProject_Valid(t *testing.T) {
	p, err := LoadProject(writeProject(t, validProjectYAML))
	require.NoError(t, err)

	assert.Equal(t, "acme-prod.snowflakecomputing.com", p.Snowflake.Account)
	assert.Equal(t, "CLONE_SVC", p.Snowflake.User)
	assert.Equal(t, "2026-01-15 08:00:00", p.Cloning.AtTime)
	assert.Equal(t, "debug", p.Logging.Level)

	require.Len(t, p.RBAC.ServiceRoles, 1)
	require.Len(t, p.RBAC.SystemFullRoles, 1)
	assert.Equal(t, "SR_DATA_READER", p.RBAC.ServiceRoles[0].Name)

	set, ok := p.Template("nightly_dev")
	require.True(t, ok)
	assert.Len(t, set.Databases, 1)
	assert.Len(t, set.Tables, 1)

	_, ok = p.Template("missing")
	assert.False(t, ok)
}

func TestLoadProject_UnknownFieldRejected(t *testing.T) {
	path := writeProject(t, validProjectYAML+"\nsurprise: true\n")
	_, err := LoadProject(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, err.Error(), "surprise")
}

func TestLoadProject_MissingFile(t *testing.T) {
	_, err := LoadProject("/nonexistent/snowclone.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/snowclone.yaml")
}

func TestLoadProject_DuplicateRoleAcrossCategories(t *testing.T) {
	content := `
snowflake:
  account: "acme"
  user: "svc"
rbac:
  service_roles:
    - name: "SHARED_NAME"
  system_full_roles:
    - name: "SHARED_NAME"
`
	_, err := LoadProject(writeProject(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate role name "SHARED_NAME"`)
	assert.Contains(t, err.Error(), "service_roles")
	assert.Contains(t, err.Error(), "system_full_roles")
}

func TestLoadProject_DuplicateRoleWithinCategory(t *testing.T) {
	content := `
snowflake:
  account: "acme"
  user: "svc"
rbac:
  service_roles:
    - name: "SR_X"
    - name: "SR_X"
`
	_, err := LoadProject(writeProject(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate role name "SR_X"`)
}

func TestLoadProject_PasswordFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_PASSWORD", "hunter2")
	p, err := LoadProject(writeProject(t, validProjectYAML))
	require.NoError(t, err)
	assert.Equal(t, "hunter2", p.Snowflake.Password)
}

func TestLoadProject_RefreshUnknownTemplate(t *testing.T) {
	content := `
snowflake:
  account: "acme"
  user: "svc"
refresh_schedules:
  - name: "orphan"
    template: "nope"
    cron: "0 2 * * *"
`
	_, err := LoadProject(writeProject(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown template "nope"`)
}

func TestLoadProject_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing account",
			content: "snowflake:\n  user: svc\n",
			wantErr: "snowflake.account is required",
		},
		{
			name:    "missing user",
			content: "snowflake:\n  account: acme\n",
			wantErr: "snowflake.user is required",
		},
		{
			name: "privilege without objects",
			content: `
snowflake: {account: acme, user: svc}
rbac:
  service_roles:
    - name: SR_X
      privileges:
        tables:
          - privilege: SELECT
            objects: []
`,
			wantErr: `privilege "SELECT" has no objects`,
		},
		{
			name: "hierarchy without children",
			content: `
snowflake: {account: acme, user: svc}
rbac:
  role_hierarchy:
    - parent: SFULL_ADMIN
      children: []
`,
			wantErr: `parent "SFULL_ADMIN" has no children`,
		},
		{
			name: "user without roles",
			content: `
snowflake: {account: acme, user: svc}
rbac:
  user_assignments:
    - username: ANALYST_1
      roles: []
`,
			wantErr: `user "ANALYST_1" has no roles`,
		},
		{
			name: "template database missing target",
			content: `
snowflake: {account: acme, user: svc}
operation_templates:
  bad:
    databases:
      - source: PROD
`,
			wantErr: "source and target are required",
		},
		{
			name: "template unknown clone mode",
			content: `
snowflake: {account: acme, user: svc}
operation_templates:
  bad:
    databases:
      - source: PROD
        target: DEV
        mode: SOMETIME
`,
			wantErr: `unknown mode "SOMETIME"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProject(writeProject(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			var validationErr *domain.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestOperationSet_CloneSet(t *testing.T) {
	set := OperationSet{
		Databases: []DatabaseCloneDoc{
			{Source: "PROD", Target: "DEV"},
			{Source: "PROD", Target: "STAGE", AtTime: "2026-01-15 08:00:00"},
			{Source: "PROD", Target: "QA", Mode: "AT_TIME"},
		},
		Schemas: []SchemaCloneDoc{
			{SourceDB: "PROD", SourceSchema: "SALES", TargetDB: "DEV"},
		},
		Tables: []TableCloneDoc{
			{SourceDB: "PROD", SourceSchema: "SALES", SourceTable: "ORDERS", TargetDB: "DEV", TargetTable: "ORDERS_COPY"},
		},
	}

	cs := set.CloneSet()
	require.Len(t, cs.Databases, 3)
	require.Len(t, cs.Schemas, 1)
	require.Len(t, cs.Tables, 1)
	assert.Equal(t, 5, cs.Size())

	assert.Equal(t, domain.ModeZeroCopy, cs.Databases[0].Mode)
	assert.Equal(t, domain.ModeAtTime, cs.Databases[1].Mode)
	assert.Equal(t, "2026-01-15 08:00:00", cs.Databases[1].AtTime)
	// Explicit AT_TIME without a timestamp defers to the engine's default.
	assert.Equal(t, domain.ModeAtTime, cs.Databases[2].Mode)
	assert.Empty(t, cs.Databases[2].AtTime)

	assert.Equal(t, domain.ObjectPath{"PROD", "SALES"}, cs.Schemas[0].Source)
	assert.Equal(t, domain.ObjectPath{"DEV", ""}, cs.Schemas[0].Target)
	assert.Equal(t, domain.ObjectPath{"DEV", "", "ORDERS_COPY"}, cs.Tables[0].Target)
}

func TestLoadOperationSet(t *testing.T) {
	content := `
databases:
  - source: PROD
    target: DEV
tables:
  - source_db: PROD
    source_schema: SALES
    source_table: ORDERS
    target_db: DEV
`
	path := filepath.Join(t.TempDir(), "ops.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	set, err := LoadOperationSet(path)
	require.NoError(t, err)
	assert.Len(t, set.Databases, 1)
	assert.Len(t, set.Tables, 1)

	// Unknown keys are rejected the same way as in the project file.
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("database_clones: []\n"), 0644))
	_, err = LoadOperationSet(bad)
	require.Error(t, err)
}

func TestRBACConfig_Conversions(t *testing.T) {
	cfg := RBACConfig{
		ServiceRoles: []RoleConfig{{
			Name:        "SR_X",
			Description: "reader",
			Privileges: PrivilegeGroups{
				Databases: []PrivilegeEntry{{Privilege: "USAGE", Objects: []string{"${TARGET_DATABASE}"}}},
				Tables:    []PrivilegeEntry{{Privilege: "SELECT", Objects: []string{"${TARGET_DATABASE}.*.*"}}},
			},
		}},
		RoleHierarchy: []HierarchyEntry{
			{Parent: "SFULL_ADMIN", Children: []string{"SR_X", "SR_Y"}},
		},
		UserAssignments: []UserAssignmentEntry{
			{Username: "ANALYST_1", Roles: []string{"SR_X"}},
		},
	}

	specs := cfg.RoleSpecs(domain.CategoryService)
	require.Len(t, specs, 1)
	assert.Equal(t, "SR_X", specs[0].Name)
	assert.Len(t, specs[0].Grants[domain.TypeDatabase], 1)
	assert.Len(t, specs[0].Grants[domain.TypeTable], 1)
	assert.Empty(t, cfg.RoleSpecs(domain.CategorySystemFull))

	edges := cfg.HierarchyGrants()
	require.Len(t, edges, 2)
	assert.Equal(t, domain.HierarchyGrant{Parent: "SFULL_ADMIN", Child: "SR_X"}, edges[0])
	assert.Equal(t, "SFULL_ADMIN -> SR_Y", edges[1].Key())

	users := cfg.Assignments()
	require.Len(t, users, 1)
	assert.Equal(t, "ANALYST_1", users[0].Username)
}
