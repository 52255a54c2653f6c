package warehouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowclone/internal/domain"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr string
	}{
		{name: "plain upper", in: "DEV_DATALAKE", want: "DEV_DATALAKE"},
		{name: "plain lower", in: "analytics", want: "analytics"},
		{name: "leading underscore", in: "_staging", want: "_staging"},
		{name: "dollar sign", in: "DB$1", want: "DB$1"},
		{name: "hyphen forces quoting", in: "my-db", want: `"my-db"`},
		{name: "space forces quoting", in: "my db", want: `"my db"`},
		{name: "leading digit forces quoting", in: "1db", want: `"1db"`},
		{name: "embedded quote doubled", in: `he"llo`, want: `"he""llo"`},
		{name: "statement fragment stays one identifier", in: "EVIL; DROP TABLE USERS", want: `"EVIL; DROP TABLE USERS"`},
		{name: "empty", in: "", wantErr: "empty identifier"},
		{name: "newline rejected", in: "a\nb", wantErr: "control characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuoteIdentifier(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var cfgErr *domain.ConfigError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQualify(t *testing.T) {
	got, err := Qualify(domain.ObjectPath{"DEV", "PUBLIC", "ORDERS"})
	require.NoError(t, err)
	assert.Equal(t, "DEV.PUBLIC.ORDERS", got)

	got, err = Qualify(domain.ObjectPath{"DEV", "raw events"})
	require.NoError(t, err)
	assert.Equal(t, `DEV."raw events"`, got)

	_, err = Qualify(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty object path")
}

func TestCloneObject(t *testing.T) {
	tests := []struct {
		name    string
		level   domain.ObjectLevel
		source  domain.ObjectPath
		target  domain.ObjectPath
		atTime  string
		want    string
		wantErr string
	}{
		{
			name:   "database zero copy",
			level:  domain.LevelDatabase,
			source: domain.ObjectPath{"PROD_DB"},
			target: domain.ObjectPath{"DEV_CLONE"},
			want:   "CREATE DATABASE DEV_CLONE CLONE PROD_DB",
		},
		{
			name:   "database at time",
			level:  domain.LevelDatabase,
			source: domain.ObjectPath{"PROD_DB"},
			target: domain.ObjectPath{"DEV_CLONE"},
			atTime: "2024-01-15 09:00:00",
			want:   "CREATE DATABASE DEV_CLONE CLONE PROD_DB AT (TIMESTAMP => '2024-01-15 09:00:00')",
		},
		{
			name:   "timestamp quote escaped",
			level:  domain.LevelDatabase,
			source: domain.ObjectPath{"P"},
			target: domain.ObjectPath{"T"},
			atTime: "it's",
			want:   "CREATE DATABASE T CLONE P AT (TIMESTAMP => 'it''s')",
		},
		{
			name:   "schema",
			level:  domain.LevelSchema,
			source: domain.ObjectPath{"PROD", "SALES"},
			target: domain.ObjectPath{"DEV", "SALES"},
			want:   "CREATE SCHEMA DEV.SALES CLONE PROD.SALES",
		},
		{
			name:   "table",
			level:  domain.LevelTable,
			source: domain.ObjectPath{"PROD", "SALES", "ORDERS"},
			target: domain.ObjectPath{"DEV", "SALES", "ORDERS_SNAP"},
			want:   "CREATE TABLE DEV.SALES.ORDERS_SNAP CLONE PROD.SALES.ORDERS",
		},
		{
			name:    "unknown level",
			level:   domain.ObjectLevel("COLUMN"),
			source:  domain.ObjectPath{"A"},
			target:  domain.ObjectPath{"B"},
			wantErr: "unknown object level",
		},
		{
			name:    "bad source segment",
			level:   domain.LevelDatabase,
			source:  domain.ObjectPath{""},
			target:  domain.ObjectPath{"B"},
			wantErr: "empty identifier",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CloneObject(tt.level, tt.source, tt.target, tt.atTime)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContainerInstructions(t *testing.T) {
	got, err := CreateDatabaseIfAbsent("DEV_CLONE")
	require.NoError(t, err)
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS DEV_CLONE", got)

	got, err = CreateSchemaIfAbsent("DEV_CLONE", "SALES")
	require.NoError(t, err)
	assert.Equal(t, "CREATE SCHEMA IF NOT EXISTS DEV_CLONE.SALES", got)

	_, err = CreateSchemaIfAbsent("DEV_CLONE", "")
	require.Error(t, err)
}

func TestCreateRoleIfAbsent(t *testing.T) {
	got, err := CreateRoleIfAbsent("SR_DATA_READER", "Read-only access")
	require.NoError(t, err)
	assert.Equal(t, "CREATE ROLE IF NOT EXISTS SR_DATA_READER COMMENT = 'Read-only access'", got)

	got, err = CreateRoleIfAbsent("SR_DATA_READER", "")
	require.NoError(t, err)
	assert.Equal(t, "CREATE ROLE IF NOT EXISTS SR_DATA_READER", got)

	got, err = CreateRoleIfAbsent("SFULL_ADMIN", "Analyst's full access")
	require.NoError(t, err)
	assert.Equal(t, "CREATE ROLE IF NOT EXISTS SFULL_ADMIN COMMENT = 'Analyst''s full access'", got)
}

func TestGrantPrivilege(t *testing.T) {
	tests := []struct {
		name       string
		privilege  string
		objectType domain.ObjectType
		object     string
		role       string
		want       string
		wantErr    string
	}{
		{
			name:       "select on table pattern",
			privilege:  "SELECT",
			objectType: domain.TypeTable,
			object:     "DEV_CLONE.*.*",
			role:       "SR_DATA_READER",
			want:       "GRANT SELECT ON TABLE DEV_CLONE.*.* TO ROLE SR_DATA_READER",
		},
		{
			name:       "all expands to all privileges",
			privilege:  "ALL",
			objectType: domain.TypeDatabase,
			object:     "DEV_CLONE",
			role:       "SFULL_ADMIN",
			want:       "GRANT ALL PRIVILEGES ON DATABASE DEV_CLONE TO ROLE SFULL_ADMIN",
		},
		{
			name:       "lowercase privilege uppercased",
			privilege:  "usage",
			objectType: domain.TypeWarehouse,
			object:     "COMPUTE_WH",
			role:       "SR_DATA_READER",
			want:       "GRANT USAGE ON WAREHOUSE COMPUTE_WH TO ROLE SR_DATA_READER",
		},
		{
			name:       "multi word privilege",
			privilege:  "CREATE SCHEMA",
			objectType: domain.TypeDatabase,
			object:     "DEV_CLONE",
			role:       "SFULL_ADMIN",
			want:       "GRANT CREATE SCHEMA ON DATABASE DEV_CLONE TO ROLE SFULL_ADMIN",
		},
		{
			name:       "pattern with statement fragment",
			privilege:  "SELECT",
			objectType: domain.TypeTable,
			object:     "X; DROP TABLE Y",
			role:       "SR_DATA_READER",
			wantErr:    "unsupported characters",
		},
		{
			name:       "privilege with semicolon",
			privilege:  "SELECT;",
			objectType: domain.TypeTable,
			object:     "DEV.*.*",
			role:       "SR_DATA_READER",
			wantErr:    "unsupported characters",
		},
		{
			name:       "empty object",
			privilege:  "SELECT",
			objectType: domain.TypeTable,
			object:     "",
			role:       "SR_DATA_READER",
			wantErr:    "empty object pattern",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GrantPrivilege(tt.privilege, tt.objectType, tt.object, tt.role)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleGrantInstructions(t *testing.T) {
	got, err := GrantRoleToRole("SR_DATA_READER", "SFULL_ADMIN")
	require.NoError(t, err)
	assert.Equal(t, "GRANT ROLE SR_DATA_READER TO ROLE SFULL_ADMIN", got)

	got, err = GrantRoleToUser("SR_DATA_READER", "ANALYST_1")
	require.NoError(t, err)
	assert.Equal(t, "GRANT ROLE SR_DATA_READER TO USER ANALYST_1", got)
}

func TestShowInstructions(t *testing.T) {
	assert.Equal(t, "SHOW ROLES", ShowRoles())

	got, err := ShowGrantsToRole("SR_DATA_READER")
	require.NoError(t, err)
	assert.Equal(t, "SHOW GRANTS TO ROLE SR_DATA_READER", got)

	got, err = ShowGrantsOfRole("SR_DATA_READER")
	require.NoError(t, err)
	assert.Equal(t, "SHOW GRANTS OF ROLE SR_DATA_READER", got)

	got, err = ShowClones("")
	require.NoError(t, err)
	assert.Equal(t, "SHOW CLONES", got)

	got, err = ShowClones("DEV_CLONE")
	require.NoError(t, err)
	assert.Equal(t, "SHOW CLONES LIKE 'DEV_CLONE'", got)

	got, err = ShowClones("O'BRIEN_DB")
	require.NoError(t, err)
	assert.Equal(t, "SHOW CLONES LIKE 'O''BRIEN_DB'", got)

	got, err = ShowSchemas("PROD_DB")
	require.NoError(t, err)
	assert.Equal(t, "SHOW SCHEMAS IN DATABASE PROD_DB", got)

	got, err = ShowTables("PROD_DB", "SALES")
	require.NoError(t, err)
	assert.Equal(t, "SHOW TABLES IN SCHEMA PROD_DB.SALES", got)
}

func TestDescribeObject(t *testing.T) {
	got, err := DescribeObject("PROD_DB")
	require.NoError(t, err)
	assert.Equal(t, "DESCRIBE DATABASE PROD_DB", got)

	got, err = DescribeObject("PROD_DB.SALES")
	require.NoError(t, err)
	assert.Equal(t, "DESCRIBE SCHEMA PROD_DB.SALES", got)

	got, err = DescribeObject("PROD_DB.SALES.ORDERS")
	require.NoError(t, err)
	assert.Equal(t, "DESCRIBE TABLE PROD_DB.SALES.ORDERS", got)

	_, err = DescribeObject("A.B.C.D")
	require.Error(t, err)
	var pathErr *domain.InvalidPathError
	assert.ErrorAs(t, err, &pathErr)

	_, err = DescribeObject("")
	require.Error(t, err)
}
