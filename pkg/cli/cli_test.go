package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowclone/internal/config"
	"snowclone/internal/domain"
	"snowclone/internal/testutil"
)

const testProjectYAML = `snowflake:
  account: test.eu-central-1
  user: CLONE_SVC
  password: hunter2
  database: PROD
rbac:
  service_roles:
    - name: SR_READER
      description: Read access
      privileges:
        databases:
          - privilege: USAGE
            objects: ["${TARGET_DATABASE}"]
  system_full_roles:
    - name: SFULL_ADMIN
      description: Admin access
      privileges:
        databases:
          - privilege: ALL
            objects: ["${TARGET_DATABASE}"]
  role_hierarchy:
    - parent: SFULL_ADMIN
      children: [SR_READER]
operation_templates:
  nightly:
    databases:
      - source: PROD
        target: DEV
`

func writeProject(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snowclone.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testProjectYAML), 0o600))
	return path
}

func runCommand(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// stubbedApp wires an app whose warehouse session and history store are fakes.
func stubbedApp(exec *testutil.MockExecutor, store *testutil.MockRunHistory) *app {
	a := newApp()
	a.logger = testutil.Logger()
	a.openSession = func(_ context.Context, _ config.ConnectionProfile, _ *slog.Logger) (domain.StatementExecutor, func() error, error) {
		return exec, func() error { return nil }, nil
	}
	a.openHistory = func() (domain.RunHistory, func() error, error) {
		return store, func() error { return nil }, nil
	}
	return a
}

func TestRootCommand_Wiring(t *testing.T) {
	root := newRootCmd(newApp())

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"discover", "clone", "bulk", "rbac", "validate", "history", "create-config", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCommand_RejectsBadOutputFormat(t *testing.T) {
	a := newApp()
	a.logger = testutil.Logger()
	_, err := runCommand(t, a, "--output", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestCloneDatabase(t *testing.T) {
	exec := &testutil.MockExecutor{}
	store := &testutil.MockRunHistory{}
	a := stubbedApp(exec, store)
	a.configPath = writeProject(t)

	resultPath := filepath.Join(t.TempDir(), "result.json")
	_, err := runCommand(t, a,
		"--config", a.configPath,
		"clone", "database", "--source", "PROD", "--target", "DEV", "--output", resultPath)
	require.NoError(t, err)

	require.Equal(t, []string{"CREATE DATABASE DEV CLONE PROD"}, exec.Instructions)

	data, err := os.ReadFile(resultPath)
	require.NoError(t, err)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, true, result["succeeded"])
}

func TestCloneDatabase_FailureExitsNonZero(t *testing.T) {
	exec := &testutil.MockExecutor{
		ExecuteFn: func(_ context.Context, _ string) ([]domain.Row, error) {
			return nil, errors.New("insufficient privileges")
		},
	}
	a := stubbedApp(exec, &testutil.MockRunHistory{})
	a.configPath = writeProject(t)

	resultPath := filepath.Join(t.TempDir(), "result.json")
	_, err := runCommand(t, a,
		"--config", a.configPath,
		"clone", "database", "--source", "PROD", "--target", "DEV", "--output", resultPath)
	require.Error(t, err)

	data, readErr := os.ReadFile(resultPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "insufficient privileges")
}

func TestCloneDatabase_ApplyRbacChainsSetup(t *testing.T) {
	exec := &testutil.MockExecutor{}
	store := &testutil.MockRunHistory{}
	a := stubbedApp(exec, store)
	a.configPath = writeProject(t)

	resultPath := filepath.Join(t.TempDir(), "result.json")
	_, err := runCommand(t, a,
		"--config", a.configPath,
		"clone", "database", "--source", "PROD", "--target", "DEV", "--apply-rbac", "--output", resultPath)
	require.NoError(t, err)

	joined := strings.Join(exec.Instructions, "\n")
	assert.Contains(t, joined, "CREATE DATABASE DEV CLONE PROD")
	assert.Contains(t, joined, "CREATE ROLE IF NOT EXISTS SR_READER")
	assert.Contains(t, joined, "GRANT USAGE ON DATABASE DEV TO ROLE SR_READER")
	assert.Contains(t, joined, "GRANT ROLE SR_READER TO ROLE SFULL_ADMIN")

	rec := store.LastRecord()
	require.NotNil(t, rec)
	assert.Equal(t, domain.RunRbacSetup, rec.Kind)
}

func TestCloneTable_DefaultsTargetSegments(t *testing.T) {
	exec := &testutil.MockExecutor{}
	a := stubbedApp(exec, &testutil.MockRunHistory{})
	a.configPath = writeProject(t)

	_, err := runCommand(t, a,
		"--config", a.configPath,
		"clone", "table",
		"--source-db", "PROD", "--source-schema", "S", "--source-table", "T",
		"--target-db", "DEV")
	require.NoError(t, err)

	require.Equal(t, []string{
		"CREATE DATABASE IF NOT EXISTS DEV",
		"CREATE SCHEMA IF NOT EXISTS DEV.S",
		"CREATE TABLE DEV.S.T CLONE PROD.S.T",
	}, exec.Instructions)
}

func TestBulk_Template(t *testing.T) {
	exec := &testutil.MockExecutor{}
	store := &testutil.MockRunHistory{}
	a := stubbedApp(exec, store)
	a.configPath = writeProject(t)

	resultPath := filepath.Join(t.TempDir(), "report.json")
	_, err := runCommand(t, a,
		"--config", a.configPath,
		"bulk", "--template", "nightly", "--output", resultPath)
	require.NoError(t, err)

	require.Equal(t, []string{"CREATE DATABASE DEV CLONE PROD"}, exec.Instructions)

	rec := store.LastRecord()
	require.NotNil(t, rec)
	assert.Equal(t, domain.RunBulkClone, rec.Kind)
	assert.Equal(t, 1, rec.Total)

	var report domain.BulkRunReport
	data, readErr := os.ReadFile(resultPath)
	require.NoError(t, readErr)
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 1, report.Summary.Successful)
}

func TestBulk_RequiresExactlyOneSource(t *testing.T) {
	a := stubbedApp(&testutil.MockExecutor{}, &testutil.MockRunHistory{})
	a.configPath = writeProject(t)

	_, err := runCommand(t, a, "--config", a.configPath, "bulk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of --template or --operation-file")

	_, err = runCommand(t, a, "--config", a.configPath,
		"bulk", "--template", "nightly", "--operation-file", "ops.yaml")
	require.Error(t, err)
}

func TestBulk_UnknownTemplate(t *testing.T) {
	a := stubbedApp(&testutil.MockExecutor{}, &testutil.MockRunHistory{})
	a.configPath = writeProject(t)

	_, err := runCommand(t, a, "--config", a.configPath, "bulk", "--template", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `template "missing" not found`)
}

func TestRbacSetup_RejectsUnknownRoleType(t *testing.T) {
	a := stubbedApp(&testutil.MockExecutor{}, &testutil.MockRunHistory{})
	a.configPath = writeProject(t)

	_, err := runCommand(t, a, "--config", a.configPath,
		"rbac", "setup", "--database", "DEV", "--role-types", "everything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role type")
}

func TestRbacSetup_RoleTypeFilter(t *testing.T) {
	exec := &testutil.MockExecutor{}
	store := &testutil.MockRunHistory{}
	a := stubbedApp(exec, store)
	a.configPath = writeProject(t)

	resultPath := filepath.Join(t.TempDir(), "rbac.json")
	_, err := runCommand(t, a, "--config", a.configPath,
		"rbac", "setup", "--database", "DEV",
		"--role-types", "service_roles", "--output", resultPath)
	require.NoError(t, err)

	joined := strings.Join(exec.Instructions, "\n")
	// Both categories are still created; only privileges are filtered.
	assert.Contains(t, joined, "CREATE ROLE IF NOT EXISTS SFULL_ADMIN")
	assert.Contains(t, joined, "GRANT USAGE ON DATABASE DEV TO ROLE SR_READER")
	assert.NotContains(t, joined, "GRANT ALL PRIVILEGES ON DATABASE DEV TO ROLE SFULL_ADMIN")
}

func TestCreateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.yaml")

	a := newApp()
	a.logger = testutil.Logger()
	_, err := runCommand(t, a, "create-config", "--output", path)
	require.NoError(t, err)

	// The generated example must satisfy the strict loader.
	project, err := config.LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, "CLONE_SVC", project.Snowflake.User)
	assert.Len(t, project.RBAC.ServiceRoles, 1)
	_, ok := project.Template("nightly_dev")
	assert.True(t, ok)

	t.Run("refuses_overwrite", func(t *testing.T) {
		_, err := runCommand(t, a, "create-config", "--output", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})
}
