package clone

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowclone/internal/domain"
	"snowclone/internal/testutil"
)

func TestEngineClone_Database(t *testing.T) {
	exec := &testutil.MockExecutor{}
	eng := NewEngine(exec, testutil.Logger())

	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelDatabase,
		Source: domain.ObjectPath{"PROD_DB"},
		Target: domain.ObjectPath{"DEV_CLONE"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"CREATE DATABASE DEV_CLONE CLONE PROD_DB"}, exec.Instructions)
}

func TestEngineClone_DatabaseAtTime(t *testing.T) {
	exec := &testutil.MockExecutor{}
	eng := NewEngine(exec, testutil.Logger())

	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelDatabase,
		Source: domain.ObjectPath{"PROD_DB"},
		Target: domain.ObjectPath{"DEV_CLONE"},
		Mode:   domain.ModeAtTime,
		AtTime: "2024-01-15 09:00:00",
	})
	require.NoError(t, err)
	require.Len(t, exec.Instructions, 1)
	assert.Equal(t, "CREATE DATABASE DEV_CLONE CLONE PROD_DB AT (TIMESTAMP => '2024-01-15 09:00:00')", exec.Instructions[0])
}

func TestEngineClone_AtTimeRequiresTimestamp(t *testing.T) {
	exec := &testutil.MockExecutor{}
	eng := NewEngine(exec, testutil.Logger())

	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelDatabase,
		Source: domain.ObjectPath{"PROD_DB"},
		Target: domain.ObjectPath{"DEV_CLONE"},
		Mode:   domain.ModeAtTime,
	})
	require.Error(t, err)
	var cfgErr *domain.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "at_time timestamp is required")
	assert.Empty(t, exec.Instructions)
}

func TestEngineClone_AtTimeOnlyForDatabases(t *testing.T) {
	exec := &testutil.MockExecutor{}
	eng := NewEngine(exec, testutil.Logger())

	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelSchema,
		Source: domain.ObjectPath{"PROD", "SALES"},
		Target: domain.ObjectPath{"DEV", "SALES"},
		Mode:   domain.ModeAtTime,
		AtTime: "2024-01-15 09:00:00",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only supported at database level")
	assert.Empty(t, exec.Instructions)
}

func TestEngineClone_UnknownMode(t *testing.T) {
	exec := &testutil.MockExecutor{}
	eng := NewEngine(exec, testutil.Logger())

	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelDatabase,
		Source: domain.ObjectPath{"PROD_DB"},
		Target: domain.ObjectPath{"DEV_CLONE"},
		Mode:   domain.CloneMode("INCREMENTAL"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown clone mode")
}

func TestEngineClone_SchemaCreatesDatabaseContainer(t *testing.T) {
	exec := &testutil.MockExecutor{}
	eng := NewEngine(exec, testutil.Logger())

	// Target schema segment left empty: inherits the source schema name.
	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelSchema,
		Source: domain.ObjectPath{"PROD", "SALES"},
		Target: domain.ObjectPath{"DEV"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"CREATE DATABASE IF NOT EXISTS DEV",
		"CREATE SCHEMA DEV.SALES CLONE PROD.SALES",
	}, exec.Instructions)
}

func TestEngineClone_TableCreatesBothContainers(t *testing.T) {
	exec := &testutil.MockExecutor{}
	eng := NewEngine(exec, testutil.Logger())

	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelTable,
		Source: domain.ObjectPath{"PROD", "SALES", "ORDERS"},
		Target: domain.ObjectPath{"DEV", "", "ORDERS_SNAP"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"CREATE DATABASE IF NOT EXISTS DEV",
		"CREATE SCHEMA IF NOT EXISTS DEV.SALES",
		"CREATE TABLE DEV.SALES.ORDERS_SNAP CLONE PROD.SALES.ORDERS",
	}, exec.Instructions)
}

func TestEngineClone_ContainerFailureAborts(t *testing.T) {
	exec := &testutil.MockExecutor{
		ExecuteFn: func(_ context.Context, instruction string) ([]domain.Row, error) {
			if strings.HasPrefix(instruction, "CREATE DATABASE IF NOT EXISTS") {
				return nil, errors.New("insufficient privileges")
			}
			return nil, nil
		},
	}
	eng := NewEngine(exec, testutil.Logger())

	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelSchema,
		Source: domain.ObjectPath{"PROD", "SALES"},
		Target: domain.ObjectPath{"DEV"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ensure database DEV")
	// The clone statement itself must not have been attempted.
	require.Equal(t, []string{"CREATE DATABASE IF NOT EXISTS DEV"}, exec.Instructions)
}

func TestEngineClone_CloneFailureKeepsContainers(t *testing.T) {
	exec := &testutil.MockExecutor{
		ExecuteFn: func(_ context.Context, instruction string) ([]domain.Row, error) {
			if strings.Contains(instruction, " CLONE ") {
				return nil, errors.New("object does not exist")
			}
			return nil, nil
		},
	}
	eng := NewEngine(exec, testutil.Logger())

	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelTable,
		Source: domain.ObjectPath{"PROD", "SALES", "ORDERS"},
		Target: domain.ObjectPath{"DEV"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object does not exist")
	// Containers were created and nothing was rolled back.
	require.Len(t, exec.Instructions, 3)
	for _, instr := range exec.Instructions {
		assert.NotContains(t, instr, "DROP")
	}
}

func TestEngineClone_InvalidSourceDepth(t *testing.T) {
	exec := &testutil.MockExecutor{}
	eng := NewEngine(exec, testutil.Logger())

	err := eng.Clone(context.Background(), domain.CloneRequest{
		Level:  domain.LevelTable,
		Source: domain.ObjectPath{"PROD", "SALES"},
		Target: domain.ObjectPath{"DEV"},
	})
	require.Error(t, err)
	var pathErr *domain.InvalidPathError
	assert.ErrorAs(t, err, &pathErr)
	assert.Empty(t, exec.Instructions)
}
