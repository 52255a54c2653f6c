// Package clone implements zero-copy clone orchestration: single clone
// operations with target-container handling, and bulk runs that record every
// outcome instead of failing fast.
package clone

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"snowclone/internal/domain"
	"snowclone/internal/warehouse"
)

// Engine executes clone operations through an injected statement executor.
type Engine struct {
	exec domain.StatementExecutor
	log  *slog.Logger
	now  func() time.Time
}

// NewEngine creates a clone engine.
func NewEngine(exec domain.StatementExecutor, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{exec: exec, log: logger, now: time.Now}
}

// Clone performs one clone operation. Target segments left empty inherit the
// source name. Missing target containers are created first and are not rolled
// back if the clone itself fails.
func (e *Engine) Clone(ctx context.Context, req domain.CloneRequest) error {
	resolved, err := domain.ResolveTarget(req.Level, req.Source, req.Target)
	if err != nil {
		return err
	}

	atTime, err := normalizeMode(req)
	if err != nil {
		return err
	}

	stmt, err := warehouse.CloneObject(req.Level, req.Source, resolved, atTime)
	if err != nil {
		return err
	}

	if err := e.ensureContainers(ctx, req.Level, resolved); err != nil {
		return err
	}

	if _, err := e.exec.Execute(ctx, stmt); err != nil {
		e.log.Error("clone failed",
			"level", strings.ToLower(string(req.Level)),
			"source", req.Source.String(),
			"target", resolved.String(),
			"error", err)
		return fmt.Errorf("clone %s %s to %s: %w",
			strings.ToLower(string(req.Level)), req.Source.String(), resolved.String(), err)
	}

	e.log.Info("clone complete",
		"level", strings.ToLower(string(req.Level)),
		"source", req.Source.String(),
		"target", resolved.String())
	return nil
}

// normalizeMode validates the request's mode and returns the point-in-time
// timestamp to use, empty for zero-copy.
func normalizeMode(req domain.CloneRequest) (string, error) {
	mode := req.Mode
	if mode == "" {
		mode = domain.ModeZeroCopy
	}
	switch mode {
	case domain.ModeZeroCopy:
		return "", nil
	case domain.ModeAtTime:
		if req.Level != domain.LevelDatabase {
			return "", domain.ErrConfig("point-in-time clone is only supported at database level, not %s", strings.ToLower(string(req.Level)))
		}
		if req.AtTime == "" {
			return "", domain.ErrConfig("at_time timestamp is required for AT_TIME mode")
		}
		return req.AtTime, nil
	}
	return "", domain.ErrConfig("unknown clone mode %q", string(req.Mode))
}

// ensureContainers creates the target's parent database and schema as needed.
// Database clones have no parent; schema clones need the database; table
// clones need both.
func (e *Engine) ensureContainers(ctx context.Context, level domain.ObjectLevel, target domain.ObjectPath) error {
	if level == domain.LevelDatabase {
		return nil
	}

	stmt, err := warehouse.CreateDatabaseIfAbsent(target.Database())
	if err != nil {
		return err
	}
	if _, err := e.exec.Execute(ctx, stmt); err != nil {
		return fmt.Errorf("ensure database %s: %w", target.Database(), err)
	}

	if level == domain.LevelTable {
		stmt, err := warehouse.CreateSchemaIfAbsent(target.Database(), target.Schema())
		if err != nil {
			return err
		}
		if _, err := e.exec.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema %s.%s: %w", target.Database(), target.Schema(), err)
		}
	}
	return nil
}
