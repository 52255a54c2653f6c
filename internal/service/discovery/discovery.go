// Package discovery inspects a source database's schema and table layout,
// typically before planning a clone.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"snowclone/internal/domain"
	"snowclone/internal/warehouse"
)

// Service runs discovery queries through an injected statement executor.
type Service struct {
	exec domain.StatementExecutor
	log  *slog.Logger
	now  func() time.Time
}

// NewService creates a discovery service.
func NewService(exec domain.StatementExecutor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{exec: exec, log: logger, now: time.Now}
}

// DiscoverSource maps the schemas and tables of a database.
// INFORMATION_SCHEMA is always excluded, and schemas whose tables cannot be
// listed are skipped with a warning rather than failing the discovery.
func (s *Service) DiscoverSource(ctx context.Context, database string) (*domain.SourceStructure, error) {
	stmt, err := warehouse.ShowSchemas(database)
	if err != nil {
		return nil, err
	}
	rows, err := s.exec.Execute(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("list schemas of %s: %w", database, err)
	}

	structure := &domain.SourceStructure{
		Database:     database,
		Schemas:      make(map[string]domain.SchemaStructure),
		DiscoveredAt: s.now().UTC(),
	}

	for _, row := range rows {
		schema := row["name"]
		if schema == "" || strings.EqualFold(schema, "INFORMATION_SCHEMA") {
			continue
		}

		tableStmt, err := warehouse.ShowTables(database, schema)
		if err == nil {
			var tableRows []domain.Row
			if tableRows, err = s.exec.Execute(ctx, tableStmt); err == nil {
				tables := make([]string, 0, len(tableRows))
				for _, tr := range tableRows {
					tables = append(tables, tr["name"])
				}
				structure.Schemas[schema] = domain.SchemaStructure{
					Tables:     tables,
					TableCount: len(tables),
				}
				structure.TotalTables += len(tables)
				continue
			}
		}
		s.log.Warn("skipping unreadable schema", "database", database, "schema", schema, "error", err)
	}

	s.log.Info("source discovered",
		"database", database,
		"schemas", len(structure.Schemas),
		"tables", structure.TotalTables)
	return structure, nil
}
