package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"snowclone/internal/config"
	"snowclone/internal/domain"
)

const pingTimeout = 30 * time.Second

// Session is a single connection to the warehouse. The pool is pinned to one
// connection so instructions run strictly in the order they are issued.
type Session struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSession wraps an already-open pool. Used by Open and by tests that
// inject a mock pool.
func NewSession(db *sql.DB, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{db: db, log: logger}
}

// Open connects to the warehouse described by the profile and verifies the
// connection with a ping before returning.
func Open(ctx context.Context, profile config.ConnectionProfile, logger *slog.Logger) (*Session, error) {
	sfCfg := &gosnowflake.Config{
		Account:   profile.Account,
		User:      profile.User,
		Password:  profile.Password,
		Warehouse: profile.Warehouse,
		Database:  profile.Database,
		Schema:    profile.Schema,
		Role:      profile.Role,
	}

	switch strings.ToLower(profile.Authenticator) {
	case "", "snowflake":
		if profile.Password == "" {
			return nil, domain.ErrConfig("snowflake.password is required for password authentication (set SNOWFLAKE_PASSWORD or snowflake.password)")
		}
	case "externalbrowser":
		sfCfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
	default:
		return nil, domain.ErrConfig("unsupported authenticator %q: use \"snowflake\" or \"externalbrowser\"", profile.Authenticator)
	}

	dsn, err := gosnowflake.DSN(sfCfg)
	if err != nil {
		return nil, fmt.Errorf("build warehouse DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}

	return NewSession(db, logger), nil
}

// Close releases the underlying connection.
func (s *Session) Close() error {
	return s.db.Close()
}

// Execute runs one instruction and returns every result row with column names
// lower-cased. DDL instructions return the warehouse's status rows.
func (s *Session) Execute(ctx context.Context, instruction string) ([]domain.Row, error) {
	s.log.Debug("executing instruction", "instruction", instruction)

	rows, err := s.db.QueryContext(ctx, instruction)
	if err != nil {
		return nil, fmt.Errorf("execute instruction: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]domain.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = strings.ToLower(c)
	}

	var out []domain.Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		for i := range values {
			values[i] = new(interface{})
		}
		if err := rows.Scan(values...); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		row := make(domain.Row, len(cols))
		for i, v := range values {
			row[names[i]] = formatValue(*(v.(*interface{})))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return out, nil
}

// formatValue renders a scanned value as the string form the rest of the
// system works with. SHOW and DESCRIBE output is textual anyway; timestamps
// keep RFC 3339 so they stay sortable.
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
