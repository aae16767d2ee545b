package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"palestra/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// tables maps entity kinds to the table holding them for existence checks.
var tables = map[core.Kind]string{
	core.KindMember:         "members",
	core.KindMemberProgress: "member_progress",
	core.KindTrainer:        "trainers",
	core.KindMembershipType: "membership_types",
	core.KindMembership:     "memberships",
	core.KindClass:          "classes",
	core.KindAttendance:     "class_attendance",
	core.KindPayment:        "payments",
}

type SQLiteRepository struct {
	db *sql.DB
}

// DSN builds the connection string for a database file with foreign keys
// enforced on every connection.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection. Used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Exists reports whether a row of the given kind has the given id.
func (r *SQLiteRepository) Exists(ctx context.Context, kind core.Kind, id int64) (bool, error) {
	table, ok := tables[kind]
	if !ok {
		return false, fmt.Errorf("exists: unknown entity kind %q", kind)
	}
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s %d: %w", table, id, err)
	}
	return true, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryAll runs a query and scans every row with scan.
func queryAll[T any](ctx context.Context, db *sql.DB, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// notFound returns a bare NotFoundError for sql.ErrNoRows so callers see
// "Member with id 7 not found"; any other error is wrapped with op.
func notFound(op string, err error, kind core.Kind, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewNotFound(kind, id)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// translate maps store constraint failures onto the domain error taxonomy,
// keeping the store's message.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if isConstraintViolation(err) || isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", core.ErrConstraint, err)
	}
	return err
}

// timestamp scans RFC 3339 text into a time.Time.
type timestamp struct{ dst *time.Time }

func (t timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t.dst = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("scan timestamp: unsupported type %T", src)
}

func (t timestamp) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// sqlite's CURRENT_TIMESTAMP format
		parsed, err = time.Parse(time.DateTime, s)
		if err != nil {
			return fmt.Errorf("scan timestamp %q: %w", s, err)
		}
	}
	*t.dst = parsed.UTC()
	return nil
}

// nullTimestamp scans a nullable timestamp column.
type nullTimestamp struct{ dst **time.Time }

func (t nullTimestamp) Scan(src any) error {
	if src == nil {
		*t.dst = nil
		return nil
	}
	var v time.Time
	if err := (timestamp{&v}).Scan(src); err != nil {
		return err
	}
	*t.dst = &v
	return nil
}

func formatTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func logCreated(ctx context.Context, what string, id int64, args ...any) {
	slog.InfoContext(ctx, what+" saved to SQLite", append([]any{"id", id}, args...)...)
}
