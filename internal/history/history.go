// Package history records diff runs in a SQLite database so release
// tooling can see how the API moved over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"apidiff/internal/breaking"
	"apidiff/internal/errors"
)

// FileName is the default database name inside the project directory.
const FileName = "history.db"

const (
	defaultLimit = 20
	maxLimit     = 500
)

// Run is one recorded comparison.
type Run struct {
	ID           string
	CreatedAt    time.Time
	OldPath      string
	NewPath      string
	Total        int
	Breaking     int
	NonBreaking  int
	Unknown      int
	Waived       int
	SemverAdvice string
	Duration     time.Duration
	ToolVersion  string
}

// NewRun builds a run from a summary. ID and CreatedAt are assigned by
// Record.
func NewRun(oldPath, newPath string, s *breaking.Summary) *Run {
	r := &Run{OldPath: oldPath, NewPath: newPath}
	if s != nil {
		r.Total = s.TotalChanges
		r.Breaking = s.Breaking
		r.NonBreaking = s.NonBreaking
		r.Unknown = s.Unknown
		r.Waived = s.Waived
		r.SemverAdvice = s.SemverAdvice
	}
	return r
}

// Store is the run history database.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
	path   string
}

// Open opens or creates the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, storageError("failed to create history directory", err, path)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageError("failed to open history database", err, path)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, storageError("failed to set pragma", err, path)
		}
	}

	s := &Store{conn: conn, logger: logger, path: path}
	if err := s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, storageError("failed to initialize history schema", err, path)
	}
	logger.Debug("History database opened", "path", path)
	return s, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			old_path TEXT NOT NULL,
			new_path TEXT NOT NULL,
			total INTEGER NOT NULL,
			breaking INTEGER NOT NULL,
			non_breaking INTEGER NOT NULL,
			unknown INTEGER NOT NULL,
			waived INTEGER NOT NULL,
			semver_advice TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			tool_version TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Record inserts r, assigning an ID and timestamp when unset.
func (s *Store) Record(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, old_path, new_path, total, breaking, non_breaking, unknown, waived, semver_advice, duration_ms, tool_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.OldPath,
		r.NewPath,
		r.Total,
		r.Breaking,
		r.NonBreaking,
		r.Unknown,
		r.Waived,
		r.SemverAdvice,
		r.Duration.Milliseconds(),
		r.ToolVersion,
	)
	if err != nil {
		return storageError("failed to record run", err, s.path)
	}
	s.logger.Debug("Recorded run", "runId", r.ID, "breaking", r.Breaking)
	return nil
}

// List returns up to limit runs, newest first. limit <= 0 means 20.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, created_at, old_path, new_path, total, breaking, non_breaking, unknown, waived, semver_advice, duration_ms, tool_version
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, storageError("failed to list runs", err, s.path)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, storageError("failed to read run", err, s.path)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("failed to list runs", err, s.path)
	}
	return runs, nil
}

// Get returns the run with id, or nil when there is none.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, created_at, old_path, new_path, total, breaking, non_breaking, unknown, waived, semver_advice, duration_ms, tool_version
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("failed to read run", err, s.path)
	}
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		r          Run
		createdAt  string
		durationMs int64
		tool       sql.NullString
	)
	if err := row.Scan(&r.ID, &createdAt, &r.OldPath, &r.NewPath, &r.Total, &r.Breaking, &r.NonBreaking,
		&r.Unknown, &r.Waived, &r.SemverAdvice, &durationMs, &tool); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	r.CreatedAt = t
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.ToolVersion = tool.String
	return &r, nil
}

func storageError(msg string, err error, path string) error {
	return errors.New(errors.StorageFailure, msg, err).WithPath(path)
}
