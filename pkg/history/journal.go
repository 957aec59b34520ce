package history

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/antibyte/zen/pkg/configuration"
	"github.com/antibyte/zen/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Origins of a run.
const (
	OriginCLI       = "cli"
	OriginWatch     = "watch"
	OriginWebSocket = "ws"
)

// Run is one journal row.
type Run struct {
	ID          uuid.UUID
	Script      string // file name, or a session label for websocket runs
	Digest      string // blake2b-256 of the script text, hex
	Args        []string
	Origin      string
	StartedAt   time.Time
	Duration    time.Duration
	Steps       int64
	Jumps       int64
	Diagnostics int64
	Printed     int64
	Cancelled   bool
}

// Journal records runs. It is safe for concurrent use.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}
	if err := CreateTables(db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info(logger.AreaHistory, "Run journal opened at %s", path)
	return &Journal{db: db}, nil
}

// OpenConfigured opens the database named in [History] database.
func OpenConfigured() (*Journal, error) {
	return Open(configuration.GetString("History", "database", "zen_history.db"))
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Digest returns the hex blake2b-256 digest of a script.
func Digest(source []byte) string {
	sum := blake2b.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Record inserts run, assigning an ID when it has none.
func (j *Journal) Record(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Origin == "" {
		run.Origin = OriginCLI
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, script, digest, args, origin, started_at, duration_us,
			steps, jumps, diagnostics, printed, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Script, run.Digest, strings.Join(run.Args, " "), run.Origin,
		run.StartedAt.UnixMicro(), run.Duration.Microseconds(),
		run.Steps, run.Jumps, run.Diagnostics, run.Printed, boolToInt(run.Cancelled),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}

	logger.Debug(logger.AreaHistory, "Recorded run %s of %s (%d steps)", run.ID, run.Script, run.Steps)
	return nil
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, script, digest, args, origin, started_at, duration_us,
			steps, jumps, diagnostics, printed, cancelled
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			id, args   string
			startedAt  int64
			durationUs int64
			cancelled  int
		)
		if err := rows.Scan(&id, &run.Script, &run.Digest, &args, &run.Origin, &startedAt, &durationUs,
			&run.Steps, &run.Jumps, &run.Diagnostics, &run.Printed, &cancelled); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			logger.Warn(logger.AreaHistory, "Skipping run with malformed id %q: %v", id, err)
			continue
		}
		run.ID = parsed
		if args != "" {
			run.Args = strings.Split(args, " ")
		}
		run.StartedAt = time.UnixMicro(startedAt)
		run.Duration = time.Duration(durationUs) * time.Microsecond
		run.Cancelled = cancelled != 0
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
