// Package ledger records generation-run metadata (SPEC_FULL.md §4.1): an
// optional, local write-once log a fleet of cfuzzgen invocations can use
// to replay, deduplicate, or audit past runs by seed. It is the
// reproducibility/bookkeeping collaborator around C1-C7, never a
// participant in generation itself.
//
// Grounded on the teacher's multi-backend internal/database.DatabaseModule:
// one *sql.DB opened from a caller-supplied DSN, the same driver set
// blank-imported so mysql://, postgres:// and sqlserver:// DSNs resolve
// the same way they do there, plus sqlite3 as the zero-config default.
package ledger

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"cfuzzgen/internal/xerrors"
)

// Run is one recorded generation (SPEC_FULL.md §4.1): the inputs that
// determine its output byte-for-byte (seed, policy name) plus what that
// run produced (output directory, checksum, emitted file list) and when.
type Run struct {
	RunID     string
	Seed      uint64
	Policy    string
	OutDir    string
	Checksum  uint64
	Files     []string
	CreatedAt time.Time
}

// Ledger wraps the opened database handle. A nil *Ledger is a valid,
// inert no-op (spec.md §6.3's "--ledger="" short-circuits to a no-op",
// so callers never need to nil-check before calling Record).
type Ledger struct {
	db     *sql.DB
	driver string
}

// driverForDSN resolves dbType the same way the teacher's Connect switch
// does, from the DSN's scheme rather than an explicit --type flag, since
// cfuzzgen's CLI surface only takes one --ledger DSN flag (SPEC_FULL.md
// §6).
func driverForDSN(dsn string) string {
	switch {
	case strings.HasPrefix(dsn, "mysql://"):
		return "mysql"
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(dsn, "sqlserver://"):
		return "mssql"
	default:
		return "sqlite3"
	}
}

func trimScheme(dsn, driver string) string {
	if driver == "sqlite3" {
		return dsn
	}
	if i := strings.Index(dsn, "://"); i >= 0 {
		return dsn[i+3:]
	}
	return dsn
}

// Open connects to dsn and ensures the runs table exists. An empty dsn
// returns (nil, nil): the no-op ledger.
func Open(dsn string) (*Ledger, error) {
	if dsn == "" {
		return nil, nil
	}

	driver := driverForDSN(dsn)
	dataSource := dsn
	if driver == "mysql" {
		// go-sql-driver/mysql wants "user:pass@tcp(host:port)/db", not a URL.
		dataSource = trimScheme(dsn, driver)
	}

	db, err := sql.Open(driver, dataSource)
	if err != nil {
		return nil, xerrors.Emitf("opening ledger %s: %v", dsn, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, xerrors.Emitf("pinging ledger %s: %v", dsn, err)
	}

	l := &Ledger{db: db, driver: driver}
	if err := l.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) ensureSchema() error {
	_, err := l.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	seed       TEXT NOT NULL,
	policy     TEXT NOT NULL,
	out_dir    TEXT NOT NULL,
	checksum   TEXT NOT NULL,
	files      TEXT NOT NULL,
	created_at TEXT NOT NULL
)`)
	if err != nil {
		return xerrors.Emitf("creating ledger schema: %v", err)
	}
	return nil
}

// Close closes the underlying connection. A no-op on a nil *Ledger.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	return l.db.Close()
}

// Record inserts one row per run (SPEC_FULL.md §4.1). A no-op on a nil
// *Ledger.
func (l *Ledger) Record(r Run) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(
		`INSERT INTO runs (run_id, seed, policy, out_dir, checksum, files, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, fmt.Sprintf("%d", r.Seed), r.Policy, r.OutDir, fmt.Sprintf("%d", r.Checksum),
		strings.Join(r.Files, ","), r.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return xerrors.Emitf("recording run %s: %v", r.RunID, err)
	}
	return nil
}

// ByRunID looks up a past run by its correlation ID (SPEC_FULL.md §6
// "cfuzzgen replay --ledger DSN --run-id ID").
func (l *Ledger) ByRunID(runID string) (*Run, error) {
	if l == nil {
		return nil, xerrors.Emitf("ledger disabled: no run to look up for %s", runID)
	}
	row := l.db.QueryRow(
		`SELECT run_id, seed, policy, out_dir, checksum, files, created_at FROM runs WHERE run_id = ?`, runID)

	var r Run
	var seedStr, checksumStr, filesStr, createdStr string
	if err := row.Scan(&r.RunID, &seedStr, &r.Policy, &r.OutDir, &checksumStr, &filesStr, &createdStr); err != nil {
		return nil, xerrors.Emitf("looking up run %s: %v", runID, err)
	}
	if _, err := fmt.Sscanf(seedStr, "%d", &r.Seed); err != nil {
		return nil, xerrors.Emitf("parsing stored seed for run %s: %v", runID, err)
	}
	if _, err := fmt.Sscanf(checksumStr, "%d", &r.Checksum); err != nil {
		return nil, xerrors.Emitf("parsing stored checksum for run %s: %v", runID, err)
	}
	if filesStr != "" {
		r.Files = strings.Split(filesStr, ",")
	}
	createdAt, err := time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return nil, xerrors.Emitf("parsing stored timestamp for run %s: %v", runID, err)
	}
	r.CreatedAt = createdAt
	return &r, nil
}
