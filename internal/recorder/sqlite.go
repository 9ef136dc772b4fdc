package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists claim and action history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the engine writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS claims (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			cycle_id       TEXT NOT NULL,
			status         TEXT NOT NULL,
			claimed        INTEGER,
			distributable  INTEGER,
			reference      TEXT,
			error          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_ts ON claims(timestamp)`,

		`CREATE TABLE IF NOT EXISTS allocation_actions (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			cycle_id        TEXT NOT NULL,
			source          TEXT,
			bucket          TEXT NOT NULL,
			status          TEXT NOT NULL,
			share           INTEGER,
			input           INTEGER,
			spent           INTEGER,
			leftover        INTEGER,
			asset           INTEGER,
			shares          INTEGER,
			recipient       TEXT,
			fallback        INTEGER,
			reason          TEXT,
			error_kind      TEXT,
			detail          TEXT,
			tx_refs         TEXT,
			stranded_asset  INTEGER,
			stranded_shares INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_cycle ON allocation_actions(cycle_id)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_ts ON allocation_actions(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordClaim(evt *ClaimEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO claims
		(timestamp, cycle_id, status, claimed, distributable, reference, error)
		VALUES (?,?,?,?,?,?,?)`,
		evt.At.Unix(), evt.CycleID, string(evt.Status),
		evt.Claimed, evt.Distributable, evt.Reference, evt.Error,
	)
	return err
}

// RecordActions writes all rows of one distribution in a single transaction.
func (r *SQLiteRecorder) RecordActions(evts []ActionEvent) error {
	if len(evts) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO allocation_actions
		(timestamp, cycle_id, source, bucket, status, share, input, spent, leftover,
		 asset, shares, recipient, fallback, reason, error_kind, detail, tx_refs,
		 stranded_asset, stranded_shares)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range evts {
		a := e.Result
		fallback := 0
		if a.Fallback {
			fallback = 1
		}
		if _, err := stmt.Exec(
			e.At.Unix(), e.CycleID, e.Source, string(a.Bucket), string(a.Status),
			a.Share, a.Input, a.Spent, a.Leftover,
			a.Asset, a.Shares, a.Recipient, fallback, a.Reason, string(a.ErrorKind), a.Detail,
			strings.Join(a.TxRefs, ","), a.Stranded.Asset, a.Stranded.Shares,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", a.Bucket, err)
		}
	}
	return tx.Commit()
}

// ActionCount returns the number of action rows recorded for a cycle.
func (r *SQLiteRecorder) ActionCount(cycleID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM allocation_actions WHERE cycle_id = ?`, cycleID).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
