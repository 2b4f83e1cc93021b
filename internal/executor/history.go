package executor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// History is the sqlite-backed attempt ledger behind the retry policy.
// It survives restarts so a task that keeps failing identically does not
// burn a computation every poll cycle forever.
type History struct {
	db *sql.DB
}

// AttemptRecord is the stored state for one task account.
type AttemptRecord struct {
	Account      string
	TaskID       uint64
	Attempts     int
	LastError    string
	DeadLettered bool
	NextEligible time.Time
}

// OpenHistory creates or opens the attempt database.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("executor: open history db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("executor: connect history db: %w", err)
	}

	// sqlite supports one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executor: apply pragma: %w", err)
		}
	}

	const ddl = `
CREATE TABLE IF NOT EXISTS task_attempts (
	account TEXT PRIMARY KEY,
	task_id INTEGER NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	last_error TEXT NOT NULL DEFAULT '',
	dead_lettered INTEGER NOT NULL DEFAULT 0,
	next_eligible_unix_ms INTEGER NOT NULL DEFAULT 0,
	run_id TEXT NOT NULL DEFAULT '',
	updated_at_unix_ms INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS completions (
	account TEXT PRIMARY KEY,
	task_id INTEGER NOT NULL,
	signature TEXT NOT NULL,
	proof_hex TEXT NOT NULL,
	run_id TEXT NOT NULL DEFAULT '',
	completed_at_unix_ms INTEGER NOT NULL
);`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("executor: init history schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

// Get returns the attempt record for an account, or a zero record if none
// exists.
func (h *History) Get(ctx context.Context, account string) (AttemptRecord, error) {
	rec := AttemptRecord{Account: account}
	var deadLettered int
	var nextEligibleMS int64
	err := h.db.QueryRowContext(ctx,
		`SELECT task_id, attempts, last_error, dead_lettered, next_eligible_unix_ms
		 FROM task_attempts WHERE account = ?`, account,
	).Scan(&rec.TaskID, &rec.Attempts, &rec.LastError, &deadLettered, &nextEligibleMS)
	if err == sql.ErrNoRows {
		return rec, nil
	}
	if err != nil {
		return rec, fmt.Errorf("executor: read attempts for %s: %w", account, err)
	}
	rec.DeadLettered = deadLettered != 0
	if nextEligibleMS > 0 {
		rec.NextEligible = time.UnixMilli(nextEligibleMS).UTC()
	}
	return rec, nil
}

// RecordFailure bumps the attempt counter and sets the next-eligible
// time. It returns the updated attempt count.
func (h *History) RecordFailure(ctx context.Context, account string, taskID uint64, lastError, runID string, nextEligible time.Time) (int, error) {
	now := time.Now().UTC().UnixMilli()
	_, err := h.db.ExecContext(ctx, `
INSERT INTO task_attempts (account, task_id, attempts, last_error, next_eligible_unix_ms, run_id, updated_at_unix_ms)
VALUES (?, ?, 1, ?, ?, ?, ?)
ON CONFLICT(account) DO UPDATE SET
	attempts = attempts + 1,
	last_error = excluded.last_error,
	next_eligible_unix_ms = excluded.next_eligible_unix_ms,
	run_id = excluded.run_id,
	updated_at_unix_ms = excluded.updated_at_unix_ms`,
		account, taskID, lastError, nextEligible.UnixMilli(), runID, now)
	if err != nil {
		return 0, fmt.Errorf("executor: record failure for %s: %w", account, err)
	}

	var attempts int
	if err := h.db.QueryRowContext(ctx,
		`SELECT attempts FROM task_attempts WHERE account = ?`, account,
	).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("executor: read attempts for %s: %w", account, err)
	}
	return attempts, nil
}

// DeadLetter marks an account as exhausted; Get reports it until an
// operator clears the row.
func (h *History) DeadLetter(ctx context.Context, account, reason string) error {
	now := time.Now().UTC().UnixMilli()
	_, err := h.db.ExecContext(ctx, `
UPDATE task_attempts SET dead_lettered = 1, last_error = ?, updated_at_unix_ms = ?
WHERE account = ?`, reason, now, account)
	if err != nil {
		return fmt.Errorf("executor: dead-letter %s: %w", account, err)
	}
	return nil
}

// RecordCompletion stores the successful submission and clears any
// attempt state for the account.
func (h *History) RecordCompletion(ctx context.Context, account string, taskID uint64, signature, proofHex, runID string) error {
	now := time.Now().UTC().UnixMilli()
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("executor: begin completion tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO completions (account, task_id, signature, proof_hex, run_id, completed_at_unix_ms)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(account) DO UPDATE SET
	signature = excluded.signature,
	proof_hex = excluded.proof_hex,
	run_id = excluded.run_id,
	completed_at_unix_ms = excluded.completed_at_unix_ms`,
		account, taskID, signature, proofHex, runID, now); err != nil {
		return fmt.Errorf("executor: record completion for %s: %w", account, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM task_attempts WHERE account = ?`, account); err != nil {
		return fmt.Errorf("executor: clear attempts for %s: %w", account, err)
	}
	return tx.Commit()
}
