package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one snapshot comparison.
type Status string

const (
	StatusMatched  Status = "matched"
	StatusMismatch Status = "mismatch"
	StatusMissing  Status = "missing"
	StatusAccepted Status = "accepted"
	StatusFailed   Status = "failed"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run groups the results recorded by one process.
type Run struct {
	ID        string
	Root      string
	StartedAt time.Time
}

// Result is one recorded comparison.
type Result struct {
	ID         int64
	RunID      string
	Test       string
	File       string
	Status     Status
	Detail     string
	RecordedAt time.Time
}

// Ledger records runs and results.
type Ledger struct {
	db  *DB
	now func() time.Time
}

// NewLedger creates a ledger over db.
func NewLedger(db *DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// StartRun inserts a new run with a random ID.
func (l *Ledger) StartRun(root string) (*Run, error) {
	run := &Run{ID: uuid.NewString(), Root: root, StartedAt: l.now().UTC()}
	_, err := l.db.conn.Exec(
		`INSERT INTO runs (run_id, root, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Root, run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

// Record inserts r, filling its ID and RecordedAt.
func (l *Ledger) Record(r *Result) error {
	if r.RecordedAt.IsZero() {
		r.RecordedAt = l.now().UTC()
	}
	res, err := l.db.conn.Exec(`
		INSERT INTO results (run_id, test_name, file, status, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Test, r.File, string(r.Status), r.Detail, r.RecordedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	r.ID, err = res.LastInsertId()
	return err
}

// Recent lists the newest results first, optionally filtered by status.
func (l *Ledger) Recent(limit int, statuses ...Status) ([]*Result, error) {
	query := `SELECT id, run_id, test_name, file, status, detail, recorded_at FROM results`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (?` + strings.Repeat(`, ?`, len(statuses)-1) + `)`
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return l.query(query, args...)
}

// RunResults lists a run's results in recording order.
func (l *Ledger) RunResults(runID string) ([]*Result, error) {
	return l.query(`
		SELECT id, run_id, test_name, file, status, detail, recorded_at
		FROM results WHERE run_id = ? ORDER BY id
	`, runID)
}

// Prune deletes runs started before cutoff together with their results.
func (l *Ledger) Prune(cutoff time.Time) (int64, error) {
	var removed int64
	err := l.db.WithTx(func(tx *sql.Tx) error {
		ts := cutoff.UTC().Format(timeLayout)
		if _, err := tx.Exec(`
			DELETE FROM results WHERE run_id IN (SELECT run_id FROM runs WHERE started_at < ?)
		`, ts); err != nil {
			return err
		}
		res, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, ts)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune ledger: %w", err)
	}
	return removed, nil
}

func (l *Ledger) query(query string, args ...any) ([]*Result, error) {
	rows, err := l.db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		var r Result
		var status, recordedAt string
		if err := rows.Scan(&r.ID, &r.RunID, &r.Test, &r.File, &status, &r.Detail, &recordedAt); err != nil {
			return nil, err
		}
		r.Status = Status(status)
		if r.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
			return nil, fmt.Errorf("bad recorded_at %q: %w", recordedAt, err)
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}
