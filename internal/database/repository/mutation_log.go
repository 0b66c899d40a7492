package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MutationLogRepo records submission attempts.
type MutationLogRepo struct{ db *sql.DB }

func NewMutationLogRepo(db *sql.DB) *MutationLogRepo { return &MutationLogRepo{db: db} }

// Begin inserts a pending entry.
func (r *MutationLogRepo) Begin(ctx context.Context, e LogEntry) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO mutation_log(id, mutation, node_id, node_kind, status, started_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Mutation, e.NodeID, e.NodeKind, LogPending, e.StartedAt.UTC())
	return err
}

// Finish moves a pending entry to its final status.
func (r *MutationLogRepo) Finish(ctx context.Context, id, status, errMsg string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE mutation_log SET status = ?, error = ?, finished_at = ?
	WHERE id = ? AND status = ?
	`, status, errMsg, at.UTC(), id, LogPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("mutation log %s: no pending entry", id)
	}
	return nil
}

// AbandonPending marks entries left pending by an earlier run.
func (r *MutationLogRepo) AbandonPending(ctx context.Context, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE mutation_log SET status = ?, finished_at = ? WHERE status = ?
	`, LogAbandoned, at.UTC(), LogPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Recent returns up to limit entries, newest first.
func (r *MutationLogRepo) Recent(ctx context.Context, limit int) ([]LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, mutation, node_id, node_kind, status, error, started_at, finished_at
	FROM mutation_log ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var finished sql.NullTime
		if err := rows.Scan(&e.ID, &e.Mutation, &e.NodeID, &e.NodeKind, &e.Status, &e.Error, &e.StartedAt, &finished); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			e.FinishedAt = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
