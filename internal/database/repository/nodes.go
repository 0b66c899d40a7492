package repository

import (
	"context"
	"database/sql"

	"github.com/jask/flowdesk/internal/workflow"
)

// NodeRepo caches the workflow tree.
type NodeRepo struct {
	db *sql.DB
}

func NewNodeRepo(db *sql.DB) *NodeRepo {
	return &NodeRepo{db: db}
}

// ReplaceAll swaps the stored tree for nodes in one transaction.
func (r *NodeRepo) ReplaceAll(ctx context.Context, nodes []workflow.Node) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO nodes(id, parent_id, name, kind, state, sort_order)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx, n.ID, n.ParentID, n.Name, string(n.Kind), n.State, n.SortOrder); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *NodeRepo) List(ctx context.Context) ([]workflow.Node, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, parent_id, name, kind, state, sort_order FROM nodes ORDER BY sort_order, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []workflow.Node
	for rows.Next() {
		var n workflow.Node
		var kind string
		if err := rows.Scan(&n.ID, &n.ParentID, &n.Name, &kind, &n.State, &n.SortOrder); err != nil {
			return nil, err
		}
		n.Kind = workflow.Kind(kind)
		out = append(out, n)
	}
	return out, rows.Err()
}
