package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jask/flowdesk/internal/mutation"
	"github.com/jask/flowdesk/internal/workflow"
)

// CatalogRepo stores the last known mutation catalog.
type CatalogRepo struct{ db *sql.DB }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// Replace overwrites the stored snapshot.
func (r *CatalogRepo) Replace(ctx context.Context, snap CatalogSnapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM mutation_arguments`, `DELETE FROM mutation_definitions`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `
	INSERT INTO catalog_snapshot(id, source, fetched_at) VALUES (1, ?, ?)
	ON CONFLICT(id) DO UPDATE SET source=excluded.source, fetched_at=excluded.fetched_at
	`, snap.Source, snap.FetchedAt.UTC()); err != nil {
		return err
	}
	for i, d := range snap.Definitions {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO mutation_definitions(name, description, targets, position) VALUES (?, ?, ?, ?)
		`, d.Name, d.Description, joinKinds(d.Targets), i); err != nil {
			return err
		}
		for j, a := range d.Args {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO mutation_arguments(mutation_name, position, name, type, description, required, list, default_value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, d.Name, j, a.Name, a.Type, a.Description, a.Required, a.List, a.Default); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// Load returns the stored snapshot, or ErrNoSnapshot.
func (r *CatalogRepo) Load(ctx context.Context) (CatalogSnapshot, error) {
	var snap CatalogSnapshot
	err := r.db.QueryRowContext(ctx, `SELECT source, fetched_at FROM catalog_snapshot WHERE id = 1`).
		Scan(&snap.Source, &snap.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CatalogSnapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return CatalogSnapshot{}, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT name, description, targets FROM mutation_definitions ORDER BY position`)
	if err != nil {
		return CatalogSnapshot{}, err
	}
	index := map[string]int{}
	for rows.Next() {
		var d mutation.Definition
		var targets string
		if err := rows.Scan(&d.Name, &d.Description, &targets); err != nil {
			rows.Close()
			return CatalogSnapshot{}, err
		}
		d.Targets = splitKinds(targets)
		index[d.Name] = len(snap.Definitions)
		snap.Definitions = append(snap.Definitions, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return CatalogSnapshot{}, err
	}

	args, err := r.db.QueryContext(ctx, `
	SELECT mutation_name, name, type, description, required, list, default_value
	FROM mutation_arguments ORDER BY mutation_name, position
	`)
	if err != nil {
		return CatalogSnapshot{}, err
	}
	defer args.Close()
	for args.Next() {
		var owner string
		var a mutation.ArgumentSpec
		if err := args.Scan(&owner, &a.Name, &a.Type, &a.Description, &a.Required, &a.List, &a.Default); err != nil {
			return CatalogSnapshot{}, err
		}
		if i, ok := index[owner]; ok {
			snap.Definitions[i].Args = append(snap.Definitions[i].Args, a)
		}
	}
	return snap, args.Err()
}

func joinKinds(kinds []workflow.Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

func splitKinds(s string) []workflow.Kind {
	if s == "" {
		return nil
	}
	var out []workflow.Kind
	for _, p := range strings.Split(s, ",") {
		out = append(out, workflow.Kind(p))
	}
	return out
}
