package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jask/flowdesk/internal/database/repository"
	"github.com/jask/flowdesk/internal/fixtures"
)

// SeedDefaults stores the fixture's tree and catalog when the database has
// neither. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, fx *fixtures.Fixture) error {
	nodes := repository.NewNodeRepo(db)
	existing, err := nodes.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		if err := nodes.ReplaceAll(ctx, fx.Nodes); err != nil {
			return err
		}
	}
	catalog := repository.NewCatalogRepo(db)
	_, err = catalog.Load(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNoSnapshot) {
		return err
	}
	return catalog.Replace(ctx, repository.CatalogSnapshot{
		Source:      repository.SourceFixture,
		FetchedAt:   Now(),
		Definitions: fx.Definitions,
	})
}
