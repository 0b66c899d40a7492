package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/flowdesk/internal/database/repository"
	"github.com/jask/flowdesk/internal/fixtures"
	"github.com/jask/flowdesk/internal/workflow"
)

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, RunMigrations(dbPath))
	require.NoError(t, RunMigrations(dbPath))
}

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, RunMigrations(dbPath))
	db, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fx := fixtures.Default()
	require.NoError(t, SeedDefaults(ctx, db, fx))

	nodes, err := repository.NewNodeRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, len(fx.Nodes))

	snap, err := repository.NewCatalogRepo(db).Load(ctx)
	require.NoError(t, err)
	require.Equal(t, repository.SourceFixture, snap.Source)
	require.Len(t, snap.Definitions, len(fx.Definitions))

	// existing data is left alone
	require.NoError(t, repository.NewNodeRepo(db).ReplaceAll(ctx, []workflow.Node{{ID: "z", Name: "z", Kind: workflow.KindWorkflow}}))
	require.NoError(t, SeedDefaults(ctx, db, fx))
	nodes, err = repository.NewNodeRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}
