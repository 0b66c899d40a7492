package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jask/flowdesk/internal/database"
	"github.com/jask/flowdesk/internal/database/repository"
	"github.com/jask/flowdesk/internal/fixtures"
	"github.com/jask/flowdesk/internal/mutation"
	"github.com/jask/flowdesk/internal/workflow"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type feedFunc func(ctx context.Context) ([]mutation.Definition, error)

func (f feedFunc) Introspect(ctx context.Context) ([]mutation.Definition, error) { return f(ctx) }

var fixedNow = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestCatalogRefreshStoresSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewCatalogRepo(openDB(t))
	defs := fixtures.Default().Definitions

	svc := &CatalogService{
		Feed:      feedFunc(func(context.Context) ([]mutation.Definition, error) { return defs, nil }),
		Snapshots: repo,
		Log:       zerolog.Nop(),
		Now:       fixedNow,
	}
	st, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.False(t, st.Stale())
	require.Equal(t, repository.SourceIntrospection, st.Source)
	require.Equal(t, len(defs), st.Catalog.Len())

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, defs, snap.Definitions)

	// the next refresh fails and falls back to what was stored
	boom := errors.New("connection refused")
	svc.Feed = feedFunc(func(context.Context) ([]mutation.Definition, error) { return nil, boom })
	st, err = svc.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, st.Stale())
	require.ErrorIs(t, st.FetchErr, boom)
	require.Equal(t, len(defs), st.Catalog.Len())
	require.True(t, fixedNow().Equal(st.FetchedAt))
}

func TestCatalogRefreshWithoutSnapshotIsEmpty(t *testing.T) {
	t.Parallel()
	svc := &CatalogService{Snapshots: repository.NewCatalogRepo(openDB(t)), Log: zerolog.Nop()}
	st, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, SourceEmpty, st.Source)
	require.Zero(t, st.Catalog.Len())
	require.Empty(t, st.Catalog.List())
	require.True(t, st.Stale())
}

func TestCatalogRefreshRejectsInvalidFeed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := repository.NewCatalogRepo(openDB(t))
	svc := &CatalogService{
		Feed: feedFunc(func(context.Context) ([]mutation.Definition, error) {
			return []mutation.Definition{{Name: "a"}, {Name: "a"}}, nil
		}),
		Snapshots: repo,
		Log:       zerolog.Nop(),
	}
	st, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.True(t, st.Stale())
	_, err = repo.Load(ctx)
	require.ErrorIs(t, err, repository.ErrNoSnapshot)
}

func TestTreeSeedAndLoad(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := &TreeService{Nodes: repository.NewNodeRepo(openDB(t))}

	empty, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Zero(t, empty.Len())

	fx := fixtures.Default()
	_, err = svc.Seed(ctx, fx.Nodes)
	require.NoError(t, err)

	tree, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, fx.Tree.Len(), tree.Len())
	var names []string
	for _, r := range tree.Rows() {
		names = append(names, r.Node.Name)
	}
	var want []string
	for _, r := range fx.Tree.Rows() {
		want = append(want, r.Node.Name)
	}
	require.Equal(t, want, names)

	_, err = svc.Seed(ctx, []workflow.Node{{ID: "x", ParentID: "missing", Kind: workflow.KindTask}})
	require.ErrorIs(t, err, workflow.ErrInvalidTree)
	tree, err = svc.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, fx.Tree.Len(), tree.Len(), "invalid seed leaves the stored tree alone")
}

func TestMutationServiceAuditsAttempts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	audit := repository.NewMutationLogRepo(openDB(t))
	def := &mutation.Definition{Name: "hold"}
	node := workflow.Ref{ID: "~user/one//1/BAD", Name: "BAD", Kind: workflow.KindFamily}

	fail := true
	svc := &MutationService{
		Remote: mutation.ExecutorFunc(func(ctx context.Context, call mutation.Call) (mutation.Result, error) {
			if fail {
				return mutation.Result{}, &mutation.SubmissionError{Code: "rejected", Message: "nope"}
			}
			return mutation.Result{Message: "ok"}, nil
		}),
		Audit: audit,
		Log:   zerolog.Nop(),
		Now:   fixedNow,
	}

	_, err := svc.Execute(ctx, mutation.Call{Definition: def, Node: node, Args: mutation.Snapshot{"tasks": "secret-value"}})
	require.Error(t, err)
	fail = false
	res, err := svc.Execute(ctx, mutation.Call{Definition: def, Node: node})
	require.NoError(t, err)
	require.Equal(t, "ok", res.Message)

	entries, err := audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	statuses := map[string]string{}
	for _, e := range entries {
		require.Equal(t, "hold", e.Mutation)
		require.Equal(t, node.ID, e.NodeID)
		require.Equal(t, "family", e.NodeKind)
		require.NotContains(t, e.Error, "secret-value")
		statuses[e.Status] = e.Error
	}
	require.Equal(t, "nope (rejected)", statuses[repository.LogFailed])
	require.Contains(t, statuses, repository.LogSucceeded)
}

func TestMutationServiceRecordsPanics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	audit := repository.NewMutationLogRepo(openDB(t))
	svc := &MutationService{
		Remote: mutation.ExecutorFunc(func(context.Context, mutation.Call) (mutation.Result, error) { panic("boom") }),
		Audit:  audit,
		Log:    zerolog.Nop(),
	}
	req := mutation.Request{Token: 1, Attempt: 1, Call: mutation.Call{Definition: &mutation.Definition{Name: "pause"}}}
	resp := mutation.Perform(ctx, svc, req)
	require.Equal(t, "panic", mutation.AsSubmissionError(resp.Err).Code)

	entries, err := audit.Recent(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, repository.LogFailed, entries[0].Status)
	require.Equal(t, "panic: boom", entries[0].Error)
}

func TestMaintenance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)
	require.NoError(t, database.SeedDefaults(ctx, db, fixtures.Default()))
	audit := repository.NewMutationLogRepo(db)
	old := fixedNow().Add(-48 * time.Hour)
	require.NoError(t, audit.Begin(ctx, repository.LogEntry{ID: "old", Mutation: "hold", NodeID: "n", NodeKind: "task", StartedAt: old}))
	require.NoError(t, audit.Finish(ctx, "old", repository.LogSucceeded, "", old))
	require.NoError(t, audit.Begin(ctx, repository.LogEntry{ID: "new", Mutation: "hold", NodeID: "n", NodeKind: "task", StartedAt: fixedNow()}))

	svc := &MaintenanceService{DB: db}
	n, err := svc.PruneLog(ctx, fixedNow().Add(-time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, svc.Reset(ctx))
	entries, err := audit.Recent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, entries)
	_, err = repository.NewCatalogRepo(db).Load(ctx)
	require.ErrorIs(t, err, repository.ErrNoSnapshot)
}
