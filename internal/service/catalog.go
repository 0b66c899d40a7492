package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/flowdesk/internal/database/repository"
	"github.com/jask/flowdesk/internal/mutation"
)

// Introspector supplies mutation definitions from the server.
type Introspector interface {
	Introspect(ctx context.Context) ([]mutation.Definition, error)
}

// Catalog sources beyond the stored ones.
const SourceEmpty = "empty"

// CatalogState is the outcome of a refresh. FetchErr is set when the feed
// failed and an older snapshot (or nothing) is in use.
type CatalogState struct {
	Catalog   *mutation.Catalog
	Source    string
	FetchedAt time.Time
	FetchErr  error
}

// Stale reports whether the catalog did not come from a successful fetch.
func (s CatalogState) Stale() bool { return s.FetchErr != nil }

// CatalogService refreshes the mutation catalog. The stored snapshot is
// replaced wholesale; it is never merged.
type CatalogService struct {
	Feed      Introspector
	Snapshots *repository.CatalogRepo
	Log       zerolog.Logger
	Now       func() time.Time
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Refresh fetches the catalog, falling back to the stored snapshot and then
// to an empty catalog. Only storage failures are returned as errors.
func (s *CatalogService) Refresh(ctx context.Context) (CatalogState, error) {
	fetchErr := errors.New("catalog: no feed configured")
	if s.Feed != nil {
		cat, defs, err := s.fetch(ctx)
		if err == nil {
			at := s.now()
			if err := s.Snapshots.Replace(ctx, repository.CatalogSnapshot{
				Source:      repository.SourceIntrospection,
				FetchedAt:   at,
				Definitions: defs,
			}); err != nil {
				s.Log.Warn().Err(err).Msg("catalog snapshot not stored")
			}
			s.Log.Info().Int("mutations", cat.Len()).Msg("catalog refreshed")
			return CatalogState{Catalog: cat, Source: repository.SourceIntrospection, FetchedAt: at}, nil
		}
		fetchErr = err
		s.Log.Warn().Err(err).Msg("catalog fetch failed, using stored snapshot")
	}

	snap, err := s.Snapshots.Load(ctx)
	if errors.Is(err, repository.ErrNoSnapshot) {
		return CatalogState{Catalog: mutation.EmptyCatalog(), Source: SourceEmpty, FetchErr: fetchErr}, nil
	}
	if err != nil {
		return CatalogState{}, fmt.Errorf("load catalog snapshot: %w", err)
	}
	cat, err := mutation.NewCatalog(snap.Definitions)
	if err != nil {
		s.Log.Error().Err(err).Msg("stored catalog snapshot is invalid")
		return CatalogState{Catalog: mutation.EmptyCatalog(), Source: SourceEmpty, FetchErr: fetchErr}, nil
	}
	return CatalogState{Catalog: cat, Source: snap.Source, FetchedAt: snap.FetchedAt, FetchErr: fetchErr}, nil
}

func (s *CatalogService) fetch(ctx context.Context) (*mutation.Catalog, []mutation.Definition, error) {
	defs, err := s.Feed.Introspect(ctx)
	if err != nil {
		return nil, nil, err
	}
	cat, err := mutation.NewCatalog(defs)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}
	return cat, defs, nil
}
