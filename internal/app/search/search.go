// Package search holds the optional full-text search backends. A backend
// that is switched off or failing answers with Available=false instead of
// an error, so nothing else in the forum depends on it.
package search

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/app/repositories"
)

// Result is one page of search hits
type Result struct {
	Available bool
	Total     int64
	Hits      []*models.PostSummary
}

// Unavailable is the result reported when no backend can answer
func Unavailable() Result {
	return Result{Available: false, Hits: []*models.PostSummary{}}
}

// Adapter queries a search backend for posts of one forum
type Adapter interface {
	Query(ctx context.Context, forumID int64, term string, offset uint64, limit int) Result
}

// StoreAdapter searches through the post repository of the active store.
// With PostgreSQL this is the GIN-indexed full-text search.
type StoreAdapter struct {
	store  repositories.Store
	logger zerolog.Logger
}

// NewStoreAdapter creates a new StoreAdapter
func NewStoreAdapter(store repositories.Store, logger zerolog.Logger) *StoreAdapter {
	return &StoreAdapter{store: store, logger: logger}
}

// Query runs the search. Backend errors are logged and reported as unavailable.
func (a *StoreAdapter) Query(ctx context.Context, forumID int64, term string, offset uint64, limit int) Result {
	hits, total, err := a.store.Posts().Search(ctx, forumID, term, offset, limit)
	if err != nil {
		a.logger.Warn().Err(err).Int64("forumID", forumID).Msg("Search backend failed")
		return Unavailable()
	}
	return Result{Available: true, Total: total, Hits: hits}
}

// Disabled is used when search is switched off in the configuration
type Disabled struct{}

// Query always reports the backend as unavailable
func (Disabled) Query(context.Context, int64, string, uint64, int) Result {
	return Unavailable()
}
