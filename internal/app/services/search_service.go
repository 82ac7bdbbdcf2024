package services

import (
	"context"
	"strings"

	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/app/search"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
)

// SearchService searches the posts of one forum through the configured adapter
type SearchService struct {
	adapter search.Adapter
	policy  *auth.AccessPolicy
	opts    Options
}

// NewSearchService creates a new SearchService
func NewSearchService(adapter search.Adapter, policy *auth.AccessPolicy, opts Options) *SearchService {
	return &SearchService{
		adapter: adapter,
		policy:  policy,
		opts:    opts.withDefaults(),
	}
}

// Search runs term against the forum. An unavailable backend is not an
// error; the result just says so.
func (s *SearchService) Search(ctx context.Context, forum *models.Forum, principal models.Principal, term string, page Page) (search.Result, Page, error) {
	if err := s.policy.Authorize(forum, principal); err != nil {
		return search.Result{}, page, err
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return search.Result{}, page, apperrors.NewValidationError("term", "term is required")
	}

	page = s.opts.page(page)
	return s.adapter.Query(ctx, forum.ID, term, page.Offset(), page.Size), page, nil
}
