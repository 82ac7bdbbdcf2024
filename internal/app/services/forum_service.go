package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/app/repositories"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
	"github.com/yigit/uniforum/internal/pkg/validation"
)

// maxForumDepth bounds the breadcrumb walk
const maxForumDepth = 64

// ForumService exposes the forum tree
type ForumService struct {
	store  repositories.Store
	policy *auth.AccessPolicy
	logger zerolog.Logger
}

// NewForumService creates a new ForumService
func NewForumService(store repositories.Store, policy *auth.AccessPolicy, logger zerolog.Logger) *ForumService {
	return &ForumService{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// RootForums lists the visible top-level forums
func (s *ForumService) RootForums(ctx context.Context, principal models.Principal) ([]*models.Forum, error) {
	forums, err := s.store.Forums().ListChildren(ctx, nil, principal)
	if err != nil {
		return nil, fmt.Errorf("error listing root forums: %w", err)
	}
	return forums, nil
}

// GetBySlug returns the forum when the principal may view it. Hidden and
// missing forums both fail; the HTTP layer renders them identically.
func (s *ForumService) GetBySlug(ctx context.Context, slug string, principal models.Principal) (*models.Forum, error) {
	forum, err := s.store.Forums().GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(forum, principal); err != nil {
		return nil, err
	}
	return forum, nil
}

// ChildrenOf lists the visible sub-forums of forum
func (s *ForumService) ChildrenOf(ctx context.Context, forum *models.Forum, principal models.Principal) ([]*models.Forum, error) {
	if err := s.policy.Authorize(forum, principal); err != nil {
		return nil, err
	}
	forums, err := s.store.Forums().ListChildren(ctx, &forum.ID, principal)
	if err != nil {
		return nil, fmt.Errorf("error listing sub-forums of %q: %w", forum.Slug, err)
	}
	return forums, nil
}

// Breadcrumbs returns the visible ancestors of forum, root first
func (s *ForumService) Breadcrumbs(ctx context.Context, forum *models.Forum, principal models.Principal) ([]*models.Forum, error) {
	crumbs := []*models.Forum{}
	seen := map[int64]struct{}{forum.ID: {}}

	parentID := forum.ParentID
	for depth := 0; parentID != nil && depth < maxForumDepth; depth++ {
		if _, loop := seen[*parentID]; loop {
			s.logger.Warn().Int64("forumID", forum.ID).Msg("Forum ancestry contains a cycle")
			break
		}
		seen[*parentID] = struct{}{}

		parent, err := s.store.Forums().GetByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("error loading parent forum: %w", err)
		}
		if s.policy.CanView(parent, principal) {
			crumbs = append(crumbs, parent)
		}
		parentID = parent.ParentID
	}

	for i, j := 0, len(crumbs)-1; i < j; i, j = i+1, j-1 {
		crumbs[i], crumbs[j] = crumbs[j], crumbs[i]
	}
	return crumbs, nil
}

// NewForum describes a forum created by staff
type NewForum struct {
	Title         string
	Slug          string
	Description   string
	ParentSlug    string
	Ordering      int
	AllowedUsers  []int64
	AllowedGroups []int64
}

// CreateForum adds a forum to the tree. Staff only.
func (s *ForumService) CreateForum(ctx context.Context, principal models.Principal, input NewForum) (*models.Forum, error) {
	if err := s.policy.RequireStaff(principal); err != nil {
		return nil, err
	}

	if msg := validation.NewStringValidation("title", input.Title).
		WithMaxLength(validation.TitleMaxLength).Check(); msg != "" {
		return nil, apperrors.NewValidationError("title", msg)
	}
	if msg := validation.NewStringValidation("slug", input.Slug).
		WithMaxLength(validation.SlugMaxLength).
		WithPattern(validation.CompiledPatterns.Slug).Check(); msg != "" {
		return nil, apperrors.NewValidationError("slug", msg)
	}
	if err := validateAccessLists(input.AllowedUsers, input.AllowedGroups); err != nil {
		return nil, err
	}

	forum := &models.Forum{
		Title:         strings.TrimSpace(input.Title),
		Slug:          strings.TrimSpace(input.Slug),
		Description:   strings.TrimSpace(input.Description),
		Ordering:      input.Ordering,
		AllowedUsers:  input.AllowedUsers,
		AllowedGroups: input.AllowedGroups,
	}

	if input.ParentSlug != "" {
		parent, err := s.store.Forums().GetBySlug(ctx, input.ParentSlug)
		if err != nil {
			return nil, err
		}
		forum.ParentID = &parent.ID
	}

	if err := s.store.Forums().Create(ctx, forum); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("forumID", forum.ID).
		Str("slug", forum.Slug).
		Int64("staffID", principal.ID()).
		Msg("Forum created")
	return forum, nil
}

// SetForumAccess replaces the allowed users and groups of a forum. Staff only.
func (s *ForumService) SetForumAccess(ctx context.Context, principal models.Principal, slug string, users, groups []int64) (*models.Forum, error) {
	if err := s.policy.RequireStaff(principal); err != nil {
		return nil, err
	}
	if err := validateAccessLists(users, groups); err != nil {
		return nil, err
	}

	forum, err := s.store.Forums().GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		return tx.Forums().SetAccess(ctx, forum.ID, users, groups)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating access of forum %q: %w", slug, err)
	}

	s.logger.Info().
		Int64("forumID", forum.ID).
		Int("users", len(users)).
		Int("groups", len(groups)).
		Msg("Forum access updated")
	return s.store.Forums().GetByID(ctx, forum.ID)
}

func validateAccessLists(users, groups []int64) error {
	if msg := validation.NewIDListValidation("allowedUsers", users).Check(); msg != "" {
		return apperrors.NewValidationError("allowedUsers", msg)
	}
	if msg := validation.NewIDListValidation("allowedGroups", groups).Check(); msg != "" {
		return apperrors.NewValidationError("allowedGroups", msg)
	}
	return nil
}
