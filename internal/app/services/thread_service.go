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

// ThreadService handles thread listings and thread creation
type ThreadService struct {
	store         repositories.Store
	policy        *auth.AccessPolicy
	subscriptions *SubscriptionService
	opts          Options
	logger        zerolog.Logger
}

// NewThreadService creates a new ThreadService
func NewThreadService(
	store repositories.Store,
	policy *auth.AccessPolicy,
	subscriptions *SubscriptionService,
	opts Options,
	logger zerolog.Logger,
) *ThreadService {
	return &ThreadService{
		store:         store,
		policy:        policy,
		subscriptions: subscriptions,
		opts:          opts.withDefaults(),
		logger:        logger,
	}
}

// ListByForum returns one page of the forum's threads
func (s *ThreadService) ListByForum(ctx context.Context, forum *models.Forum, principal models.Principal, order models.ThreadOrder, page Page) (*Paged[*models.Thread], error) {
	if err := s.policy.Authorize(forum, principal); err != nil {
		return nil, err
	}

	page = s.opts.page(page)
	threads, total, err := s.store.Threads().ListByForum(ctx, forum.ID, order, page.Offset(), page.Size)
	if err != nil {
		return nil, fmt.Errorf("error listing threads: %w", err)
	}
	return &Paged[*models.Thread]{Items: threads, Total: total, Page: page}, nil
}

// ListActive returns the busiest threads with a post inside the active window
func (s *ThreadService) ListActive(ctx context.Context, forum *models.Forum, principal models.Principal) ([]*models.Thread, error) {
	if err := s.policy.Authorize(forum, principal); err != nil {
		return nil, err
	}

	since := s.opts.Now().Add(-s.opts.ActiveWindow)
	threads, err := s.store.Threads().ListActive(ctx, forum.ID, since, s.opts.ActiveLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing active threads: %w", err)
	}
	return threads, nil
}

// ListRecent returns the newest threads of the forum
func (s *ThreadService) ListRecent(ctx context.Context, forum *models.Forum, principal models.Principal) ([]*models.Thread, error) {
	if err := s.policy.Authorize(forum, principal); err != nil {
		return nil, err
	}

	threads, err := s.store.Threads().ListRecent(ctx, forum.ID, s.opts.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing recent threads: %w", err)
	}
	return threads, nil
}

// LatestActivity returns the most recently active threads across every
// forum the principal can view. n <= 0 uses the configured recent limit.
func (s *ThreadService) LatestActivity(ctx context.Context, principal models.Principal, n int) ([]*models.Thread, error) {
	threads, err := s.store.Threads().LatestActivity(ctx, principal, s.limit(n))
	if err != nil {
		return nil, fmt.Errorf("error listing thread activity: %w", err)
	}
	return threads, nil
}

func (s *ThreadService) limit(n int) int {
	if n <= 0 || n > s.opts.MaxPageSize {
		return s.opts.RecentLimit
	}
	return n
}

// NewThread is the input of CreateWithOpeningPost
type NewThread struct {
	Title     string
	Body      string
	Subscribe bool
}

// CreateWithOpeningPost creates a thread in the forum identified by slug
// together with its first post. The thread, the post, the counters and the
// author's subscription commit together.
func (s *ThreadService) CreateWithOpeningPost(ctx context.Context, principal models.Principal, forumSlug string, input NewThread) (*models.Thread, *models.Post, error) {
	if err := s.policy.RequireAuthenticated(principal); err != nil {
		return nil, nil, err
	}

	if msg := validation.NewStringValidation("title", input.Title).
		WithMaxLength(s.opts.MaxTitleLength).Check(); msg != "" {
		return nil, nil, apperrors.NewValidationError("title", msg)
	}
	body, err := validateBody(input.Body)
	if err != nil {
		return nil, nil, err
	}

	forum, err := s.store.Forums().GetBySlug(ctx, forumSlug)
	if err != nil {
		return nil, nil, err
	}
	if err := s.policy.Authorize(forum, principal); err != nil {
		return nil, nil, err
	}

	now := s.opts.Now().UTC()
	var (
		thread *models.Thread
		post   *models.Post
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		thread = &models.Thread{
			ForumID:        forum.ID,
			Title:          strings.TrimSpace(input.Title),
			LatestPostTime: now,
		}
		if err := tx.Threads().Create(ctx, thread); err != nil {
			return fmt.Errorf("error creating thread: %w", err)
		}

		post = &models.Post{
			ThreadID:    thread.ID,
			AuthorID:    principal.ID(),
			AuthorName:  principal.Name,
			Body:        body,
			SubmittedAt: now,
		}
		if err := tx.Posts().Create(ctx, post); err != nil {
			return fmt.Errorf("error creating opening post: %w", err)
		}
		if err := tx.Threads().RecordReply(ctx, thread.ID, now); err != nil {
			return fmt.Errorf("error updating thread counters: %w", err)
		}
		if err := s.subscriptions.Reconcile(ctx, tx, thread.ID, principal, input.Subscribe); err != nil {
			return err
		}

		created, err := tx.Threads().GetByID(ctx, thread.ID)
		if err != nil {
			return err
		}
		thread = created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Int64("threadID", thread.ID).
		Int64("forumID", forum.ID).
		Int64("authorID", principal.ID()).
		Msg("Thread created")
	return thread, post, nil
}

// GetThread returns the thread and its forum after the forum gate
func (s *ThreadService) GetThread(ctx context.Context, id int64, principal models.Principal) (*models.Thread, *models.Forum, error) {
	thread, err := s.store.Threads().GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	forum, err := s.store.Forums().GetByID(ctx, thread.ForumID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.policy.Authorize(forum, principal); err != nil {
		return nil, nil, err
	}
	return thread, forum, nil
}

// ViewThread is GetThread plus a view count increment. The increment runs
// outside any transaction and a failure only gets logged.
func (s *ThreadService) ViewThread(ctx context.Context, id int64, principal models.Principal) (*models.Thread, *models.Forum, error) {
	thread, forum, err := s.GetThread(ctx, id, principal)
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.Threads().IncrementViews(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("threadID", id).Msg("Failed to increment view count")
	} else {
		thread.Views++
	}
	return thread, forum, nil
}

// SetClosed closes or reopens a thread. Staff only.
func (s *ThreadService) SetClosed(ctx context.Context, principal models.Principal, id int64, closed bool) (*models.Thread, error) {
	if err := s.policy.RequireStaff(principal); err != nil {
		return nil, err
	}

	if err := s.store.Threads().SetClosed(ctx, id, closed); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("threadID", id).Bool("closed", closed).Msg("Thread state changed")
	return s.store.Threads().GetByID(ctx, id)
}

// validateBody trims a post body and checks its length
func validateBody(body string) (string, error) {
	v := validation.NewStringValidation("body", body).WithMaxLength(validation.BodyMaxLength)
	if msg := v.Check(); msg != "" {
		return "", apperrors.NewValidationError("body", msg)
	}
	return v.Value, nil
}
