package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/app/notification"
	"github.com/yigit/uniforum/internal/app/repositories"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
)

// PostService handles the post stream of threads
type PostService struct {
	store         repositories.Store
	policy        *auth.AccessPolicy
	threads       *ThreadService
	subscriptions *SubscriptionService
	dispatcher    notification.Dispatcher
	opts          Options
	logger        zerolog.Logger
}

// NewPostService creates a new PostService
func NewPostService(
	store repositories.Store,
	policy *auth.AccessPolicy,
	threads *ThreadService,
	subscriptions *SubscriptionService,
	dispatcher notification.Dispatcher,
	opts Options,
	logger zerolog.Logger,
) *PostService {
	return &PostService{
		store:         store,
		policy:        policy,
		threads:       threads,
		subscriptions: subscriptions,
		dispatcher:    dispatcher,
		opts:          opts.withDefaults(),
		logger:        logger,
	}
}

// ListByThread returns one page of the thread's posts, oldest first
func (s *PostService) ListByThread(ctx context.Context, threadID int64, principal models.Principal, page Page) (*Paged[*models.Post], error) {
	if _, _, err := s.threads.GetThread(ctx, threadID, principal); err != nil {
		return nil, err
	}

	page = s.opts.page(page)
	posts, total, err := s.store.Posts().ListByThread(ctx, threadID, page.Offset(), page.Size)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return &Paged[*models.Post]{Items: posts, Total: total, Page: page}, nil
}

// Reply is the input of AddReply
type Reply struct {
	Body      string
	Subscribe bool
}

// AddReply appends a post to an open thread. The post, the thread counters
// and the author's subscription commit together; subscribers are notified
// after the commit.
func (s *PostService) AddReply(ctx context.Context, principal models.Principal, threadID int64, input Reply) (*models.Post, error) {
	if err := s.policy.RequireAuthenticated(principal); err != nil {
		return nil, err
	}
	body, err := validateBody(input.Body)
	if err != nil {
		return nil, err
	}

	thread, forum, err := s.threads.GetThread(ctx, threadID, principal)
	if err != nil {
		return nil, err
	}
	if thread.Closed {
		return nil, threadClosed(threadID)
	}

	now := s.opts.Now().UTC()
	var post *models.Post
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		current, err := tx.Threads().GetForUpdate(ctx, threadID)
		if err != nil {
			return err
		}
		if current.Closed {
			return threadClosed(threadID)
		}

		post = &models.Post{
			ThreadID:    threadID,
			AuthorID:    principal.ID(),
			AuthorName:  principal.Name,
			Body:        body,
			SubmittedAt: now,
		}
		if err := tx.Posts().Create(ctx, post); err != nil {
			return fmt.Errorf("error creating post: %w", err)
		}
		if err := tx.Threads().RecordReply(ctx, threadID, now); err != nil {
			return fmt.Errorf("error updating thread counters: %w", err)
		}
		if err := s.subscriptions.Reconcile(ctx, tx, threadID, principal, input.Subscribe); err != nil {
			return err
		}

		thread = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("postID", post.ID).
		Int64("threadID", threadID).
		Int64("authorID", principal.ID()).
		Msg("Reply added")

	s.notify(ctx, forum, thread, post)
	return post, nil
}

// notify sends the reply to the thread's subscribers. Failures are logged
// and never reach the caller.
func (s *PostService) notify(ctx context.Context, forum *models.Forum, thread *models.Thread, post *models.Post) {
	recipients, err := s.subscriptions.SubscribersOf(ctx, forum, thread.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("threadID", thread.ID).Msg("Failed to load subscribers")
		return
	}
	if len(recipients) == 0 {
		return
	}

	dispatch := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
		defer cancel()

		if err := s.dispatcher.Notify(ctx, thread, post, recipients); err != nil {
			s.logger.Warn().
				Err(err).
				Int64("threadID", thread.ID).
				Int64("postID", post.ID).
				Msg("Reply notification failed")
		}
	}

	if s.opts.AsyncNotify {
		go dispatch()
		return
	}
	dispatch()
}

// LatestPosts returns the newest posts the principal can see
func (s *PostService) LatestPosts(ctx context.Context, principal models.Principal, n int) ([]*models.PostSummary, error) {
	posts, err := s.store.Posts().Latest(ctx, principal, nil, s.threads.limit(n))
	if err != nil {
		return nil, fmt.Errorf("error listing latest posts: %w", err)
	}
	return posts, nil
}

// LatestPostsByAuthor returns the newest visible posts of one author
func (s *PostService) LatestPostsByAuthor(ctx context.Context, principal models.Principal, authorID int64, n int) ([]*models.PostSummary, error) {
	if authorID <= 0 {
		return nil, apperrors.NewValidationError("authorId", "authorId must be positive")
	}

	posts, err := s.store.Posts().Latest(ctx, principal, &authorID, s.threads.limit(n))
	if err != nil {
		return nil, fmt.Errorf("error listing posts of author %d: %w", authorID, err)
	}
	return posts, nil
}

func threadClosed(id int64) error {
	return apperrors.NewCustomError(apperrors.ErrThreadClosed, fmt.Sprintf("thread %d is closed", id))
}
