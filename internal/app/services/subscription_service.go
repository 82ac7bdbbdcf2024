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

// maxBulkKeep caps the keep list of a bulk update
const maxBulkKeep = 1000

// SubscriptionService manages thread subscriptions
type SubscriptionService struct {
	store  repositories.Store
	policy *auth.AccessPolicy
	logger zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService
func NewSubscriptionService(store repositories.Store, policy *auth.AccessPolicy, logger zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:  store,
		policy: policy,
		logger: logger,
	}
}

// Reconcile brings the principal's subscription to threadID in line with
// wants. It must run on the transaction of the post that triggered it.
func (s *SubscriptionService) Reconcile(ctx context.Context, tx repositories.Store, threadID int64, principal models.Principal, wants bool) error {
	subs := tx.Subscriptions()

	exists, err := subs.Exists(ctx, threadID, principal.ID())
	if err != nil {
		return fmt.Errorf("error checking subscription: %w", err)
	}

	switch {
	case wants && !exists:
		sub := &models.Subscription{
			ThreadID:    threadID,
			AuthorID:    principal.ID(),
			AuthorEmail: principal.Email,
		}
		if err := subs.Create(ctx, sub); err != nil {
			return fmt.Errorf("error creating subscription: %w", err)
		}
	case !wants && exists:
		if _, err := subs.Delete(ctx, threadID, principal.ID()); err != nil {
			return fmt.Errorf("error deleting subscription: %w", err)
		}
	}
	return nil
}

// BulkUpdate keeps exactly the principal's subscriptions whose thread is in
// keep. Every other subscription of the principal is removed; ids in keep
// without a subscription are ignored. Returns the number removed.
func (s *SubscriptionService) BulkUpdate(ctx context.Context, principal models.Principal, keep []int64) (int64, error) {
	if err := s.policy.RequireAuthenticated(principal); err != nil {
		return 0, err
	}
	if msg := validation.NewIDListValidation("keepThreadIds", keep).WithMaxLength(maxBulkKeep).Check(); msg != "" {
		return 0, apperrors.NewValidationError("keepThreadIds", msg)
	}

	var removed int64
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		n, err := tx.Subscriptions().DeleteExcept(ctx, principal.ID(), keep)
		removed = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error updating subscriptions: %w", err)
	}

	s.logger.Debug().
		Int64("authorID", principal.ID()).
		Int("kept", len(keep)).
		Int64("removed", removed).
		Msg("Subscriptions updated")
	return removed, nil
}

// SubscribersOf returns the distinct notification addresses of the thread's
// subscribers. Subscribers the forum no longer admits are skipped.
func (s *SubscriptionService) SubscribersOf(ctx context.Context, forum *models.Forum, threadID int64) ([]string, error) {
	subs, err := s.store.Subscriptions().ListByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("error listing subscribers: %w", err)
	}

	seen := make(map[string]struct{}, len(subs))
	addresses := make([]string, 0, len(subs))
	for _, sub := range subs {
		if !s.policy.MayNotify(forum, sub.AuthorID) {
			continue
		}
		addr := strings.TrimSpace(sub.AuthorEmail)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// ListForAuthor returns the principal's own subscriptions
func (s *SubscriptionService) ListForAuthor(ctx context.Context, principal models.Principal) ([]*models.SubscriptionDetails, error) {
	if err := s.policy.RequireAuthenticated(principal); err != nil {
		return nil, err
	}

	subs, err := s.store.Subscriptions().ListByAuthor(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("error listing subscriptions: %w", err)
	}
	return subs, nil
}
