package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
	"github.com/yigit/uniforum/internal/pkg/dberrors"
	"github.com/yigit/uniforum/internal/pkg/logger"
)

type pgSubscriptionRepository struct {
	conn   DBTX
	policy *auth.AccessPolicy
}

func (r *pgSubscriptionRepository) Exists(ctx context.Context, threadID, authorID int64) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM subscriptions WHERE thread_id = $1 AND author_id = $2)",
		threadID, authorID).Scan(&exists)
	return exists, err
}

func (r *pgSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	sql, args, err := squirrel.Insert("subscriptions").
		Columns("thread_id", "author_id", "author_email").
		Values(sub.ThreadID, sub.AuthorID, sub.AuthorEmail).
		Suffix("ON CONFLICT (thread_id, author_id) DO NOTHING RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create subscription SQL: %w", err)
	}

	err = r.conn.QueryRow(ctx, sql, args...).Scan(&sub.ID, &sub.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// already subscribed
		return nil
	case dberrors.IsForeignKeyViolation(err):
		return apperrors.NewNotFoundError(apperrors.ErrThreadNotFound, fmt.Sprintf("thread %d not found", sub.ThreadID))
	case err != nil:
		logger.Error().Err(err).Int64("threadID", sub.ThreadID).Msg("Error executing create subscription query")
		return err
	}
	return nil
}

func (r *pgSubscriptionRepository) Delete(ctx context.Context, threadID, authorID int64) (bool, error) {
	tag, err := r.conn.Exec(ctx, "DELETE FROM subscriptions WHERE thread_id = $1 AND author_id = $2", threadID, authorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func deleteExceptQuery(authorID int64, keep []int64) squirrel.DeleteBuilder {
	query := squirrel.Delete("subscriptions").
		Where(squirrel.Eq{"author_id": authorID}).
		PlaceholderFormat(squirrel.Dollar)
	if len(keep) > 0 {
		query = query.Where(squirrel.Expr("NOT (thread_id = ANY(?))", keep))
	}
	return query
}

func (r *pgSubscriptionRepository) DeleteExcept(ctx context.Context, authorID int64, keep []int64) (int64, error) {
	sql, args, err := deleteExceptQuery(authorID, keep).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building bulk unsubscribe SQL: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("authorID", authorID).Msg("Error executing bulk unsubscribe query")
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *pgSubscriptionRepository) ListByThread(ctx context.Context, threadID int64) ([]*models.Subscription, error) {
	rows, err := r.conn.Query(ctx,
		"SELECT id, thread_id, author_id, author_email, created_at FROM subscriptions WHERE thread_id = $1 ORDER BY id",
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*models.Subscription{}
	for rows.Next() {
		var s models.Subscription
		if err := rows.Scan(&s.ID, &s.ThreadID, &s.AuthorID, &s.AuthorEmail, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

func listByAuthorQuery(policy *auth.AccessPolicy, principal models.Principal) squirrel.SelectBuilder {
	return squirrel.Select(
		"s.id", "s.thread_id", "s.author_id", "s.author_email", "s.created_at", "t.title", "f.slug",
	).From("subscriptions s").
		Join("threads t ON t.id = s.thread_id").
		Join("forums f ON f.id = t.forum_id").
		Where(squirrel.Eq{"s.author_id": principal.ID()}).
		Where(policy.VisibilityPredicate("f", principal)).
		OrderBy("t.latest_post_time DESC", "s.id").
		PlaceholderFormat(squirrel.Dollar)
}

func (r *pgSubscriptionRepository) ListByAuthor(ctx context.Context, principal models.Principal) ([]*models.SubscriptionDetails, error) {
	sql, args, err := listByAuthorQuery(r.policy, principal).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building list subscriptions SQL: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*models.SubscriptionDetails{}
	for rows.Next() {
		var s models.SubscriptionDetails
		if err := rows.Scan(&s.ID, &s.ThreadID, &s.AuthorID, &s.AuthorEmail, &s.CreatedAt, &s.ThreadTitle, &s.ForumSlug); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}
