package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
	"github.com/yigit/uniforum/internal/pkg/dberrors"
	"github.com/yigit/uniforum/internal/pkg/logger"
)

type pgThreadRepository struct {
	conn   DBTX
	policy *auth.AccessPolicy
}

var threadColumns = []string{
	"t.id", "t.forum_id", "t.title", "t.closed", "t.views", "t.posts", "t.latest_post_time", "t.created_at",
}

func selectThreadsQuery() squirrel.SelectBuilder {
	return squirrel.Select(threadColumns...).
		From("threads t").
		PlaceholderFormat(squirrel.Dollar)
}

func scanThread(row pgx.Row) (*models.Thread, error) {
	var t models.Thread
	if err := row.Scan(&t.ID, &t.ForumID, &t.Title, &t.Closed, &t.Views, &t.Posts, &t.LatestPostTime, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *pgThreadRepository) queryThreads(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Thread, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building thread query SQL: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing thread query")
		return nil, err
	}
	defer rows.Close()

	threads := []*models.Thread{}
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}

	return threads, rows.Err()
}

func (r *pgThreadRepository) Create(ctx context.Context, thread *models.Thread) error {
	sql, args, err := squirrel.Insert("threads").
		Columns("forum_id", "title", "closed", "views", "posts", "latest_post_time").
		Values(thread.ForumID, thread.Title, thread.Closed, thread.Views, thread.Posts, thread.LatestPostTime).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create thread SQL: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&thread.ID, &thread.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(apperrors.ErrForumNotFound, fmt.Sprintf("forum %d not found", thread.ForumID))
		}
		logger.Error().Err(err).Int64("forumID", thread.ForumID).Msg("Error executing create thread query")
		return err
	}
	return nil
}

func getThreadQuery(id int64, forUpdate bool) squirrel.SelectBuilder {
	query := selectThreadsQuery().Where(squirrel.Eq{"t.id": id})
	if forUpdate {
		query = query.Suffix("FOR UPDATE")
	}
	return query
}

func (r *pgThreadRepository) GetByID(ctx context.Context, id int64) (*models.Thread, error) {
	return r.getThread(ctx, id, false)
}

func (r *pgThreadRepository) GetForUpdate(ctx context.Context, id int64) (*models.Thread, error) {
	return r.getThread(ctx, id, true)
}

func (r *pgThreadRepository) getThread(ctx context.Context, id int64, forUpdate bool) (*models.Thread, error) {
	sql, args, err := getThreadQuery(id, forUpdate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building get thread SQL: %w", err)
	}

	thread, err := scanThread(r.conn.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(apperrors.ErrThreadNotFound, fmt.Sprintf("thread %d not found", id))
	}
	return thread, err
}

func (r *pgThreadRepository) ListByForum(ctx context.Context, forumID int64, order models.ThreadOrder, offset uint64, limit int) ([]*models.Thread, int64, error) {
	countSQL, countArgs, err := squirrel.Select("count(*)").
		From("threads").
		Where(squirrel.Eq{"forum_id": forumID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building count threads SQL: %w", err)
	}

	var total int64
	if err := r.conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count threads query")
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Thread{}, 0, nil
	}

	query := selectThreadsQuery().
		Where(squirrel.Eq{"t.forum_id": forumID}).
		Offset(offset).
		Limit(uint64(limit))
	switch order {
	case models.ThreadOrderRecent:
		query = query.OrderBy("t.id DESC")
	default:
		query = query.OrderBy("t.latest_post_time DESC", "t.id DESC")
	}

	threads, err := r.queryThreads(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

func (r *pgThreadRepository) ListActive(ctx context.Context, forumID int64, since time.Time, limit int) ([]*models.Thread, error) {
	return r.queryThreads(ctx, selectThreadsQuery().
		Where(squirrel.Eq{"t.forum_id": forumID}).
		Where(squirrel.GtOrEq{"t.latest_post_time": since}).
		OrderBy("t.posts DESC", "t.latest_post_time DESC").
		Limit(uint64(limit)))
}

func (r *pgThreadRepository) ListRecent(ctx context.Context, forumID int64, limit int) ([]*models.Thread, error) {
	return r.queryThreads(ctx, selectThreadsQuery().
		Where(squirrel.Eq{"t.forum_id": forumID}).
		Where(squirrel.Gt{"t.posts": 0}).
		OrderBy("t.id DESC").
		Limit(uint64(limit)))
}

func latestActivityQuery(policy *auth.AccessPolicy, principal models.Principal, limit int) squirrel.SelectBuilder {
	return selectThreadsQuery().
		Join("forums f ON f.id = t.forum_id").
		Where(policy.VisibilityPredicate("f", principal)).
		OrderBy("t.latest_post_time DESC", "t.id DESC").
		Limit(uint64(limit))
}

func (r *pgThreadRepository) LatestActivity(ctx context.Context, principal models.Principal, limit int) ([]*models.Thread, error) {
	return r.queryThreads(ctx, latestActivityQuery(r.policy, principal, limit))
}

func (r *pgThreadRepository) IncrementViews(ctx context.Context, id int64) error {
	tag, err := r.conn.Exec(ctx, "UPDATE threads SET views = views + 1 WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrThreadNotFound, fmt.Sprintf("thread %d not found", id))
	}
	return nil
}

// recordReplySQL only touches open threads; the row lock it takes
// serializes concurrent replies.
const recordReplySQL = "UPDATE threads SET posts = posts + 1, latest_post_time = GREATEST(latest_post_time, $2) WHERE id = $1 AND NOT closed"

func (r *pgThreadRepository) RecordReply(ctx context.Context, id int64, postTime time.Time) error {
	tag, err := r.conn.Exec(ctx, recordReplySQL, id, postTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var closed bool
	err = r.conn.QueryRow(ctx, "SELECT closed FROM threads WHERE id = $1", id).Scan(&closed)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFoundError(apperrors.ErrThreadNotFound, fmt.Sprintf("thread %d not found", id))
	case err != nil:
		return err
	}
	return apperrors.NewCustomError(apperrors.ErrThreadClosed, fmt.Sprintf("thread %d is closed", id))
}

func (r *pgThreadRepository) SetClosed(ctx context.Context, id int64, closed bool) error {
	tag, err := r.conn.Exec(ctx, "UPDATE threads SET closed = $2 WHERE id = $1", id, closed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(apperrors.ErrThreadNotFound, fmt.Sprintf("thread %d not found", id))
	}
	return nil
}
