package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
	"github.com/yigit/uniforum/internal/pkg/dberrors"
	"github.com/yigit/uniforum/internal/pkg/logger"
)

// searchConfig is the text search configuration used by the posts body index
const searchConfig = "simple"

type pgPostRepository struct {
	conn   DBTX
	policy *auth.AccessPolicy
}

func selectPostSummariesQuery() squirrel.SelectBuilder {
	return squirrel.Select(
		"p.id", "p.thread_id", "p.author_id", "p.author_name", "p.body", "p.submitted_at",
		"t.title AS thread_title", "f.id AS forum_id", "f.slug AS forum_slug",
	).From("posts p").
		Join("threads t ON t.id = p.thread_id").
		Join("forums f ON f.id = t.forum_id").
		PlaceholderFormat(squirrel.Dollar)
}

func scanPostSummary(row pgx.Row) (*models.PostSummary, error) {
	var s models.PostSummary
	err := row.Scan(
		&s.ID, &s.ThreadID, &s.AuthorID, &s.AuthorName, &s.Body, &s.SubmittedAt,
		&s.ThreadTitle, &s.ForumID, &s.ForumSlug,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgPostRepository) querySummaries(ctx context.Context, query squirrel.SelectBuilder) ([]*models.PostSummary, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building post summary SQL: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing post summary query")
		return nil, err
	}
	defer rows.Close()

	summaries := []*models.PostSummary{}
	for rows.Next() {
		s, err := scanPostSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *pgPostRepository) Create(ctx context.Context, post *models.Post) error {
	sql, args, err := squirrel.Insert("posts").
		Columns("thread_id", "author_id", "author_name", "body", "submitted_at").
		Values(post.ThreadID, post.AuthorID, post.AuthorName, post.Body, post.SubmittedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create post SQL: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&post.ID); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(apperrors.ErrThreadNotFound, fmt.Sprintf("thread %d not found", post.ThreadID))
		}
		logger.Error().Err(err).Int64("threadID", post.ThreadID).Msg("Error executing create post query")
		return err
	}
	return nil
}

func (r *pgPostRepository) ListByThread(ctx context.Context, threadID int64, offset uint64, limit int) ([]*models.Post, int64, error) {
	var total int64
	if err := r.conn.QueryRow(ctx, "SELECT count(*) FROM posts WHERE thread_id = $1", threadID).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count posts query")
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Post{}, 0, nil
	}

	sql, args, err := squirrel.Select("id", "thread_id", "author_id", "author_name", "body", "submitted_at").
		From("posts").
		Where(squirrel.Eq{"thread_id": threadID}).
		OrderBy("submitted_at ASC", "id ASC").
		Offset(offset).
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building list posts SQL: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list posts query")
		return nil, 0, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.AuthorID, &p.AuthorName, &p.Body, &p.SubmittedAt); err != nil {
			return nil, 0, err
		}
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *pgPostRepository) Latest(ctx context.Context, principal models.Principal, authorID *int64, limit int) ([]*models.PostSummary, error) {
	query := selectPostSummariesQuery().
		Where(r.policy.VisibilityPredicate("f", principal)).
		OrderBy("p.submitted_at DESC", "p.id DESC").
		Limit(uint64(limit))
	if authorID != nil {
		query = query.Where(squirrel.Eq{"p.author_id": *authorID})
	}
	return r.querySummaries(ctx, query)
}

func (r *pgPostRepository) Search(ctx context.Context, forumID int64, term string, offset uint64, limit int) ([]*models.PostSummary, int64, error) {
	match := squirrel.Expr(
		fmt.Sprintf("to_tsvector('%s', p.body) @@ plainto_tsquery('%s', ?)", searchConfig, searchConfig), term)

	countSQL, countArgs, err := squirrel.Select("count(*)").
		From("posts p").
		Join("threads t ON t.id = p.thread_id").
		Where(squirrel.Eq{"t.forum_id": forumID}).
		Where(match).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building search count SQL: %w", err)
	}

	var total int64
	if err := r.conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*models.PostSummary{}, 0, nil
	}

	hits, err := r.querySummaries(ctx, selectPostSummariesQuery().
		Where(squirrel.Eq{"t.forum_id": forumID}).
		Where(match).
		OrderByClause(fmt.Sprintf("ts_rank(to_tsvector('%s', p.body), plainto_tsquery('%s', ?)) DESC", searchConfig, searchConfig), term).
		OrderBy("p.submitted_at DESC").
		Offset(offset).
		Limit(uint64(limit)))
	if err != nil {
		return nil, 0, err
	}
	return hits, total, nil
}
