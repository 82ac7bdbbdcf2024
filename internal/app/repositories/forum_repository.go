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

const forumSlugConstraint = "forums_slug_key"

type pgForumRepository struct {
	conn   DBTX
	policy *auth.AccessPolicy
}

// selectForumsQuery selects forums with their access lists aggregated into arrays
func selectForumsQuery() squirrel.SelectBuilder {
	return squirrel.Select(
		"f.id", "f.title", "f.slug", "f.description", "f.parent_id", "f.ordering", "f.created_at",
		"COALESCE((SELECT array_agg(au.user_id ORDER BY au.user_id) FROM forum_allowed_users au WHERE au.forum_id = f.id), '{}') AS allowed_users",
		"COALESCE((SELECT array_agg(ag.group_id ORDER BY ag.group_id) FROM forum_allowed_groups ag WHERE ag.forum_id = f.id), '{}') AS allowed_groups",
	).From("forums f").
		PlaceholderFormat(squirrel.Dollar)
}

func scanForum(row pgx.Row) (*models.Forum, error) {
	var f models.Forum
	err := row.Scan(
		&f.ID, &f.Title, &f.Slug, &f.Description, &f.ParentID, &f.Ordering, &f.CreatedAt,
		&f.AllowedUsers, &f.AllowedGroups,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *pgForumRepository) Create(ctx context.Context, forum *models.Forum) error {
	sql, args, err := squirrel.Insert("forums").
		Columns("title", "slug", "description", "parent_id", "ordering").
		Values(forum.Title, forum.Slug, forum.Description, forum.ParentID, forum.Ordering).
		Suffix("RETURNING id, created_at").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create forum SQL: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&forum.ID, &forum.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, forumSlugConstraint) {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, fmt.Sprintf("forum slug %q already exists", forum.Slug))
		}
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(apperrors.ErrForumNotFound, "parent forum not found")
		}
		logger.Error().Err(err).Str("slug", forum.Slug).Msg("Error executing create forum query")
		return err
	}

	return r.insertAccess(ctx, forum.ID, forum.AllowedUsers, forum.AllowedGroups)
}

func (r *pgForumRepository) GetByID(ctx context.Context, id int64) (*models.Forum, error) {
	sql, args, err := selectForumsQuery().Where(squirrel.Eq{"f.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building get forum SQL: %w", err)
	}

	forum, err := scanForum(r.conn.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(apperrors.ErrForumNotFound, fmt.Sprintf("forum %d not found", id))
	}
	return forum, err
}

func (r *pgForumRepository) GetBySlug(ctx context.Context, slug string) (*models.Forum, error) {
	sql, args, err := selectForumsQuery().Where(squirrel.Eq{"f.slug": slug}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building get forum SQL: %w", err)
	}

	forum, err := scanForum(r.conn.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(apperrors.ErrForumNotFound, fmt.Sprintf("forum %q not found", slug))
	}
	return forum, err
}

func listChildrenQuery(policy *auth.AccessPolicy, parentID *int64, principal models.Principal) squirrel.SelectBuilder {
	query := selectForumsQuery().
		Where(policy.VisibilityPredicate("f", principal)).
		OrderBy("f.ordering", "f.title", "f.id")
	if parentID == nil {
		return query.Where(squirrel.Eq{"f.parent_id": nil})
	}
	return query.Where(squirrel.Eq{"f.parent_id": *parentID})
}

func (r *pgForumRepository) ListChildren(ctx context.Context, parentID *int64, principal models.Principal) ([]*models.Forum, error) {
	sql, args, err := listChildrenQuery(r.policy, parentID, principal).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building list forums SQL: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list forums query")
		return nil, err
	}
	defer rows.Close()

	forums := []*models.Forum{}
	for rows.Next() {
		forum, err := scanForum(rows)
		if err != nil {
			return nil, err
		}
		forums = append(forums, forum)
	}

	return forums, rows.Err()
}

func (r *pgForumRepository) SetAccess(ctx context.Context, forumID int64, users, groups []int64) error {
	var exists bool
	if err := r.conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM forums WHERE id = $1)", forumID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFoundError(apperrors.ErrForumNotFound, fmt.Sprintf("forum %d not found", forumID))
	}

	if _, err := r.conn.Exec(ctx, "DELETE FROM forum_allowed_users WHERE forum_id = $1", forumID); err != nil {
		return err
	}
	if _, err := r.conn.Exec(ctx, "DELETE FROM forum_allowed_groups WHERE forum_id = $1", forumID); err != nil {
		return err
	}

	return r.insertAccess(ctx, forumID, users, groups)
}

func (r *pgForumRepository) insertAccess(ctx context.Context, forumID int64, users, groups []int64) error {
	if err := r.insertMembers(ctx, "forum_allowed_users", "user_id", forumID, users); err != nil {
		return err
	}
	return r.insertMembers(ctx, "forum_allowed_groups", "group_id", forumID, groups)
}

func (r *pgForumRepository) insertMembers(ctx context.Context, table, column string, forumID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	insert := squirrel.Insert(table).
		Columns("forum_id", column).
		Suffix("ON CONFLICT DO NOTHING").
		PlaceholderFormat(squirrel.Dollar)
	for _, id := range ids {
		insert = insert.Values(forumID, id)
	}

	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("error building %s insert SQL: %w", table, err)
	}

	_, err = r.conn.Exec(ctx, sql, args...)
	return err
}
