package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
)

type forumRepository struct {
	store *Store
}

func forumNotFound(ref interface{}) error {
	return apperrors.NewNotFoundError(apperrors.ErrForumNotFound, fmt.Sprintf("forum %v not found", ref))
}

func (r *forumRepository) Create(ctx context.Context, forum *models.Forum) error {
	defer r.store.lock()()
	data := r.store.state()

	for _, f := range data.forums {
		if f.Slug == forum.Slug {
			return apperrors.NewCustomError(apperrors.ErrResourceAlreadyExists, fmt.Sprintf("forum slug %q already exists", forum.Slug))
		}
	}
	if forum.ParentID != nil {
		if _, ok := data.forums[*forum.ParentID]; !ok {
			return apperrors.NewNotFoundError(apperrors.ErrForumNotFound, "parent forum not found")
		}
	}

	forum.ID = data.id()
	forum.CreatedAt = r.store.now().UTC()
	data.forums[forum.ID] = forum.Clone()
	return nil
}

func (r *forumRepository) GetByID(ctx context.Context, id int64) (*models.Forum, error) {
	defer r.store.lock()()

	f, ok := r.store.state().forums[id]
	if !ok {
		return nil, forumNotFound(id)
	}
	return f.Clone(), nil
}

func (r *forumRepository) GetBySlug(ctx context.Context, slug string) (*models.Forum, error) {
	defer r.store.lock()()

	for _, f := range r.store.state().forums {
		if f.Slug == slug {
			return f.Clone(), nil
		}
	}
	return nil, forumNotFound(fmt.Sprintf("%q", slug))
}

func (r *forumRepository) ListChildren(ctx context.Context, parentID *int64, principal models.Principal) ([]*models.Forum, error) {
	defer r.store.lock()()

	forums := []*models.Forum{}
	for _, f := range r.store.state().forums {
		switch {
		case parentID == nil && f.ParentID != nil:
			continue
		case parentID != nil && (f.ParentID == nil || *f.ParentID != *parentID):
			continue
		}
		if r.store.policy.CanView(f, principal) {
			forums = append(forums, f.Clone())
		}
	}

	sort.Slice(forums, func(i, j int) bool {
		if forums[i].Ordering != forums[j].Ordering {
			return forums[i].Ordering < forums[j].Ordering
		}
		if forums[i].Title != forums[j].Title {
			return forums[i].Title < forums[j].Title
		}
		return forums[i].ID < forums[j].ID
	})
	return forums, nil
}

func (r *forumRepository) SetAccess(ctx context.Context, forumID int64, users, groups []int64) error {
	defer r.store.lock()()

	f, ok := r.store.state().forums[forumID]
	if !ok {
		return forumNotFound(forumID)
	}
	f.AllowedUsers = uniqueSorted(users)
	f.AllowedGroups = uniqueSorted(groups)
	return nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
