package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
)

type threadRepository struct {
	store *Store
}

func threadNotFound(id int64) error {
	return apperrors.NewNotFoundError(apperrors.ErrThreadNotFound, fmt.Sprintf("thread %d not found", id))
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	defer r.store.lock()()
	data := r.store.state()

	if _, ok := data.forums[thread.ForumID]; !ok {
		return forumNotFound(thread.ForumID)
	}

	thread.ID = data.id()
	thread.CreatedAt = r.store.now().UTC()
	cp := *thread
	data.threads[thread.ID] = &cp
	return nil
}

func (r *threadRepository) GetByID(ctx context.Context, id int64) (*models.Thread, error) {
	defer r.store.lock()()

	t, ok := r.store.state().threads[id]
	if !ok {
		return nil, threadNotFound(id)
	}
	cp := *t
	return &cp, nil
}

// GetForUpdate is GetByID; a transaction already holds the store lock.
func (r *threadRepository) GetForUpdate(ctx context.Context, id int64) (*models.Thread, error) {
	return r.GetByID(ctx, id)
}

// threadsOf copies the threads of a forum that satisfy keep.
func (r *threadRepository) threadsOf(forumID int64, keep func(*models.Thread) bool) []*models.Thread {
	threads := []*models.Thread{}
	for _, t := range r.store.state().threads {
		if t.ForumID == forumID && (keep == nil || keep(t)) {
			cp := *t
			threads = append(threads, &cp)
		}
	}
	return threads
}

func (r *threadRepository) ListByForum(ctx context.Context, forumID int64, order models.ThreadOrder, offset uint64, limit int) ([]*models.Thread, int64, error) {
	defer r.store.lock()()

	threads := r.threadsOf(forumID, nil)
	if order == models.ThreadOrderRecent {
		sort.Slice(threads, func(i, j int) bool { return threads[i].ID > threads[j].ID })
	} else {
		sortThreadsByLatest(threads)
	}
	return paginate(threads, offset, limit), int64(len(threads)), nil
}

func (r *threadRepository) ListActive(ctx context.Context, forumID int64, since time.Time, limit int) ([]*models.Thread, error) {
	defer r.store.lock()()

	threads := r.threadsOf(forumID, func(t *models.Thread) bool {
		return !t.LatestPostTime.Before(since)
	})
	sort.Slice(threads, func(i, j int) bool {
		if threads[i].Posts != threads[j].Posts {
			return threads[i].Posts > threads[j].Posts
		}
		return threads[i].LatestPostTime.After(threads[j].LatestPostTime)
	})
	return truncate(threads, limit), nil
}

func (r *threadRepository) ListRecent(ctx context.Context, forumID int64, limit int) ([]*models.Thread, error) {
	defer r.store.lock()()

	threads := r.threadsOf(forumID, func(t *models.Thread) bool { return t.Posts > 0 })
	sort.Slice(threads, func(i, j int) bool { return threads[i].ID > threads[j].ID })
	return truncate(threads, limit), nil
}

func (r *threadRepository) LatestActivity(ctx context.Context, principal models.Principal, limit int) ([]*models.Thread, error) {
	defer r.store.lock()()
	data := r.store.state()

	threads := []*models.Thread{}
	for _, t := range data.threads {
		if r.store.policy.CanView(data.forums[t.ForumID], principal) {
			cp := *t
			threads = append(threads, &cp)
		}
	}
	sortThreadsByLatest(threads)
	return truncate(threads, limit), nil
}

func (r *threadRepository) IncrementViews(ctx context.Context, id int64) error {
	defer r.store.lock()()

	t, ok := r.store.state().threads[id]
	if !ok {
		return threadNotFound(id)
	}
	t.Views++
	return nil
}

func (r *threadRepository) RecordReply(ctx context.Context, id int64, postTime time.Time) error {
	defer r.store.lock()()

	t, ok := r.store.state().threads[id]
	if !ok {
		return threadNotFound(id)
	}
	if t.Closed {
		return apperrors.NewCustomError(apperrors.ErrThreadClosed, fmt.Sprintf("thread %d is closed", id))
	}
	t.Posts++
	if postTime.After(t.LatestPostTime) {
		t.LatestPostTime = postTime
	}
	return nil
}

func (r *threadRepository) SetClosed(ctx context.Context, id int64, closed bool) error {
	defer r.store.lock()()

	t, ok := r.store.state().threads[id]
	if !ok {
		return threadNotFound(id)
	}
	t.Closed = closed
	return nil
}
