package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/yigit/uniforum/internal/app/models"
)

type postRepository struct {
	store *Store
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer r.store.lock()()
	data := r.store.state()

	if _, ok := data.threads[post.ThreadID]; !ok {
		return threadNotFound(post.ThreadID)
	}

	post.ID = data.id()
	cp := *post
	data.posts[post.ID] = &cp
	return nil
}

func (r *postRepository) ListByThread(ctx context.Context, threadID int64, offset uint64, limit int) ([]*models.Post, int64, error) {
	defer r.store.lock()()

	posts := []*models.Post{}
	for _, p := range r.store.state().posts {
		if p.ThreadID == threadID {
			cp := *p
			posts = append(posts, &cp)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].SubmittedAt.Equal(posts[j].SubmittedAt) {
			return posts[i].SubmittedAt.Before(posts[j].SubmittedAt)
		}
		return posts[i].ID < posts[j].ID
	})
	return paginate(posts, offset, limit), int64(len(posts)), nil
}

// summaries joins posts with their thread and forum, keeping those match accepts.
func (r *postRepository) summaries(match func(*models.Post, *models.Thread, *models.Forum) bool) []*models.PostSummary {
	data := r.store.state()

	out := []*models.PostSummary{}
	for _, p := range data.posts {
		t := data.threads[p.ThreadID]
		if t == nil {
			continue
		}
		f := data.forums[t.ForumID]
		if f == nil || !match(p, t, f) {
			continue
		}
		out = append(out, &models.PostSummary{
			Post:        *p,
			ThreadTitle: t.Title,
			ForumID:     f.ID,
			ForumSlug:   f.Slug,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *postRepository) Latest(ctx context.Context, principal models.Principal, authorID *int64, limit int) ([]*models.PostSummary, error) {
	defer r.store.lock()()

	out := r.summaries(func(p *models.Post, _ *models.Thread, f *models.Forum) bool {
		if authorID != nil && p.AuthorID != *authorID {
			return false
		}
		return r.store.policy.CanView(f, principal)
	})
	return truncate(out, limit), nil
}

// Search matches posts containing every word of term, case-insensitively.
func (r *postRepository) Search(ctx context.Context, forumID int64, term string, offset uint64, limit int) ([]*models.PostSummary, int64, error) {
	defer r.store.lock()()

	words := strings.Fields(term)
	out := r.summaries(func(p *models.Post, t *models.Thread, _ *models.Forum) bool {
		if t.ForumID != forumID || len(words) == 0 {
			return false
		}
		for _, w := range words {
			if !containsFold(p.Body, w) {
				return false
			}
		}
		return true
	})
	return paginate(out, offset, limit), int64(len(out)), nil
}
