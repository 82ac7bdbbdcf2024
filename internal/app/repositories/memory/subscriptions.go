package memory

import (
	"context"
	"sort"

	"github.com/yigit/uniforum/internal/app/models"
)

type subscriptionRepository struct {
	store *Store
}

func (r *subscriptionRepository) Exists(ctx context.Context, threadID, authorID int64) (bool, error) {
	defer r.store.lock()()

	_, ok := r.store.state().subscriptions[subKey{threadID, authorID}]
	return ok, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	defer r.store.lock()()
	data := r.store.state()

	if _, ok := data.threads[sub.ThreadID]; !ok {
		return threadNotFound(sub.ThreadID)
	}
	key := subKey{sub.ThreadID, sub.AuthorID}
	if _, ok := data.subscriptions[key]; ok {
		return nil
	}

	sub.ID = data.id()
	sub.CreatedAt = r.store.now().UTC()
	cp := *sub
	data.subscriptions[key] = &cp
	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, threadID, authorID int64) (bool, error) {
	defer r.store.lock()()
	data := r.store.state()

	key := subKey{threadID, authorID}
	if _, ok := data.subscriptions[key]; !ok {
		return false, nil
	}
	delete(data.subscriptions, key)
	return true, nil
}

func (r *subscriptionRepository) DeleteExcept(ctx context.Context, authorID int64, keep []int64) (int64, error) {
	defer r.store.lock()()
	data := r.store.state()

	kept := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}

	var removed int64
	for key := range data.subscriptions {
		if key.authorID != authorID {
			continue
		}
		if _, ok := kept[key.threadID]; ok {
			continue
		}
		delete(data.subscriptions, key)
		removed++
	}
	return removed, nil
}

func (r *subscriptionRepository) ListByThread(ctx context.Context, threadID int64) ([]*models.Subscription, error) {
	defer r.store.lock()()

	subs := []*models.Subscription{}
	for key, s := range r.store.state().subscriptions {
		if key.threadID == threadID {
			cp := *s
			subs = append(subs, &cp)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (r *subscriptionRepository) ListByAuthor(ctx context.Context, principal models.Principal) ([]*models.SubscriptionDetails, error) {
	defer r.store.lock()()
	data := r.store.state()

	subs := []*models.SubscriptionDetails{}
	for key, s := range data.subscriptions {
		if key.authorID != principal.ID() {
			continue
		}
		t := data.threads[s.ThreadID]
		if t == nil {
			continue
		}
		f := data.forums[t.ForumID]
		if f == nil || !r.store.policy.CanView(f, principal) {
			continue
		}
		subs = append(subs, &models.SubscriptionDetails{
			Subscription: *s,
			ThreadTitle:  t.Title,
			ForumSlug:    f.Slug,
		})
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}
