// Package memory implements repositories.Store in process memory. It backs
// local runs with storage.driver=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/app/repositories"
)

type subKey struct {
	threadID int64
	authorID int64
}

// dataset is the full store state. It is copied wholesale to snapshot a
// transaction.
type dataset struct {
	forums        map[int64]*models.Forum
	threads       map[int64]*models.Thread
	posts         map[int64]*models.Post
	subscriptions map[subKey]*models.Subscription
	nextID        int64
}

func newDataset() *dataset {
	return &dataset{
		forums:        make(map[int64]*models.Forum),
		threads:       make(map[int64]*models.Thread),
		posts:         make(map[int64]*models.Post),
		subscriptions: make(map[subKey]*models.Subscription),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	c.nextID = d.nextID
	for id, f := range d.forums {
		c.forums[id] = f.Clone()
	}
	for id, t := range d.threads {
		cp := *t
		c.threads[id] = &cp
	}
	for id, p := range d.posts {
		cp := *p
		c.posts[id] = &cp
	}
	for k, s := range d.subscriptions {
		cp := *s
		c.subscriptions[k] = &cp
	}
	return c
}

func (d *dataset) id() int64 {
	d.nextID++
	return d.nextID
}

// Store keeps every entity in maps guarded by one mutex
type Store struct {
	mu     *sync.Mutex
	data   **dataset
	policy *auth.AccessPolicy
	now    func() time.Time
	inTx   bool
}

// New creates an empty in-memory store
func New(policy *auth.AccessPolicy) *Store {
	data := newDataset()
	return &Store{
		mu:     &sync.Mutex{},
		data:   &data,
		policy: policy,
		now:    time.Now,
	}
}

// lock acquires the store mutex unless the caller already runs inside WithTx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) state() *dataset {
	return *s.data
}

// Forums returns the forum repository
func (s *Store) Forums() repositories.ForumRepository {
	return &forumRepository{store: s}
}

// Threads returns the thread repository
func (s *Store) Threads() repositories.ThreadRepository {
	return &threadRepository{store: s}
}

// Posts returns the post repository
func (s *Store) Posts() repositories.PostRepository {
	return &postRepository{store: s}
}

// Subscriptions returns the subscription repository
func (s *Store) Subscriptions() repositories.SubscriptionRepository {
	return &subscriptionRepository{store: s}
}

// WithTx holds the store mutex for the whole of fn and restores the
// pre-transaction snapshot when fn fails or panics.
func (s *Store) WithTx(ctx context.Context, fn repositories.TxFn) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state().clone()
	committed := false
	defer func() {
		if !committed {
			*s.data = snapshot
		}
	}()

	tx := &Store{mu: s.mu, data: s.data, policy: s.policy, now: s.now, inTx: true}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	committed = true
	return nil
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func paginate[T any](items []T, offset uint64, limit int) []T {
	if offset >= uint64(len(items)) {
		return []T{}
	}
	end := int(offset) + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortThreadsByLatest(threads []*models.Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		if !threads[i].LatestPostTime.Equal(threads[j].LatestPostTime) {
			return threads[i].LatestPostTime.After(threads[j].LatestPostTime)
		}
		return threads[i].ID > threads[j].ID
	})
}
