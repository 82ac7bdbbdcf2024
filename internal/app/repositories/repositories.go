package repositories

import (
	"context"
	"time"

	"github.com/yigit/uniforum/internal/app/models"
)

// ForumRepository persists the forum tree and its access lists
type ForumRepository interface {
	Create(ctx context.Context, forum *models.Forum) error
	GetByID(ctx context.Context, id int64) (*models.Forum, error)
	GetBySlug(ctx context.Context, slug string) (*models.Forum, error)
	// ListChildren returns the children of parentID (roots when nil) that
	// the principal can view, ordered by (ordering, title).
	ListChildren(ctx context.Context, parentID *int64, principal models.Principal) ([]*models.Forum, error)
	// SetAccess replaces the forum's allowed users and groups.
	SetAccess(ctx context.Context, forumID int64, users, groups []int64) error
}

// ThreadRepository persists threads and their denormalized counters
type ThreadRepository interface {
	Create(ctx context.Context, thread *models.Thread) error
	GetByID(ctx context.Context, id int64) (*models.Thread, error)
	// GetForUpdate reads the thread and locks its row until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*models.Thread, error)
	ListByForum(ctx context.Context, forumID int64, order models.ThreadOrder, offset uint64, limit int) ([]*models.Thread, int64, error)
	// ListActive returns threads with a post at or after since, busiest first.
	ListActive(ctx context.Context, forumID int64, since time.Time, limit int) ([]*models.Thread, error)
	// ListRecent returns the newest threads that have at least one post.
	ListRecent(ctx context.Context, forumID int64, limit int) ([]*models.Thread, error)
	// LatestActivity returns the most recently active threads across all
	// forums the principal can view.
	LatestActivity(ctx context.Context, principal models.Principal, limit int) ([]*models.Thread, error)
	IncrementViews(ctx context.Context, id int64) error
	// RecordReply bumps the post count and moves latest_post_time forward.
	// Callers must run it in the same transaction as the post insert. A
	// closed thread yields ErrThreadClosed.
	RecordReply(ctx context.Context, id int64, postTime time.Time) error
	SetClosed(ctx context.Context, id int64, closed bool) error
}

// PostRepository persists posts
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	ListByThread(ctx context.Context, threadID int64, offset uint64, limit int) ([]*models.Post, int64, error)
	// Latest returns the newest posts in forums the principal can view,
	// optionally restricted to one author.
	Latest(ctx context.Context, principal models.Principal, authorID *int64, limit int) ([]*models.PostSummary, error)
	// Search matches post bodies of one forum against a free-text term.
	Search(ctx context.Context, forumID int64, term string, offset uint64, limit int) ([]*models.PostSummary, int64, error)
}

// SubscriptionRepository persists thread subscriptions
type SubscriptionRepository interface {
	Exists(ctx context.Context, threadID, authorID int64) (bool, error)
	// Create inserts the subscription; an existing (thread, author) pair is left untouched.
	Create(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, threadID, authorID int64) (bool, error)
	// DeleteExcept removes every subscription of the author whose thread is not in keep.
	DeleteExcept(ctx context.Context, authorID int64, keep []int64) (int64, error)
	ListByThread(ctx context.Context, threadID int64) ([]*models.Subscription, error)
	// ListByAuthor returns the principal's subscriptions to threads in forums
	// the principal can still view.
	ListByAuthor(ctx context.Context, principal models.Principal) ([]*models.SubscriptionDetails, error)
}

// TxFn is executed by Store.WithTx with a Store bound to the transaction
type TxFn func(ctx context.Context, tx Store) error

// Store groups the repositories and owns transaction boundaries
type Store interface {
	Forums() ForumRepository
	Threads() ThreadRepository
	Posts() PostRepository
	Subscriptions() SubscriptionRepository
	// WithTx runs fn atomically: either every write made through tx
	// commits or none does. Calling WithTx on a transactional Store joins
	// the running transaction.
	WithTx(ctx context.Context, fn TxFn) error
	Ping(ctx context.Context) error
}
