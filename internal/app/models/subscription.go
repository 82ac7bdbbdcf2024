package models

import "time"

// Subscription marks an author as wanting mail for replies to a thread.
// At most one exists per (thread, author).
type Subscription struct {
	ID          int64     `json:"id" db:"id"`
	ThreadID    int64     `json:"threadId" db:"thread_id"`
	AuthorID    int64     `json:"authorId" db:"author_id"`
	AuthorEmail string    `json:"authorEmail" db:"author_email"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// SubscriptionDetails adds the thread title for the "my subscriptions" view
type SubscriptionDetails struct {
	Subscription
	ThreadTitle string `json:"threadTitle" db:"thread_title"`
	ForumSlug   string `json:"forumSlug" db:"forum_slug"`
}
