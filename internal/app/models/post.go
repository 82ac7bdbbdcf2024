package models

import "time"

// Post is an immutable entry of a thread's flat post stream
type Post struct {
	ID          int64     `json:"id" db:"id"`
	ThreadID    int64     `json:"threadId" db:"thread_id"`
	AuthorID    int64     `json:"authorId" db:"author_id"`
	AuthorName  string    `json:"authorName" db:"author_name"`
	Body        string    `json:"body" db:"body"`
	SubmittedAt time.Time `json:"submittedAt" db:"submitted_at"`
}

// PostSummary is a post joined with the thread and forum it belongs to.
// Used by activity listings and search hits.
type PostSummary struct {
	Post
	ThreadTitle string `json:"threadTitle" db:"thread_title"`
	ForumID     int64  `json:"forumId" db:"forum_id"`
	ForumSlug   string `json:"forumSlug" db:"forum_slug"`
}
