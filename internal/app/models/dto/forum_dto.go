package dto

import (
	"time"

	"github.com/yigit/uniforum/internal/app/models"
)

// CreateThreadRequest opens a thread with its first post
type CreateThreadRequest struct {
	Title     string `json:"title" binding:"required" example:"How do I configure TLS?"`
	Body      string `json:"body" binding:"required" example:"I tried the following..."`
	Subscribe bool   `json:"subscribe" example:"true"`
}

// ReplyRequest adds a post to an existing thread
type ReplyRequest struct {
	Body      string `json:"body" binding:"required" example:"Have you checked the certificate chain?"`
	Subscribe bool   `json:"subscribe" example:"false"`
}

// UpdateSubscriptionsRequest keeps exactly the listed subscriptions.
// Threads left out are unsubscribed.
type UpdateSubscriptionsRequest struct {
	KeepThreadIDs []int64 `json:"keepThreadIds" binding:"required,dive,gt=0"`
}

// CreateForumRequest is the staff request for a new forum
type CreateForumRequest struct {
	Title         string  `json:"title" binding:"required,max=100" example:"Announcements"`
	Slug          string  `json:"slug" binding:"required,max=50" example:"announcements"`
	Description   string  `json:"description" example:"News from the team"`
	ParentSlug    *string `json:"parentSlug,omitempty" example:"general"`
	Ordering      int     `json:"ordering" example:"10"`
	AllowedUsers  []int64 `json:"allowedUsers" binding:"omitempty,dive,gt=0"`
	AllowedGroups []int64 `json:"allowedGroups" binding:"omitempty,dive,gt=0"`
}

// ForumAccessRequest replaces a forum's access lists. Both empty makes the forum public.
type ForumAccessRequest struct {
	AllowedUsers  []int64 `json:"allowedUsers" binding:"omitempty,dive,gt=0"`
	AllowedGroups []int64 `json:"allowedGroups" binding:"omitempty,dive,gt=0"`
}

// ThreadClosedRequest closes or reopens a thread
type ThreadClosedRequest struct {
	Closed *bool `json:"closed" binding:"required" example:"true"`
}

// ForumResponse is the public view of a forum. Access lists are not exposed.
type ForumResponse struct {
	ID          int64     `json:"id" example:"1"`
	Title       string    `json:"title" example:"General"`
	Slug        string    `json:"slug" example:"general"`
	Description string    `json:"description"`
	ParentID    *int64    `json:"parentId,omitempty"`
	Ordering    int       `json:"ordering"`
	Restricted  bool      `json:"restricted"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ForumDetailResponse bundles what a forum page shows
type ForumDetailResponse struct {
	Forum         ForumResponse    `json:"forum"`
	Breadcrumbs   []ForumResponse  `json:"breadcrumbs"`
	Children      []ForumResponse  `json:"children"`
	ActiveThreads []*models.Thread `json:"activeThreads"`
	RecentThreads []*models.Thread `json:"recentThreads"`
}

// ThreadDetailResponse is a thread with the forum it lives in
type ThreadDetailResponse struct {
	Thread *models.Thread `json:"thread"`
	Forum  ForumResponse  `json:"forum"`
}

// CreateThreadResponse returns the new thread and its opening post
type CreateThreadResponse struct {
	Thread *models.Thread `json:"thread"`
	Post   *models.Post   `json:"post"`
}

// BulkUpdateResponse reports how many subscriptions were removed
type BulkUpdateResponse struct {
	Removed int64 `json:"removed" example:"2"`
}

// SearchResponse carries search hits. Available is false when the search
// backend is disabled or failing.
type SearchResponse struct {
	Available  bool                  `json:"available"`
	Term       string                `json:"term"`
	Hits       []*models.PostSummary `json:"hits"`
	Pagination PaginationInfo        `json:"pagination"`
}

// FromForum converts a models.Forum to a ForumResponse
func FromForum(f *models.Forum) ForumResponse {
	return ForumResponse{
		ID:          f.ID,
		Title:       f.Title,
		Slug:        f.Slug,
		Description: f.Description,
		ParentID:    f.ParentID,
		Ordering:    f.Ordering,
		Restricted:  f.IsRestricted(),
		CreatedAt:   f.CreatedAt,
	}
}

// FromForums converts a slice of forums
func FromForums(forums []*models.Forum) []ForumResponse {
	out := make([]ForumResponse, 0, len(forums))
	for _, f := range forums {
		out = append(out, FromForum(f))
	}
	return out
}
