package models

import "time"

// ThreadOrder selects the ordering of a forum's thread listing
type ThreadOrder string

const (
	// ThreadOrderLatest orders by latest post time, newest first
	ThreadOrderLatest ThreadOrder = "latest"
	// ThreadOrderRecent orders by creation (id), newest first
	ThreadOrderRecent ThreadOrder = "recent"
)

// ParseThreadOrder maps a query value to a ThreadOrder, defaulting to latest.
func ParseThreadOrder(s string) ThreadOrder {
	if ThreadOrder(s) == ThreadOrderRecent {
		return ThreadOrderRecent
	}
	return ThreadOrderLatest
}

// Thread belongs to one forum. Posts and LatestPostTime are denormalized
// from the thread's posts and only change through the reply path.
type Thread struct {
	ID             int64     `json:"id" db:"id"`
	ForumID        int64     `json:"forumId" db:"forum_id"`
	Title          string    `json:"title" db:"title"`
	Closed         bool      `json:"closed" db:"closed"`
	Views          int64     `json:"views" db:"views"`
	Posts          int64     `json:"posts" db:"posts"`
	LatestPostTime time.Time `json:"latestPostTime" db:"latest_post_time"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
