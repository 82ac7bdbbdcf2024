package models

import "time"

// Forum is a node of the forum tree. Empty AllowedUsers and AllowedGroups
// make the forum public.
type Forum struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Slug          string    `json:"slug" db:"slug"`
	Description   string    `json:"description" db:"description"`
	ParentID      *int64    `json:"parentId,omitempty" db:"parent_id"`
	Ordering      int       `json:"ordering" db:"ordering"`
	AllowedUsers  []int64   `json:"allowedUsers,omitempty"`
	AllowedGroups []int64   `json:"allowedGroups,omitempty"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// IsRestricted reports whether access is limited to listed users or groups.
func (f *Forum) IsRestricted() bool {
	return len(f.AllowedUsers) > 0 || len(f.AllowedGroups) > 0
}

// Clone returns a deep copy of the forum.
func (f *Forum) Clone() *Forum {
	c := *f
	if f.ParentID != nil {
		id := *f.ParentID
		c.ParentID = &id
	}
	c.AllowedUsers = append([]int64(nil), f.AllowedUsers...)
	c.AllowedGroups = append([]int64(nil), f.AllowedGroups...)
	return &c
}
