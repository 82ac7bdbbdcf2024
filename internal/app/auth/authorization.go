package auth

import (
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
)

// AccessPolicy decides which forums a principal may see. Visibility of a
// forum governs every thread and post inside it.
type AccessPolicy struct{}

// NewAccessPolicy creates a new AccessPolicy
func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

// CanView reports whether the principal may view the forum.
//
// A forum with no allowed users and no allowed groups is public. Otherwise
// the principal must be authenticated and either be listed directly or
// share at least one group with the forum.
func (a *AccessPolicy) CanView(forum *models.Forum, principal models.Principal) bool {
	if forum == nil {
		return false
	}
	if !forum.IsRestricted() {
		return true
	}
	if !principal.IsAuthenticated() {
		return false
	}

	for _, uid := range forum.AllowedUsers {
		if uid == principal.ID() {
			return true
		}
	}

	groups := principal.Groups()
	for _, gid := range forum.AllowedGroups {
		if _, ok := groups[gid]; ok {
			return true
		}
	}

	return false
}

// Authorize returns ErrAccessDenied when the principal cannot view the forum.
func (a *AccessPolicy) Authorize(forum *models.Forum, principal models.Principal) error {
	if a.CanView(forum, principal) {
		return nil
	}
	return apperrors.NewAccessDeniedError(fmt.Sprintf("forum %q is not accessible", forumSlug(forum)))
}

// MayNotify reports whether mail about the forum may go to userID. Only
// the user id of a subscriber is known at send time, so a user who is not
// listed directly is kept when the forum also admits groups.
func (a *AccessPolicy) MayNotify(forum *models.Forum, userID int64) bool {
	if forum == nil {
		return false
	}
	if !forum.IsRestricted() {
		return true
	}
	for _, uid := range forum.AllowedUsers {
		if uid == userID {
			return true
		}
	}
	return len(forum.AllowedGroups) > 0
}

// FilterVisible keeps the forums the principal can view, preserving order.
func (a *AccessPolicy) FilterVisible(forums []*models.Forum, principal models.Principal) []*models.Forum {
	visible := make([]*models.Forum, 0, len(forums))
	for _, f := range forums {
		if a.CanView(f, principal) {
			visible = append(visible, f)
		}
	}
	return visible
}

// VisibilityPredicate returns the SQL form of CanView for a forums table
// referenced by alias. It lets listing queries filter a whole result set
// in the database instead of checking rows one by one.
func (a *AccessPolicy) VisibilityPredicate(alias string, principal models.Principal) squirrel.Sqlizer {
	public := squirrel.And{
		squirrel.Expr(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM forum_allowed_users au WHERE au.forum_id = %s.id)", alias)),
		squirrel.Expr(fmt.Sprintf("NOT EXISTS (SELECT 1 FROM forum_allowed_groups ag WHERE ag.forum_id = %s.id)", alias)),
	}

	if !principal.IsAuthenticated() {
		return public
	}

	visible := squirrel.Or{
		public,
		squirrel.Expr(fmt.Sprintf("EXISTS (SELECT 1 FROM forum_allowed_users au WHERE au.forum_id = %s.id AND au.user_id = ?)", alias), principal.ID()),
	}
	if len(principal.GroupIDs) > 0 {
		visible = append(visible, squirrel.Expr(
			fmt.Sprintf("EXISTS (SELECT 1 FROM forum_allowed_groups ag WHERE ag.forum_id = %s.id AND ag.group_id = ANY(?))", alias),
			principal.GroupIDs,
		))
	}
	return visible
}

// RequireAuthenticated rejects anonymous principals.
func (a *AccessPolicy) RequireAuthenticated(principal models.Principal) error {
	if principal.IsAuthenticated() {
		return nil
	}
	return apperrors.NewUnauthenticatedError("you must be signed in to do this")
}

// RequireStaff rejects principals without the staff flag.
func (a *AccessPolicy) RequireStaff(principal models.Principal) error {
	if err := a.RequireAuthenticated(principal); err != nil {
		return err
	}
	if !principal.IsStaff() {
		return apperrors.NewForbiddenError("staff permission required")
	}
	return nil
}

func forumSlug(f *models.Forum) string {
	if f == nil {
		return ""
	}
	return f.Slug
}
