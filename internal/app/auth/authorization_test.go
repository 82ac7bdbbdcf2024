package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
)

func user(id int64, groups ...int64) models.Principal {
	return models.Principal{UserID: id, Email: "u@example.com", Authenticated: true, GroupIDs: groups}
}

func TestCanView(t *testing.T) {
	policy := NewAccessPolicy()

	public := &models.Forum{ID: 1, Slug: "general"}
	byUser := &models.Forum{ID: 2, Slug: "staff", AllowedUsers: []int64{7}}
	byGroup := &models.Forum{ID: 3, Slug: "mods", AllowedGroups: []int64{2}}
	both := &models.Forum{ID: 4, Slug: "both", AllowedUsers: []int64{7}, AllowedGroups: []int64{2}}

	tests := []struct {
		name      string
		forum     *models.Forum
		principal models.Principal
		want      bool
	}{
		{"public anonymous", public, models.Anonymous(), true},
		{"public authenticated", public, user(9), true},
		{"restricted anonymous", byUser, models.Anonymous(), false},
		{"listed user", byUser, user(7), true},
		{"unlisted user", byUser, user(8), false},
		{"group member", byGroup, user(8, 1, 2), true},
		{"non member", byGroup, user(8, 1, 3), false},
		{"union via user", both, user(7), true},
		{"union via group", both, user(8, 2), true},
		{"union neither", both, user(8, 5), false},
		{"anonymous flagged principal with id", byUser, models.Principal{UserID: 7}, false},
		{"nil forum", nil, user(7), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.CanView(tt.forum, tt.principal))
		})
	}
}

func TestAuthorize(t *testing.T) {
	policy := NewAccessPolicy()
	restricted := &models.Forum{ID: 2, Slug: "staff", AllowedUsers: []int64{7}}

	require.NoError(t, policy.Authorize(restricted, user(7)))

	err := policy.Authorize(restricted, user(8))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAccessDenied))
}

func TestFilterVisible(t *testing.T) {
	policy := NewAccessPolicy()
	forums := []*models.Forum{
		{ID: 1, Slug: "a"},
		{ID: 2, Slug: "b", AllowedUsers: []int64{7}},
		{ID: 3, Slug: "c", AllowedGroups: []int64{4}},
		{ID: 4, Slug: "d"},
	}

	visible := policy.FilterVisible(forums, user(9, 4))
	require.Len(t, visible, 3)
	assert.Equal(t, "a", visible[0].Slug)
	assert.Equal(t, "c", visible[1].Slug)
	assert.Equal(t, "d", visible[2].Slug)

	// Bulk filtering agrees with per-row evaluation for every principal.
	for _, p := range []models.Principal{models.Anonymous(), user(7), user(1, 4), user(2)} {
		var expected []int64
		for _, f := range forums {
			if policy.CanView(f, p) {
				expected = append(expected, f.ID)
			}
		}
		var got []int64
		for _, f := range policy.FilterVisible(forums, p) {
			got = append(got, f.ID)
		}
		assert.Equal(t, expected, got)
	}
}

func TestVisibilityPredicate(t *testing.T) {
	policy := NewAccessPolicy()

	sql, args, err := policy.VisibilityPredicate("f", models.Anonymous()).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM forum_allowed_users au WHERE au.forum_id = f.id)")
	assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM forum_allowed_groups ag WHERE ag.forum_id = f.id)")
	assert.Empty(t, args)

	sql, args, err = policy.VisibilityPredicate("f", user(7)).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "au.user_id = ?")
	assert.NotContains(t, sql, "ANY(?)")
	assert.Equal(t, []interface{}{int64(7)}, args)

	sql, args, err = policy.VisibilityPredicate("forums", user(7, 1, 2)).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "ag.forum_id = forums.id AND ag.group_id = ANY(?)")
	require.Len(t, args, 2)
	assert.Equal(t, []int64{1, 2}, args[1])
}

func TestRequireStaff(t *testing.T) {
	policy := NewAccessPolicy()

	err := policy.RequireStaff(models.Anonymous())
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))

	err = policy.RequireStaff(user(3))
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))

	staff := user(3)
	staff.Staff = true
	assert.NoError(t, policy.RequireStaff(staff))
}

func TestMayNotify(t *testing.T) {
	policy := NewAccessPolicy()

	tests := []struct {
		name   string
		forum  *models.Forum
		userID int64
		want   bool
	}{
		{"public forum", &models.Forum{ID: 1}, 5, true},
		{"listed user", &models.Forum{ID: 2, AllowedUsers: []int64{5}}, 5, true},
		{"revoked user", &models.Forum{ID: 2, AllowedUsers: []int64{6}}, 5, false},
		{"group forum keeps unlisted users", &models.Forum{ID: 3, AllowedUsers: []int64{6}, AllowedGroups: []int64{2}}, 5, true},
		{"missing forum", nil, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.MayNotify(tt.forum, tt.userID))
		})
	}
}
