package repositories

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
)

var (
	member = models.Principal{UserID: 2, Authenticated: true, GroupIDs: []int64{7}}
	loner  = models.Principal{UserID: 3, Authenticated: true}
)

func TestDeleteExceptQuery(t *testing.T) {
	t.Run("with keep list", func(t *testing.T) {
		sql, args, err := deleteExceptQuery(5, []int64{10, 11}).ToSql()
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM subscriptions WHERE author_id = $1 AND NOT (thread_id = ANY($2))", sql)
		assert.Equal(t, []interface{}{int64(5), []int64{10, 11}}, args)
	})

	t.Run("empty keep removes everything of the author", func(t *testing.T) {
		sql, args, err := deleteExceptQuery(5, nil).ToSql()
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM subscriptions WHERE author_id = $1", sql)
		assert.Equal(t, []interface{}{int64(5)}, args)
	})
}

func TestListChildrenQuery(t *testing.T) {
	policy := auth.NewAccessPolicy()

	t.Run("roots for anonymous", func(t *testing.T) {
		sql, args, err := listChildrenQuery(policy, nil, models.Anonymous()).ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM forum_allowed_users au WHERE au.forum_id = f.id)")
		assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM forum_allowed_groups ag WHERE ag.forum_id = f.id)")
		assert.Contains(t, sql, "f.parent_id IS NULL")
		assert.Contains(t, sql, "ORDER BY f.ordering, f.title, f.id")
		assert.NotContains(t, sql, "au.user_id = $")
		assert.Empty(t, args)
	})

	t.Run("children for a group member", func(t *testing.T) {
		parent := int64(4)
		sql, args, err := listChildrenQuery(policy, &parent, member).ToSql()
		require.NoError(t, err)
		assert.Contains(t, sql, "au.user_id = $1")
		assert.Contains(t, sql, "ag.group_id = ANY($2)")
		assert.Contains(t, sql, "f.parent_id = $3")
		assert.Equal(t, []interface{}{int64(2), []int64{7}, int64(4)}, args)
	})

	t.Run("no group clause without groups", func(t *testing.T) {
		parent := int64(4)
		sql, args, err := listChildrenQuery(policy, &parent, loner).ToSql()
		require.NoError(t, err)
		assert.NotContains(t, sql, "ag.group_id = ANY")
		assert.Equal(t, []interface{}{int64(3), int64(4)}, args)
	})
}

func TestLatestActivityQuery(t *testing.T) {
	sql, args, err := latestActivityQuery(auth.NewAccessPolicy(), member, 10).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM threads t JOIN forums f ON f.id = t.forum_id")
	assert.Contains(t, sql, "au.user_id = $1")
	assert.Contains(t, sql, "ag.group_id = ANY($2)")
	assert.Contains(t, sql, "ORDER BY t.latest_post_time DESC, t.id DESC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Equal(t, []interface{}{int64(2), []int64{7}}, args)
}

func TestListByAuthorQuery_FiltersByVisibility(t *testing.T) {
	sql, args, err := listByAuthorQuery(auth.NewAccessPolicy(), loner).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "JOIN forums f ON f.id = t.forum_id")
	assert.Contains(t, sql, "s.author_id = $1")
	assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM forum_allowed_users au WHERE au.forum_id = f.id)")
	assert.Contains(t, sql, "au.user_id = $2")
	assert.Equal(t, []interface{}{int64(3), int64(3)}, args)
}

func TestGetThreadQuery(t *testing.T) {
	sql, args, err := getThreadQuery(9, false).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "WHERE t.id = $1")
	assert.NotContains(t, sql, "FOR UPDATE")
	assert.Equal(t, []interface{}{int64(9)}, args)

	sql, _, err = getThreadQuery(9, true).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "WHERE t.id = $1 FOR UPDATE"), sql)
}

func TestRecordReplySQL_SkipsClosedThreads(t *testing.T) {
	assert.Contains(t, recordReplySQL, "WHERE id = $1 AND NOT closed")
}
