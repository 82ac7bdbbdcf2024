package services

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/app/repositories"
	"github.com/yigit/uniforum/internal/app/repositories/memory"
	"github.com/yigit/uniforum/internal/app/search"
	"github.com/yigit/uniforum/internal/pkg/apperrors"
	"github.com/yigit/uniforum/internal/pkg/helpers"
)

type notifyCall struct {
	threadID   int64
	postID     int64
	recipients []string
	deadline   bool
}

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (d *recordingDispatcher) Notify(ctx context.Context, thread *models.Thread, post *models.Post, recipients []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	d.calls = append(d.calls, notifyCall{
		threadID:   thread.ID,
		postID:     post.ID,
		recipients: recipients,
		deadline:   hasDeadline,
	})
	return d.err
}

func (d *recordingDispatcher) Calls() []notifyCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notifyCall(nil), d.calls...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	store      *memory.Store
	svc        *Services
	dispatcher *recordingDispatcher
	clock      *clock
	general    *models.Forum
}

var (
	alice = models.Principal{UserID: 1, Email: "alice@example.com", Name: "Alice", Authenticated: true}
	bob   = models.Principal{UserID: 2, Email: "bob@example.com", Name: "Bob", Authenticated: true, GroupIDs: []int64{7}}
	staff = models.Principal{UserID: 99, Email: "staff@example.com", Name: "Staff", Authenticated: true, Staff: true}
	anon  = models.Anonymous()
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	policy := auth.NewAccessPolicy()
	store := memory.New(policy)
	general := &models.Forum{Title: "General", Slug: "general"}
	require.NoError(t, store.Forums().Create(context.Background(), general))

	f := &fixture{
		store:      store,
		dispatcher: &recordingDispatcher{},
		clock:      &clock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
		general:    general,
	}
	f.svc = NewServices(store, policy, f.dispatcher, search.NewStoreAdapter(store, zerolog.Nop()), Options{Now: f.clock.Now}, zerolog.Nop())
	return f
}

func (f *fixture) restrictedForum(t *testing.T, slug string, users, groups []int64) *models.Forum {
	t.Helper()
	forum := &models.Forum{Title: slug, Slug: slug, AllowedUsers: users, AllowedGroups: groups}
	require.NoError(t, f.store.Forums().Create(context.Background(), forum))
	return forum
}

func (f *fixture) thread(t *testing.T, id int64) *models.Thread {
	t.Helper()
	thread, err := f.store.Threads().GetByID(context.Background(), id)
	require.NoError(t, err)
	return thread
}

func (f *fixture) subscribed(t *testing.T, threadID, authorID int64) bool {
	t.Helper()
	ok, err := f.store.Subscriptions().Exists(context.Background(), threadID, authorID)
	require.NoError(t, err)
	return ok
}

func (f *fixture) postCount(t *testing.T, threadID int64) int64 {
	t.Helper()
	_, total, err := f.store.Posts().ListByThread(context.Background(), threadID, 0, 0)
	require.NoError(t, err)
	return total
}

func TestScenario_AliceAndBob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, post, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "Hello", Body: "Hi all", Subscribe: true})
	require.NoError(t, err)
	assert.Equal(t, "Hello", thread.Title)
	assert.Equal(t, int64(1), thread.Posts)
	assert.Equal(t, alice.UserID, post.AuthorID)
	assert.Equal(t, "Hi all", post.Body)
	assert.True(t, f.subscribed(t, thread.ID, alice.UserID))

	_, err = f.svc.Posts.AddReply(ctx, anon, thread.ID, Reply{Body: "me too"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
	assert.Equal(t, int64(1), f.thread(t, thread.ID).Posts)

	_, err = f.svc.Posts.AddReply(ctx, alice, thread.ID, Reply{Body: "again", Subscribe: false})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.thread(t, thread.ID).Posts)
	assert.False(t, f.subscribed(t, thread.ID, alice.UserID))
}

func TestCreateWithOpeningPost_Counters(t *testing.T) {
	f := newFixture(t)
	t0 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f.clock.Set(t0)

	thread, post, err := f.svc.Threads.CreateWithOpeningPost(context.Background(), alice, "general", NewThread{Title: "  T  ", Body: "B"})
	require.NoError(t, err)

	stored := f.thread(t, thread.ID)
	assert.Equal(t, "T", stored.Title)
	assert.Equal(t, int64(1), stored.Posts)
	assert.True(t, stored.LatestPostTime.Equal(t0))
	assert.True(t, post.SubmittedAt.Equal(t0))
	assert.Equal(t, int64(1), f.postCount(t, thread.ID))
	assert.False(t, f.subscribed(t, thread.ID, alice.UserID))
}

func TestCreateWithOpeningPost_Rejections(t *testing.T) {
	f := newFixture(t)
	f.restrictedForum(t, "staff-room", []int64{staff.UserID}, nil)
	long := make([]rune, 101)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name      string
		principal models.Principal
		slug      string
		input     NewThread
		want      error
	}{
		{"anonymous", anon, "general", NewThread{Title: "T", Body: "B"}, apperrors.ErrUnauthenticated},
		{"empty title", alice, "general", NewThread{Title: "   ", Body: "B"}, apperrors.ErrValidationFailed},
		{"empty body", alice, "general", NewThread{Title: "T", Body: " \n"}, apperrors.ErrValidationFailed},
		{"title too long", alice, "general", NewThread{Title: string(long), Body: "B"}, apperrors.ErrValidationFailed},
		{"missing forum", alice, "nope", NewThread{Title: "T", Body: "B"}, apperrors.ErrResourceNotFound},
		{"restricted forum", alice, "staff-room", NewThread{Title: "T", Body: "B"}, apperrors.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Threads.CreateWithOpeningPost(context.Background(), tt.principal, tt.slug, tt.input)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	page, err := f.svc.Threads.ListByForum(context.Background(), f.general, alice, models.ThreadOrderLatest, Page{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestCreateWithOpeningPost_TitleLengthCountsRunes(t *testing.T) {
	f := newFixture(t)
	title := ""
	for i := 0; i < 100; i++ {
		title += "ü"
	}

	_, _, err := f.svc.Threads.CreateWithOpeningPost(context.Background(), alice, "general", NewThread{Title: title, Body: "B"})
	assert.NoError(t, err)
}

func TestAddReply_CountersFollowReplies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B"})
	require.NoError(t, err)

	offsets := []time.Duration{5 * time.Minute, 2 * time.Hour, 30 * time.Minute, -time.Hour}
	for _, off := range offsets {
		f.clock.Set(base.Add(off))
		_, err := f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "reply"})
		require.NoError(t, err)
	}

	stored := f.thread(t, thread.ID)
	assert.Equal(t, int64(1+len(offsets)), stored.Posts)
	assert.Equal(t, stored.Posts, f.postCount(t, thread.ID))
	assert.True(t, stored.LatestPostTime.Equal(base.Add(2*time.Hour)))
}

func TestAddReply_ConcurrentRepliesKeepExactCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B"})
	require.NoError(t, err)

	const replies = 50
	var wg sync.WaitGroup
	errs := make(chan error, replies)
	for i := 0; i < replies; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			principal := bob
			if i%2 == 0 {
				principal = alice
			}
			_, err := f.svc.Posts.AddReply(ctx, principal, thread.ID, Reply{Body: "concurrent", Subscribe: i%3 == 0})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	stored := f.thread(t, thread.ID)
	assert.Equal(t, int64(1+replies), stored.Posts)
	assert.Equal(t, stored.Posts, f.postCount(t, thread.ID))
}

func TestAddReply_ClosedThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B"})
	require.NoError(t, err)
	_, err = f.svc.Threads.SetClosed(ctx, staff, thread.ID, true)
	require.NoError(t, err)

	_, err = f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "late", Subscribe: true})
	assert.True(t, errors.Is(err, apperrors.ErrThreadClosed))
	assert.Equal(t, int64(1), f.thread(t, thread.ID).Posts)
	assert.Equal(t, int64(1), f.postCount(t, thread.ID))
	assert.False(t, f.subscribed(t, thread.ID, bob.UserID))

	reopened, err := f.svc.Threads.SetClosed(ctx, staff, thread.ID, false)
	require.NoError(t, err)
	assert.False(t, reopened.Closed)
	_, err = f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "now"})
	assert.NoError(t, err)
}

// closingStore closes a thread right before the first transaction starts,
// as a concurrent staff action would.
type closingStore struct {
	*memory.Store
	threadID int64
	once     sync.Once
}

func (s *closingStore) WithTx(ctx context.Context, fn repositories.TxFn) error {
	s.once.Do(func() {
		_ = s.Store.Threads().SetClosed(ctx, s.threadID, true)
	})
	return s.Store.WithTx(ctx, fn)
}

func TestAddReply_ThreadClosedAfterCheck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B", Subscribe: true})
	require.NoError(t, err)

	store := &closingStore{Store: f.store, threadID: thread.ID}
	svc := NewServices(store, auth.NewAccessPolicy(), f.dispatcher, nil, Options{Now: f.clock.Now}, zerolog.Nop())

	_, err = svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "racing", Subscribe: true})
	assert.True(t, errors.Is(err, apperrors.ErrThreadClosed), "got %v", err)
	assert.Equal(t, int64(1), f.thread(t, thread.ID).Posts)
	assert.Equal(t, int64(1), f.postCount(t, thread.ID))
	assert.False(t, f.subscribed(t, thread.ID, bob.UserID))
	assert.Empty(t, f.dispatcher.Calls())
}

func TestAddReply_FailuresLeaveNoSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hidden := f.restrictedForum(t, "hidden", []int64{alice.UserID}, nil)

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, hidden.Slug, NewThread{Title: "Secret", Body: "B"})
	require.NoError(t, err)

	_, err = f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "let me in", Subscribe: true})
	assert.True(t, errors.Is(err, apperrors.ErrAccessDenied))

	_, err = f.svc.Posts.AddReply(ctx, alice, thread.ID, Reply{Body: "  ", Subscribe: true})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	_, err = f.svc.Posts.AddReply(ctx, alice, 424242, Reply{Body: "x"})
	assert.True(t, errors.Is(err, apperrors.ErrThreadNotFound))

	assert.Equal(t, int64(1), f.thread(t, thread.ID).Posts)
	assert.Equal(t, int64(1), f.postCount(t, thread.ID))
	assert.False(t, f.subscribed(t, thread.ID, bob.UserID))
	assert.False(t, f.subscribed(t, thread.ID, alice.UserID))
	assert.Empty(t, f.dispatcher.Calls())
}

func TestAddReply_GroupMemberMayReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	club := f.restrictedForum(t, "club", []int64{alice.UserID}, []int64{7})

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, club.Slug, NewThread{Title: "T", Body: "B"})
	require.NoError(t, err)

	_, err = f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "group access"})
	assert.NoError(t, err)
}

func TestReconcile_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B"})
	require.NoError(t, err)

	reconcile := func(wants bool) {
		err := f.store.WithTx(ctx, func(ctx context.Context, tx repositories.Store) error {
			return f.svc.Subscriptions.Reconcile(ctx, tx, thread.ID, bob, wants)
		})
		require.NoError(t, err)
	}

	reconcile(true)
	reconcile(true)
	subs, err := f.store.Subscriptions().ListByThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
	assert.Equal(t, bob.Email, subs[0].AuthorEmail)

	reconcile(false)
	reconcile(false)
	subs, err = f.store.Subscriptions().ListByThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestNotification_SentAfterReplyToAllSubscribers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B", Subscribe: true})
	require.NoError(t, err)
	assert.Empty(t, f.dispatcher.Calls(), "thread creation does not notify")

	post, err := f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "hi", Subscribe: true})
	require.NoError(t, err)

	calls := f.dispatcher.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, thread.ID, calls[0].threadID)
	assert.Equal(t, post.ID, calls[0].postID)
	assert.ElementsMatch(t, []string{alice.Email, bob.Email}, calls[0].recipients)
	assert.True(t, calls[0].deadline)
}

type signalingDispatcher struct {
	done chan notifyCall
}

func (d *signalingDispatcher) Notify(ctx context.Context, thread *models.Thread, post *models.Post, recipients []string) error {
	_, hasDeadline := ctx.Deadline()
	d.done <- notifyCall{threadID: thread.ID, postID: post.ID, recipients: recipients, deadline: hasDeadline}
	return ctx.Err()
}

func TestNotification_AsyncOutlivesRequestContext(t *testing.T) {
	f := newFixture(t)
	dispatcher := &signalingDispatcher{done: make(chan notifyCall, 4)}
	svc := NewServices(f.store, auth.NewAccessPolicy(), dispatcher, nil, Options{Now: f.clock.Now, AsyncNotify: true}, zerolog.Nop())

	thread, _, err := svc.Threads.CreateWithOpeningPost(context.Background(), alice, "general", NewThread{Title: "T", Body: "B", Subscribe: true})
	require.NoError(t, err)

	const replies = 5
	for i := 0; i < replies; i++ {
		reqCtx, cancel := context.WithCancel(context.Background())
		_, err := svc.Posts.AddReply(reqCtx, bob, thread.ID, Reply{Body: "async"})
		cancel()
		require.NoError(t, err)
	}

	for i := 0; i < replies; i++ {
		select {
		case call := <-dispatcher.done:
			assert.Equal(t, thread.ID, call.threadID)
			assert.Equal(t, []string{alice.Email}, call.recipients)
			assert.True(t, call.deadline)
		case <-time.After(5 * time.Second):
			t.Fatalf("notification %d not dispatched", i)
		}
	}
}

func TestNotification_NotCalledWithoutSubscribers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B"})
	require.NoError(t, err)
	_, err = f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "hi"})
	require.NoError(t, err)

	assert.Empty(t, f.dispatcher.Calls())
}

func TestNotification_FailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.dispatcher.err = errors.New("smtp down")

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B", Subscribe: true})
	require.NoError(t, err)

	post, err := f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "hi", Subscribe: true})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Len(t, f.dispatcher.Calls(), 1)
	assert.Equal(t, int64(2), f.thread(t, thread.ID).Posts)
	assert.True(t, f.subscribed(t, thread.ID, bob.UserID))
}

func TestSubscribersOf_DeduplicatesAndSkipsEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B", Subscribe: true})
	require.NoError(t, err)

	twin := models.Principal{UserID: 3, Email: "ALICE@example.com", Authenticated: true}
	noMail := models.Principal{UserID: 4, Authenticated: true}
	for _, p := range []models.Principal{twin, noMail} {
		_, err := f.svc.Posts.AddReply(ctx, p, thread.ID, Reply{Body: "x", Subscribe: true})
		require.NoError(t, err)
	}

	addrs, err := f.svc.Subscriptions.SubscribersOf(ctx, f.general, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.Email}, addrs)
}

func TestBulkUpdate_KeepsExactlyTheKeepSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	var threadIDs []int64
	for i := 0; i < 12; i++ {
		thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, bob, "general", NewThread{Title: "T", Body: "B", Subscribe: true})
		require.NoError(t, err)
		threadIDs = append(threadIDs, thread.ID)
	}

	for round := 0; round < 20; round++ {
		for _, id := range threadIDs {
			if rng.Intn(2) == 0 {
				_, err := f.svc.Posts.AddReply(ctx, alice, id, Reply{Body: "sub", Subscribe: true})
				require.NoError(t, err)
			}
		}
		before := subscribedThreads(t, f, alice)

		var keep []int64
		for _, id := range threadIDs {
			if rng.Intn(2) == 0 {
				keep = append(keep, id)
			}
		}
		keep = append(keep, 999999)

		removed, err := f.svc.Subscriptions.BulkUpdate(ctx, alice, keep)
		require.NoError(t, err)

		want := map[int64]bool{}
		for _, id := range keep {
			if before[id] {
				want[id] = true
			}
		}
		after := subscribedThreads(t, f, alice)
		assert.Equal(t, want, after)
		assert.Equal(t, int64(len(before)-len(after)), removed)

		again, err := f.svc.Subscriptions.BulkUpdate(ctx, alice, keep)
		require.NoError(t, err)
		assert.Zero(t, again)
		assert.Equal(t, after, subscribedThreads(t, f, alice))

		assert.Len(t, subscribedThreads(t, f, bob), len(threadIDs), "other authors are untouched")
	}
}

func TestBulkUpdate_EmptyKeepRemovesAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B", Subscribe: true})
		require.NoError(t, err)
	}

	removed, err := f.svc.Subscriptions.BulkUpdate(ctx, alice, []int64{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Empty(t, subscribedThreads(t, f, alice))

	_, err = f.svc.Subscriptions.BulkUpdate(ctx, anon, nil)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))

	_, err = f.svc.Subscriptions.BulkUpdate(ctx, alice, []int64{-1})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
}

func subscribedThreads(t *testing.T, f *fixture, author models.Principal) map[int64]bool {
	t.Helper()
	subs, err := f.store.Subscriptions().ListByAuthor(context.Background(), author)
	require.NoError(t, err)
	out := map[int64]bool{}
	for _, s := range subs {
		out[s.ThreadID] = true
	}
	return out
}

func TestListForAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "Mine", Body: "B", Subscribe: true})
	require.NoError(t, err)

	subs, err := f.svc.Subscriptions.ListForAuthor(ctx, alice)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, thread.ID, subs[0].ThreadID)
	assert.Equal(t, "Mine", subs[0].ThreadTitle)
	assert.Equal(t, "general", subs[0].ForumSlug)

	_, err = f.svc.Subscriptions.ListForAuthor(ctx, anon)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
}

func TestRevokedAccess_HidesSubscriptionsAndStopsMail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "Open", Body: "B", Subscribe: true})
	require.NoError(t, err)
	_, err = f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "following", Subscribe: true})
	require.NoError(t, err)
	require.Len(t, f.dispatcher.Calls(), 1)

	_, err = f.svc.Forums.SetForumAccess(ctx, staff, "general", []int64{alice.UserID}, nil)
	require.NoError(t, err)

	subs, err := f.svc.Subscriptions.ListForAuthor(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, subs)

	subs, err = f.svc.Subscriptions.ListForAuthor(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	_, err = f.svc.Posts.AddReply(ctx, alice, thread.ID, Reply{Body: "members only", Subscribe: true})
	require.NoError(t, err)

	calls := f.dispatcher.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{alice.Email}, calls[1].recipients)
}

func TestRevokedAccess_GroupForumKeepsUnlistedSubscribers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "Open", Body: "B", Subscribe: true})
	require.NoError(t, err)
	_, err = f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "following", Subscribe: true})
	require.NoError(t, err)

	forum, err := f.svc.Forums.SetForumAccess(ctx, staff, "general", []int64{alice.UserID}, []int64{7})
	require.NoError(t, err)

	addrs, err := f.svc.Subscriptions.SubscribersOf(ctx, forum, thread.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alice.Email, bob.Email}, addrs)

	subs, err := f.svc.Subscriptions.ListForAuthor(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, subs, 1, "bob is in group 7")
}

func TestPage_OffsetNeverWraps(t *testing.T) {
	assert.Equal(t, uint64(0), Page{}.Offset())
	assert.Equal(t, uint64(20), Page{Number: 3, Size: 10}.Offset())

	f := newFixture(t)
	_, _, err := f.svc.Threads.CreateWithOpeningPost(context.Background(), alice, "general", NewThread{Title: "T", Body: "B"})
	require.NoError(t, err)

	page, err := f.svc.Threads.ListByForum(context.Background(), f.general, alice, models.ThreadOrderLatest, Page{Number: math.MaxInt, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, helpers.MaxPage, page.Page.Number)
	assert.Equal(t, uint64(helpers.MaxPage-1)*10, page.Page.Offset())
}

func TestForumTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, in := range []NewForum{
		{Title: "Help", Slug: "help", ParentSlug: "general", Ordering: 2},
		{Title: "Announcements", Slug: "announcements", ParentSlug: "general", Ordering: 1},
		{Title: "Moderators", Slug: "moderators", ParentSlug: "general", AllowedGroups: []int64{7}},
		{Title: "Deep", Slug: "deep", ParentSlug: "moderators"},
	} {
		_, err := f.svc.Forums.CreateForum(ctx, staff, in)
		require.NoError(t, err, in.Slug)
	}

	roots, err := f.svc.Forums.RootForums(ctx, anon)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "general", roots[0].Slug)

	children, err := f.svc.Forums.ChildrenOf(ctx, f.general, anon)
	require.NoError(t, err)
	assert.Equal(t, []string{"announcements", "help"}, slugs(children))

	children, err = f.svc.Forums.ChildrenOf(ctx, f.general, bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"moderators", "announcements", "help"}, slugs(children))

	_, err = f.svc.Forums.GetBySlug(ctx, "moderators", alice)
	assert.True(t, errors.Is(err, apperrors.ErrAccessDenied))
	_, err = f.svc.Forums.GetBySlug(ctx, "missing", alice)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))

	deep, err := f.svc.Forums.GetBySlug(ctx, "deep", anon)
	require.NoError(t, err)
	crumbs, err := f.svc.Forums.Breadcrumbs(ctx, deep, bob)
	require.NoError(t, err)
	assert.Equal(t, []string{"general", "moderators"}, slugs(crumbs))
	crumbs, err = f.svc.Forums.Breadcrumbs(ctx, deep, anon)
	require.NoError(t, err)
	assert.Equal(t, []string{"general"}, slugs(crumbs))
}

func slugs(forums []*models.Forum) []string {
	out := make([]string, 0, len(forums))
	for _, f := range forums {
		out = append(out, f.Slug)
	}
	return out
}

func TestCreateForum_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Forums.CreateForum(ctx, alice, NewForum{Title: "X", Slug: "x"})
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	_, err = f.svc.Forums.CreateForum(ctx, anon, NewForum{Title: "X", Slug: "x"})
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
	_, err = f.svc.Forums.CreateForum(ctx, staff, NewForum{Title: "X", Slug: "Not A Slug"})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
	_, err = f.svc.Forums.CreateForum(ctx, staff, NewForum{Title: "X", Slug: "x", ParentSlug: "ghost"})
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
	_, err = f.svc.Forums.CreateForum(ctx, staff, NewForum{Title: "Dup", Slug: "general"})
	assert.True(t, errors.Is(err, apperrors.ErrResourceAlreadyExists))
}

func TestSetForumAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Forums.SetForumAccess(ctx, alice, "general", []int64{1}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))

	forum, err := f.svc.Forums.SetForumAccess(ctx, staff, "general", []int64{alice.UserID}, nil)
	require.NoError(t, err)
	assert.True(t, forum.IsRestricted())

	_, err = f.svc.Forums.GetBySlug(ctx, "general", bob)
	assert.True(t, errors.Is(err, apperrors.ErrAccessDenied))

	forum, err = f.svc.Forums.SetForumAccess(ctx, staff, "general", nil, nil)
	require.NoError(t, err)
	assert.False(t, forum.IsRestricted())
}

func TestThreadListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clock.Now()

	var ids []int64
	for i := 0; i < 3; i++ {
		f.clock.Set(base.Add(time.Duration(i) * time.Hour))
		thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B"})
		require.NoError(t, err)
		ids = append(ids, thread.ID)
	}

	// the oldest thread gets two fresh replies
	f.clock.Set(base.Add(10 * time.Hour))
	for i := 0; i < 2; i++ {
		_, err := f.svc.Posts.AddReply(ctx, bob, ids[0], Reply{Body: "bump"})
		require.NoError(t, err)
	}

	latest, err := f.svc.Threads.ListByForum(ctx, f.general, anon, models.ThreadOrderLatest, Page{Number: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest.Total)
	assert.Equal(t, []int64{ids[0], ids[2]}, threadIDs(latest.Items))

	recent, err := f.svc.Threads.ListByForum(ctx, f.general, anon, models.ThreadOrderRecent, Page{})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, threadIDs(recent.Items))

	// 36h window measured from +40h only keeps the bumped thread
	f.clock.Set(base.Add(40 * time.Hour))
	active, err := f.svc.Threads.ListActive(ctx, f.general, anon)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[0]}, threadIDs(active))

	recentOnly, err := f.svc.Threads.ListRecent(ctx, f.general, anon)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, threadIDs(recentOnly))

	activity, err := f.svc.Threads.LatestActivity(ctx, anon, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[0]}, threadIDs(activity))
}

func threadIDs(threads []*models.Thread) []int64 {
	out := make([]int64, 0, len(threads))
	for _, t := range threads {
		out = append(out, t.ID)
	}
	return out
}

func TestViewThread_IncrementsViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "B"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		viewed, forum, err := f.svc.Threads.ViewThread(ctx, thread.ID, anon)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), viewed.Views)
		assert.Equal(t, f.general.ID, forum.ID)
	}
	assert.Equal(t, int64(3), f.thread(t, thread.ID).Views)
}

func TestRestrictedContentHiddenFromListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hidden := f.restrictedForum(t, "hidden", []int64{alice.UserID}, nil)

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, hidden.Slug, NewThread{Title: "Secret", Body: "psst"})
	require.NoError(t, err)
	_, _, err = f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "Open", Body: "hello"})
	require.NoError(t, err)

	_, _, err = f.svc.Threads.GetThread(ctx, thread.ID, bob)
	assert.True(t, errors.Is(err, apperrors.ErrAccessDenied))
	_, err = f.svc.Posts.ListByThread(ctx, thread.ID, anon, Page{})
	assert.True(t, errors.Is(err, apperrors.ErrAccessDenied))
	_, err = f.svc.Threads.ListByForum(ctx, hidden, bob, models.ThreadOrderLatest, Page{})
	assert.True(t, errors.Is(err, apperrors.ErrAccessDenied))

	posts, err := f.svc.Posts.LatestPosts(ctx, bob, 10)
	require.NoError(t, err)
	for _, p := range posts {
		assert.NotEqual(t, hidden.ID, p.ForumID)
	}
	assert.Len(t, posts, 1)

	mine, err := f.svc.Posts.LatestPostsByAuthor(ctx, alice, alice.UserID, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	activity, err := f.svc.Threads.LatestActivity(ctx, anon, 0)
	require.NoError(t, err)
	assert.Len(t, activity, 1)
}

func TestListByThread_Chronological(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := f.clock.Now()

	thread, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "first"})
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		f.clock.Set(base.Add(time.Duration(i) * time.Minute))
		_, err := f.svc.Posts.AddReply(ctx, bob, thread.ID, Reply{Body: "reply"})
		require.NoError(t, err)
	}

	page, err := f.svc.Posts.ListByThread(ctx, thread.ID, anon, Page{Number: 1, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "first", page.Items[0].Body)
	assert.True(t, sort.SliceIsSorted(page.Items, func(i, j int) bool {
		return page.Items[i].SubmittedAt.Before(page.Items[j].SubmittedAt)
	}))
}

func TestSearchService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Threads.CreateWithOpeningPost(ctx, alice, "general", NewThread{Title: "T", Body: "Vacuum tuning notes"})
	require.NoError(t, err)

	res, page, err := f.svc.Search.Search(ctx, f.general, anon, "vacuum", Page{})
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, 1, page.Number)

	_, _, err = f.svc.Search.Search(ctx, f.general, anon, "  ", Page{})
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))

	disabled := NewSearchService(search.Disabled{}, auth.NewAccessPolicy(), Options{})
	res, _, err = disabled.Search(ctx, f.general, anon, "vacuum", Page{})
	require.NoError(t, err)
	assert.False(t, res.Available)
}
