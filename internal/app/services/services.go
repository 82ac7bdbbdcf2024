// Package services holds the forum's business operations. Every read and
// write of forum content goes through the AccessPolicy gate here; the
// repositories below never decide visibility on their own except for the
// set-wise listing predicates.
package services

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/uniforum/internal/app/auth"
	"github.com/yigit/uniforum/internal/app/notification"
	"github.com/yigit/uniforum/internal/app/repositories"
	"github.com/yigit/uniforum/internal/app/search"
	"github.com/yigit/uniforum/internal/pkg/helpers"
	"github.com/yigit/uniforum/internal/pkg/validation"
)

// Options carries the tunables of the forum services. Zero values fall
// back to the defaults below.
type Options struct {
	PageSize       int
	MaxPageSize    int
	ActiveWindow   time.Duration
	ActiveLimit    int
	RecentLimit    int
	MaxTitleLength int
	NotifyTimeout  time.Duration
	// AsyncNotify dispatches reply notifications on a detached goroutine
	AsyncNotify bool
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = helpers.DefaultPageSize
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = helpers.MaxPageSize
	}
	if o.ActiveWindow <= 0 {
		o.ActiveWindow = 36 * time.Hour
	}
	if o.ActiveLimit <= 0 {
		o.ActiveLimit = 10
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = 10
	}
	if o.MaxTitleLength <= 0 {
		o.MaxTitleLength = validation.TitleMaxLength
	}
	if o.NotifyTimeout <= 0 {
		o.NotifyTimeout = 10 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Page is a 1-based page request
type Page struct {
	Number int
	Size   int
}

func (o Options) page(p Page) Page {
	number, size := helpers.NormalizePage(p.Number, p.Size, o.PageSize, o.MaxPageSize)
	return Page{Number: number, Size: size}
}

// Offset returns the number of rows to skip
func (p Page) Offset() uint64 {
	if p.Number < 1 || p.Size < 1 {
		return 0
	}
	return uint64(p.Number-1) * uint64(p.Size)
}

// Paged is one page of a listing with the total number of items
type Paged[T any] struct {
	Items []T
	Total int64
	Page  Page
}

// Services aggregates the forum services
type Services struct {
	Forums        *ForumService
	Threads       *ThreadService
	Posts         *PostService
	Subscriptions *SubscriptionService
	Search        *SearchService
}

// NewServices wires the services over one store
func NewServices(
	store repositories.Store,
	policy *auth.AccessPolicy,
	dispatcher notification.Dispatcher,
	adapter search.Adapter,
	opts Options,
	logger zerolog.Logger,
) *Services {
	opts = opts.withDefaults()
	if dispatcher == nil {
		dispatcher = notification.Nop{}
	}
	if adapter == nil {
		adapter = search.Disabled{}
	}

	subscriptions := NewSubscriptionService(store, policy, logger)
	forums := NewForumService(store, policy, logger)
	threads := NewThreadService(store, policy, subscriptions, opts, logger)
	posts := NewPostService(store, policy, threads, subscriptions, dispatcher, opts, logger)

	return &Services{
		Forums:        forums,
		Threads:       threads,
		Posts:         posts,
		Subscriptions: subscriptions,
		Search:        NewSearchService(adapter, policy, opts),
	}
}
