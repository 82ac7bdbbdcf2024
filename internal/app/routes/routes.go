package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/uniforum/internal/app/controllers"
	"github.com/yigit/uniforum/internal/middleware"
)

// APIBasePath prefixes every versioned endpoint
const APIBasePath = "/api/v1"

// Controllers bundles the HTTP handlers the router mounts
type Controllers struct {
	Forum        *controllers.ForumController
	Thread       *controllers.ThreadController
	Subscription *controllers.SubscriptionController
	Activity     *controllers.ActivityController
	Staff        *controllers.StaffController
	Health       *controllers.HealthController
}

// SetupRouter configures all application routes. Every route resolves the
// caller's principal first; anonymous callers may read public content and
// the services reject anything else.
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", ctrl.Health.Health)
	router.GET("/ping", ctrl.Health.Ping)

	// API version group
	v1 := router.Group(APIBasePath)
	v1.Use(authMiddleware.Principal())

	forums := v1.Group("/forums")
	{
		forums.GET("", ctrl.Forum.ListRootForums)
		forums.GET("/:slug", ctrl.Forum.GetForum)
		forums.GET("/:slug/threads", ctrl.Forum.ListThreads)
		forums.POST("/:slug/threads", ctrl.Forum.CreateThread)
		forums.GET("/:slug/search", ctrl.Forum.Search)
	}

	threads := v1.Group("/threads")
	{
		threads.GET("/:id", ctrl.Thread.GetThread)
		threads.GET("/:id/posts", ctrl.Thread.ListPosts)
		threads.POST("/:id/posts", ctrl.Thread.AddReply)
	}

	subscriptions := v1.Group("/subscriptions")
	{
		subscriptions.GET("", ctrl.Subscription.ListSubscriptions)
		subscriptions.PUT("", ctrl.Subscription.UpdateSubscriptions)
	}

	activity := v1.Group("/activity")
	{
		activity.GET("/threads", ctrl.Activity.LatestThreads)
		activity.GET("/posts", ctrl.Activity.LatestPosts)
		activity.GET("/users/:id/posts", ctrl.Activity.LatestPostsByUser)
	}

	staff := v1.Group("/staff")
	{
		staff.POST("/forums", ctrl.Staff.CreateForum)
		staff.PUT("/forums/:slug/access", ctrl.Staff.SetForumAccess)
		staff.PUT("/threads/:id/closed", ctrl.Staff.SetThreadClosed)
	}
}
