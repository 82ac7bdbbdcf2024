package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/uniforum/internal/app/services"
	"github.com/yigit/uniforum/internal/middleware"
)

// ActivityController serves the cross-forum "latest" listings
type ActivityController struct {
	threads *services.ThreadService
	posts   *services.PostService
}

// NewActivityController creates a new ActivityController
func NewActivityController(threads *services.ThreadService, posts *services.PostService) *ActivityController {
	return &ActivityController{
		threads: threads,
		posts:   posts,
	}
}

// LatestThreads lists the most recently active threads
// @Summary Latest thread activity
// @Tags activity
// @Produce json
// @Param limit query int false "Number of threads"
// @Success 200 {object} dto.APIResponse{data=[]models.Thread}
// @Router /activity/threads [get]
func (c *ActivityController) LatestThreads(ctx *gin.Context) {
	threads, err := c.threads.LatestActivity(ctx.Request.Context(), middleware.PrincipalFrom(ctx), limitFromQuery(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, threads)
}

// LatestPosts lists the newest posts
// @Summary Latest posts
// @Tags activity
// @Produce json
// @Param limit query int false "Number of posts"
// @Success 200 {object} dto.APIResponse{data=[]models.PostSummary}
// @Router /activity/posts [get]
func (c *ActivityController) LatestPosts(ctx *gin.Context) {
	posts, err := c.posts.LatestPosts(ctx.Request.Context(), middleware.PrincipalFrom(ctx), limitFromQuery(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, posts)
}

// LatestPostsByUser lists the newest posts of one user
// @Summary Latest posts of a user
// @Tags activity
// @Produce json
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Param limit query int false "Number of posts"
// @Success 200 {object} dto.APIResponse{data=[]models.PostSummary}
// @Router /activity/users/{id}/posts [get]
func (c *ActivityController) LatestPostsByUser(ctx *gin.Context) {
	id, valid := parseIDParam(ctx, "id")
	if !valid {
		return
	}

	posts, err := c.posts.LatestPostsByAuthor(ctx.Request.Context(), middleware.PrincipalFrom(ctx), id, limitFromQuery(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, posts)
}
