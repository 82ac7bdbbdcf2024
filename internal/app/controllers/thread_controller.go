package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/uniforum/internal/app/models/dto"
	"github.com/yigit/uniforum/internal/app/services"
	"github.com/yigit/uniforum/internal/middleware"
)

// ThreadController serves threads and their posts
type ThreadController struct {
	threads *services.ThreadService
	posts   *services.PostService
}

// NewThreadController creates a new ThreadController
func NewThreadController(threads *services.ThreadService, posts *services.PostService) *ThreadController {
	return &ThreadController{
		threads: threads,
		posts:   posts,
	}
}

// GetThread returns a thread and counts the view
// @Summary Get thread
// @Tags threads
// @Produce json
// @Param id path int true "Thread ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.ThreadDetailResponse} "Thread retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Thread not found"
// @Router /threads/{id} [get]
func (c *ThreadController) GetThread(ctx *gin.Context) {
	id, valid := parseIDParam(ctx, "id")
	if !valid {
		return
	}

	thread, forum, err := c.threads.ViewThread(ctx.Request.Context(), id, middleware.PrincipalFrom(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.ThreadDetailResponse{Thread: thread, Forum: dto.FromForum(forum)})
}

// ListPosts lists one page of a thread's posts, oldest first
// @Summary List thread posts
// @Tags posts
// @Produce json
// @Param id path int true "Thread ID" Format(int64) minimum(1)
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Post}} "Posts retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Thread not found"
// @Router /threads/{id}/posts [get]
func (c *ThreadController) ListPosts(ctx *gin.Context) {
	id, valid := parseIDParam(ctx, "id")
	if !valid {
		return
	}

	page, err := c.posts.ListByThread(ctx.Request.Context(), id, middleware.PrincipalFrom(ctx), pageFromQuery(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, paginated(page))
}

// AddReply posts a reply to a thread
// @Summary Reply to thread
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID" Format(int64) minimum(1)
// @Param request body dto.ReplyRequest true "Reply"
// @Success 201 {object} dto.APIResponse{data=models.Post} "Reply created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "Thread not found"
// @Failure 409 {object} dto.ErrorResponse "Thread is closed"
// @Router /threads/{id}/posts [post]
func (c *ThreadController) AddReply(ctx *gin.Context) {
	id, valid := parseIDParam(ctx, "id")
	if !valid {
		return
	}

	var req dto.ReplyRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	post, err := c.posts.AddReply(ctx.Request.Context(), middleware.PrincipalFrom(ctx), id, services.Reply{
		Body:      req.Body,
		Subscribe: req.Subscribe,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, post)
}
