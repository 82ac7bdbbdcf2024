package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/app/models/dto"
	"github.com/yigit/uniforum/internal/app/services"
	"github.com/yigit/uniforum/internal/middleware"
	"github.com/yigit/uniforum/internal/pkg/helpers"
)

// ForumController serves the forum tree and forum search
type ForumController struct {
	forums  *services.ForumService
	threads *services.ThreadService
	search  *services.SearchService
}

// NewForumController creates a new ForumController
func NewForumController(forums *services.ForumService, threads *services.ThreadService, search *services.SearchService) *ForumController {
	return &ForumController{
		forums:  forums,
		threads: threads,
		search:  search,
	}
}

// ListRootForums lists the top-level forums
// @Summary List root forums
// @Description Lists the top-level forums visible to the caller
// @Tags forums
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.ForumResponse} "Forums retrieved successfully"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /forums [get]
func (c *ForumController) ListRootForums(ctx *gin.Context) {
	forums, err := c.forums.RootForums(ctx.Request.Context(), middleware.PrincipalFrom(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.FromForums(forums))
}

// GetForum returns a forum page: the forum, its breadcrumbs and sub-forums,
// and its active and recent threads
// @Summary Get forum
// @Tags forums
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Forum slug"
// @Success 200 {object} dto.APIResponse{data=dto.ForumDetailResponse} "Forum retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Forum not found"
// @Router /forums/{slug} [get]
func (c *ForumController) GetForum(ctx *gin.Context) {
	principal := middleware.PrincipalFrom(ctx)

	forum, err := c.forums.GetBySlug(ctx.Request.Context(), ctx.Param("slug"), principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	crumbs, err := c.forums.Breadcrumbs(ctx.Request.Context(), forum, principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	children, err := c.forums.ChildrenOf(ctx.Request.Context(), forum, principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	active, err := c.threads.ListActive(ctx.Request.Context(), forum, principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	recent, err := c.threads.ListRecent(ctx.Request.Context(), forum, principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ok(ctx, dto.ForumDetailResponse{
		Forum:         dto.FromForum(forum),
		Breadcrumbs:   dto.FromForums(crumbs),
		Children:      dto.FromForums(children),
		ActiveThreads: active,
		RecentThreads: recent,
	})
}

// ListThreads lists one page of a forum's threads
// @Summary List forum threads
// @Tags threads
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Forum slug"
// @Param order query string false "latest or recent" Enums(latest, recent)
// @Param page query int false "Page number (1-based)"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Thread}} "Threads retrieved successfully"
// @Failure 404 {object} dto.ErrorResponse "Forum not found"
// @Router /forums/{slug}/threads [get]
func (c *ForumController) ListThreads(ctx *gin.Context) {
	principal := middleware.PrincipalFrom(ctx)

	forum, err := c.forums.GetBySlug(ctx.Request.Context(), ctx.Param("slug"), principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	order := models.ParseThreadOrder(ctx.Query("order"))
	page, err := c.threads.ListByForum(ctx.Request.Context(), forum, principal, order, pageFromQuery(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, paginated(page))
}

// CreateThread opens a thread with its first post
// @Summary Create thread
// @Tags threads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Forum slug"
// @Param request body dto.CreateThreadRequest true "Thread title and opening post"
// @Success 201 {object} dto.APIResponse{data=dto.CreateThreadResponse} "Thread created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Failure 404 {object} dto.ErrorResponse "Forum not found"
// @Router /forums/{slug}/threads [post]
func (c *ForumController) CreateThread(ctx *gin.Context) {
	var req dto.CreateThreadRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	thread, post, err := c.threads.CreateWithOpeningPost(ctx.Request.Context(), middleware.PrincipalFrom(ctx), ctx.Param("slug"), services.NewThread{
		Title:     req.Title,
		Body:      req.Body,
		Subscribe: req.Subscribe,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, dto.CreateThreadResponse{Thread: thread, Post: post})
}

// Search searches the posts of a forum
// @Summary Search forum posts
// @Tags forums
// @Produce json
// @Param slug path string true "Forum slug"
// @Param term query string true "Search term"
// @Success 200 {object} dto.APIResponse{data=dto.SearchResponse} "Search results; available=false when search is off"
// @Failure 400 {object} dto.ErrorResponse "Missing term"
// @Failure 404 {object} dto.ErrorResponse "Forum not found"
// @Router /forums/{slug}/search [get]
func (c *ForumController) Search(ctx *gin.Context) {
	principal := middleware.PrincipalFrom(ctx)

	forum, err := c.forums.GetBySlug(ctx.Request.Context(), ctx.Param("slug"), principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	term := ctx.Query("term")
	result, page, err := c.search.Search(ctx.Request.Context(), forum, principal, term, pageFromQuery(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	hits := result.Hits
	if hits == nil {
		hits = []*models.PostSummary{}
	}
	ok(ctx, dto.SearchResponse{
		Available:  result.Available,
		Term:       term,
		Hits:       hits,
		Pagination: helpers.NewPaginationInfo(result.Total, page.Number, page.Size),
	})
}
