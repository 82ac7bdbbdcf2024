package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/uniforum/internal/app/models/dto"
	"github.com/yigit/uniforum/internal/app/services"
	"github.com/yigit/uniforum/internal/middleware"
)

// StaffController exposes the staff-only maintenance endpoints
type StaffController struct {
	forums  *services.ForumService
	threads *services.ThreadService
}

// NewStaffController creates a new StaffController
func NewStaffController(forums *services.ForumService, threads *services.ThreadService) *StaffController {
	return &StaffController{
		forums:  forums,
		threads: threads,
	}
}

// CreateForum handles forum creation
// @Summary Create forum
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateForumRequest true "Forum information"
// @Success 201 {object} dto.APIResponse{data=dto.ForumResponse} "Forum created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Staff permission required"
// @Failure 409 {object} dto.ErrorResponse "Slug already in use"
// @Router /staff/forums [post]
func (c *StaffController) CreateForum(ctx *gin.Context) {
	var req dto.CreateForumRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	input := services.NewForum{
		Title:         req.Title,
		Slug:          req.Slug,
		Description:   req.Description,
		Ordering:      req.Ordering,
		AllowedUsers:  req.AllowedUsers,
		AllowedGroups: req.AllowedGroups,
	}
	if req.ParentSlug != nil {
		input.ParentSlug = *req.ParentSlug
	}

	forum, err := c.forums.CreateForum(ctx.Request.Context(), middleware.PrincipalFrom(ctx), input)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, dto.FromForum(forum))
}

// SetForumAccess replaces a forum's access lists
// @Summary Set forum access
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Forum slug"
// @Param request body dto.ForumAccessRequest true "Allowed users and groups"
// @Success 200 {object} dto.APIResponse{data=dto.ForumResponse} "Access updated"
// @Failure 403 {object} dto.ErrorResponse "Staff permission required"
// @Failure 404 {object} dto.ErrorResponse "Forum not found"
// @Router /staff/forums/{slug}/access [put]
func (c *StaffController) SetForumAccess(ctx *gin.Context) {
	var req dto.ForumAccessRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	forum, err := c.forums.SetForumAccess(ctx.Request.Context(), middleware.PrincipalFrom(ctx), ctx.Param("slug"), req.AllowedUsers, req.AllowedGroups)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.FromForum(forum))
}

// SetThreadClosed closes or reopens a thread
// @Summary Close or reopen thread
// @Tags staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Thread ID" Format(int64) minimum(1)
// @Param request body dto.ThreadClosedRequest true "Closed flag"
// @Success 200 {object} dto.APIResponse{data=models.Thread} "Thread updated"
// @Failure 403 {object} dto.ErrorResponse "Staff permission required"
// @Failure 404 {object} dto.ErrorResponse "Thread not found"
// @Router /staff/threads/{id}/closed [put]
func (c *StaffController) SetThreadClosed(ctx *gin.Context) {
	id, valid := parseIDParam(ctx, "id")
	if !valid {
		return
	}

	var req dto.ThreadClosedRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	thread, err := c.threads.SetClosed(ctx.Request.Context(), middleware.PrincipalFrom(ctx), id, *req.Closed)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, thread)
}
