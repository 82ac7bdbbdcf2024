package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/uniforum/internal/app/models/dto"
	"github.com/yigit/uniforum/internal/app/services"
	"github.com/yigit/uniforum/internal/middleware"
)

// SubscriptionController manages the caller's own subscriptions
type SubscriptionController struct {
	subscriptions *services.SubscriptionService
}

// NewSubscriptionController creates a new SubscriptionController
func NewSubscriptionController(subscriptions *services.SubscriptionService) *SubscriptionController {
	return &SubscriptionController{subscriptions: subscriptions}
}

// ListSubscriptions returns the caller's subscriptions
// @Summary List my subscriptions
// @Tags subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.SubscriptionDetails} "Subscriptions retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Router /subscriptions [get]
func (c *SubscriptionController) ListSubscriptions(ctx *gin.Context) {
	subs, err := c.subscriptions.ListForAuthor(ctx.Request.Context(), middleware.PrincipalFrom(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, subs)
}

// UpdateSubscriptions keeps only the listed subscriptions. Threads missing
// from keepThreadIds are unsubscribed.
// @Summary Bulk update my subscriptions
// @Tags subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateSubscriptionsRequest true "Thread ids to keep"
// @Success 200 {object} dto.APIResponse{data=dto.BulkUpdateResponse} "Subscriptions updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Router /subscriptions [put]
func (c *SubscriptionController) UpdateSubscriptions(ctx *gin.Context) {
	var req dto.UpdateSubscriptionsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	removed, err := c.subscriptions.BulkUpdate(ctx.Request.Context(), middleware.PrincipalFrom(ctx), req.KeepThreadIDs)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.BulkUpdateResponse{Removed: removed})
}
