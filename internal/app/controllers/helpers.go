package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/uniforum/internal/app/models/dto"
	"github.com/yigit/uniforum/internal/app/services"
	"github.com/yigit/uniforum/internal/pkg/helpers"
)

// parseIDParam reads a positive int64 path parameter. On failure it writes
// the 400 response and returns false.
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name).
			WithField(name).
			WithDetails(name + " must be a positive number")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// pageFromQuery reads ?page and ?size
func pageFromQuery(ctx *gin.Context) services.Page {
	page, size := helpers.ParsePaginationParams(ctx)
	return services.Page{Number: page, Size: size}
}

// limitFromQuery reads ?limit; 0 lets the service pick its default
func limitFromQuery(ctx *gin.Context) int {
	n, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func paginated[T any](p *services.Paged[T]) dto.PaginatedResponse {
	return dto.PaginatedResponse{
		Items:      p.Items,
		Pagination: helpers.NewPaginationInfo(p.Total, p.Page.Number, p.Page.Size),
	}
}

func ok(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func created(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}
