package helpers

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0, 10, 50)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)

	page, size = NormalizePage(3, 51, 10, 50)
	assert.Equal(t, 3, page)
	assert.Equal(t, 10, size)

	page, size = NormalizePage(2, 50, 10, 50)
	assert.Equal(t, 2, page)
	assert.Equal(t, 50, size)

	page, size = NormalizePage(math.MaxInt, 50, 10, 50)
	assert.Equal(t, MaxPage, page)
	assert.Equal(t, 50, size)
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(21, 2, 10)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, int64(21), info.TotalItems)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=4&size=25", nil)
	page, size := ParsePaginationParams(c)
	assert.Equal(t, 4, page)
	assert.Equal(t, 25, size)

	c.Request = httptest.NewRequest("GET", "/?page=abc&size=-3", nil)
	page, size = ParsePaginationParams(c)
	assert.Equal(t, 1, page)
	assert.Equal(t, 0, size)
}
