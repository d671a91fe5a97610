package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// userIDParam parses the :id path segment as a numeric user ID.
func userIDParam(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid user ID")
		return 0, false
	}
	return id, true
}

// pagination reads page and per_page query parameters with sane bounds.
func pagination(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
