package app

import (
	"net/http"
	"strings"

	"estate-listing/utils"

	"github.com/gin-gonic/gin"
)

// Placeholder 无图房源的占位图，路径形如 /placeholder/house.svg
func Placeholder(c *gin.Context) {
	file := c.Param("file")
	if !strings.HasSuffix(file, ".svg") {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	postType := strings.TrimSuffix(file, ".svg")

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/svg+xml", utils.GeneratePlaceholderSVG(640, 480, postType))
}
