package app

import (
	"strconv"
	"time"

	"estate-listing/pkg/logger"
	"estate-listing/pkg/monitoring"
	"estate-listing/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TopCities 最近 days 天搜索最多的城市
func TopCities(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > 90 {
		response.Error(c, response.INVALID_PARAMS, "days must be between 1 and 90")
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "10"), 10, 64)
	if err != nil || limit < 1 || limit > 50 {
		response.Error(c, response.INVALID_PARAMS, "limit must be between 1 and 50")
		return
	}

	since := time.Now().AddDate(0, 0, -days)
	cities, err := monitoring.GetTopSearchedCities(c.Request.Context(), since, limit)
	if err != nil {
		logger.L().Error("top cities aggregation failed", zap.Error(err))
		response.Error(c, response.INTERNAL_ERROR)
		return
	}

	response.Success(c, gin.H{
		"since":  since.Unix(),
		"cities": cities,
	})
}
