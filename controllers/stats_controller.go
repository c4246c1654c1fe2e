package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/imam0321/bistro-boss-server/common/errors"
	"github.com/imam0321/bistro-boss-server/services"
)

type StatsController struct {
	stats services.StatsService
}

func NewStatsController(stats services.StatsService) *StatsController {
	return &StatsController{stats: stats}
}

func (s *StatsController) AdminStats(c *gin.Context) {
	stats, err := s.stats.AdminStats(c.Request.Context())
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *StatsController) OrderStats(c *gin.Context) {
	stats, err := s.stats.OrderStats(c.Request.Context())
	if err != nil {
		apperrors.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
