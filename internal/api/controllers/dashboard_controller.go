package controllers

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/services"
	"storefront/pkg/utils"
)

type DashboardController struct {
	dashboardService services.DashboardService
}

func NewDashboardController(dashboardService services.DashboardService) *DashboardController {
	return &DashboardController{
		dashboardService: dashboardService,
	}
}

// GetDashboard godoc
// @Summary Get dashboard stats
// @Description Request counts by status, approved revenue per currency, active grants, products and accounts. Computed from current state on every call.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/dashboard/stats [get]
func (p *DashboardController) GetDashboard(c *gin.Context) {
	stats, err := p.dashboardService.Stats(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, stats, "Dashboard data fetched successfully")
}
