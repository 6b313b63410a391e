package handler

import (
	"net/http"
	"time"

	"fleetops/internal/middleware"
	"fleetops/internal/model"
	"fleetops/internal/service"
	"fleetops/pkg/pagination"
	"fleetops/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	reports.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor, model.RoleStaff))
	{
		reports.GET("/expenses", h.GetExpenseReport)
	}
}

// GetExpenseReport handles GET /api/reports/expenses
// @Summary      Get expense report
// @Description  Breaks down expense totals by category, truck, trip, driver and month for a date range
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "Start date (YYYY-MM-DD), defaults to start of current month"
// @Param        to    query     string  false  "End date (YYYY-MM-DD), defaults to today"
// @Success      200   {object}  response.Response{data=service.ExpenseReportResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/reports/expenses [get]
func (h *ReportHandler) GetExpenseReport(c *gin.Context) {
	// Default to month-to-date when no range is provided
	now := time.Now()
	defaultFrom := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	from, to, err := pagination.ParseDateRange(c, defaultFrom, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	report, err := h.reportService.GetExpenseReport(c.Request.Context(), actorFrom(c), from, to)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}
