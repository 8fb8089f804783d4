package handler

import (
	"net/http"
	"time"

	"gstbilling/internal/middleware"
	"gstbilling/internal/service"
	"gstbilling/pkg/response"

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
	reports.Use(middleware.RequireRole("admin", "accountant"))
	{
		reports.GET("/gst-summary", h.GetGSTSummary)
	}
}

// GetGSTSummary returns GST collection data grouped by period
// @Summary      Get GST collection summary
// @Description  Returns taxable value, CGST/SGST/IGST collected and rounding adjustment over submitted invoices, grouped by time period
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        group_by    query     string  false  "Group by period: week, month, quarter, year (default: month)"
// @Param        start_date  query     string  false  "Start date (YYYY-MM-DD, default: first of current month)"
// @Param        end_date    query     string  false  "End date (YYYY-MM-DD, default: today)"
// @Success      200         {object}  response.Response{data=[]service.GSTSummaryPoint}
// @Failure      500         {object}  response.Response
// @Router       /api/reports/gst-summary [get]
func (h *ReportHandler) GetGSTSummary(c *gin.Context) {
	groupBy := c.DefaultQuery("group_by", "month")
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	// Default to current month
	now := time.Now()
	if startDate == "" {
		startDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format("2006-01-02")
	}
	if endDate == "" {
		endDate = now.Format("2006-01-02")
	}

	filter := service.GSTSummaryFilter{
		GroupBy:   groupBy,
		StartDate: startDate,
		EndDate:   endDate,
	}

	data, err := h.reportService.GetGSTSummary(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, data))
}
