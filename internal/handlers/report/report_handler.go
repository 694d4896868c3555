// internal/handlers/report/report_handler.go
package report

import (
	"net/http"

	"loyalty-service/internal/domain/report"
	"loyalty-service/internal/pkg/response"
	service "loyalty-service/internal/service/report"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *service.ReportService
}

func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GetReport serves /reports/:type?start&end.
func (h *ReportHandler) GetReport(c *gin.Context) {
	r, err := h.reportService.Generate(c.Request.Context(), report.Type(c.Param("type")), c.Query("start"), c.Query("end"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", r)
}

func (h *ReportHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "", stats)
}
