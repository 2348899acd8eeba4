package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealdesk/internal/services"
)

type ReportHandler struct {
	reports services.ReportService
	search  services.SearchService
	logger  *zap.Logger
}

func NewReportHandler(reports services.ReportService, search services.SearchService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, search: search, logger: logger}
}

// @Summary      Search deals, contacts and organizations
// @Description  Case-insensitive substring match, at most 20 results per family
// @Tags         Search
// @Produce      json
// @Param        q    query     string  true  "Search text"
// @Success      200  {object}  models.SearchResult
// @Failure      400  {object}  map[string]string
// @Security     BearerAuth
// @Router       /search [get]
func (h *ReportHandler) Search(c *gin.Context) {
	res, err := h.search.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary      Open deals per stage
// @Tags         Reports
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /reports/funnel [get]
func (h *ReportHandler) Funnel(c *gin.Context) {
	rows, err := h.reports.Funnel(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	listResponse(c, rows)
}

// @Summary      Won deals over all deals
// @Tags         Reports
// @Produce      json
// @Success      200  {object}  models.WinRate
// @Security     BearerAuth
// @Router       /reports/win-rate [get]
func (h *ReportHandler) WinRate(c *gin.Context) {
	wr, err := h.reports.WinRate(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, wr)
}

// @Summary      Open deal value per expected-close month
// @Tags         Reports
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /reports/forecast [get]
func (h *ReportHandler) Forecast(c *gin.Context) {
	rows, err := h.reports.Forecast(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	listResponse(c, rows)
}

// @Summary      Activities per owner
// @Tags         Reports
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /reports/activity-counts [get]
func (h *ReportHandler) ActivityCounts(c *gin.Context) {
	rows, err := h.reports.ActivityCounts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	listResponse(c, rows)
}

// @Summary      Pipeline report as PDF
// @Tags         Reports
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Security     BearerAuth
// @Router       /reports/pipeline.pdf [get]
func (h *ReportHandler) PipelinePDF(c *gin.Context) {
	// rendered into memory first so a failure can still become a JSON error
	var buf bytes.Buffer
	if err := h.reports.WritePipelinePDF(c.Request.Context(), &buf); err != nil {
		respondError(c, h.logger, fmt.Errorf("pipeline pdf: %w", err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="pipeline-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
