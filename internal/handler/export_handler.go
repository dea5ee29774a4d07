package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tutorlink-app/tutorlink-api/internal/service"
	"github.com/tutorlink-app/tutorlink-api/pkg/response"
)

// ExportHandler serves downloadable booking and roster reports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Bookings godoc
// @Summary Download a teacher's bookings report
// @Tags Exports
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /teachers/{id}/exports/bookings [get]
func (h *ExportHandler) Bookings(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	doc, err := h.exports.BookingsReport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDocument(c, doc)
}

// Roster godoc
// @Summary Download a teacher's roster report
// @Tags Exports
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /teachers/{id}/exports/roster [get]
func (h *ExportHandler) Roster(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	doc, err := h.exports.RosterReport(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveDocument(c, doc)
}

func serveDocument(c *gin.Context, doc *service.ExportDocument) {
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(200, doc.ContentType, doc.Data)
}
