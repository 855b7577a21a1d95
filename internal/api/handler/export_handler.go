package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/service"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler spreadsheet downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportPhaseRoster GET /api/v1/phases/:id/export
func (h *ExportHandler) ExportPhaseRoster(c *gin.Context) {
	id, ok := paramPhaseID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportPhaseRoster(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhaseNotFound):
			response.NotFound(c, response.CodePhaseNotFound, "phase not found")
		case errors.Is(err, service.ErrExportEmpty):
			response.NotFound(c, response.CodeExportEmpty, "no processes at this phase")
		case errors.Is(err, service.ErrExportGenerateFail):
			response.Error(c, http.StatusInternalServerError, response.CodeExportFailed, "failed to generate spreadsheet")
		default:
			response.InternalError(c)
		}
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
