package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/dto"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/service"
	pkgerrors "github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/errors"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/response"
)

// ProcessHandler process endpoints.
type ProcessHandler struct {
	processSvc service.ProcessService
}

// NewProcessHandler creates a ProcessHandler.
func NewProcessHandler(processSvc service.ProcessService) *ProcessHandler {
	return &ProcessHandler{processSvc: processSvc}
}

// GetProcess GET /api/v1/processes/:id
func (h *ProcessHandler) GetProcess(c *gin.Context) {
	id, ok := paramUintID(c)
	if !ok {
		return
	}

	p, err := h.processSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleProcessError(c, err)
		return
	}

	response.OK(c, p)
}

// SetLock PUT /api/v1/processes/:id/lock
func (h *ProcessHandler) SetLock(c *gin.Context) {
	id, ok := paramUintID(c)
	if !ok {
		return
	}

	var req dto.SetLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "validation failed")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.processSvc.SetLock(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleProcessError(c, err)
		return
	}

	response.OK(c, p)
}

// SetPhase PUT /api/v1/processes/:id/phase
func (h *ProcessHandler) SetPhase(c *gin.Context) {
	id, ok := paramUintID(c)
	if !ok {
		return
	}

	var req dto.SetPhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "validation failed")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.processSvc.SetPhase(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleProcessError(c, err)
		return
	}

	response.OK(c, p)
}

func (h *ProcessHandler) handleProcessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProcessNotFound):
		response.NotFound(c, response.CodeProcessNotFound, "process not found")
	case errors.Is(err, pkgerrors.ErrPhaseRollback):
		response.BadRequest(c, response.CodePhaseRollback, "phase can only move forward")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, response.CodeProcessConflict, "process was modified concurrently, reload and retry")
	default:
		response.InternalError(c)
	}
}
