package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/dto"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/service"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/response"
)

// PhaseHandler phase calendar endpoints.
type PhaseHandler struct {
	phaseSvc   service.PhaseService
	processSvc service.ProcessService
}

// NewPhaseHandler creates a PhaseHandler.
func NewPhaseHandler(phaseSvc service.PhaseService, processSvc service.ProcessService) *PhaseHandler {
	return &PhaseHandler{phaseSvc: phaseSvc, processSvc: processSvc}
}

// ListPhases GET /api/v1/phases
func (h *PhaseHandler) ListPhases(c *gin.Context) {
	phases, err := h.phaseSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"list": phases})
}

// GetPhase GET /api/v1/phases/:id
func (h *PhaseHandler) GetPhase(c *gin.Context) {
	id, ok := paramPhaseID(c)
	if !ok {
		return
	}

	phase, err := h.phaseSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handlePhaseError(c, err)
		return
	}

	response.OK(c, phase)
}

// UpdatePhase edits the window of a phase and rearms its start timer.
// PUT /api/v1/phases/:id
func (h *PhaseHandler) UpdatePhase(c *gin.Context) {
	id, ok := paramPhaseID(c)
	if !ok {
		return
	}

	var req dto.UpdatePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "validation failed")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	phase, err := h.phaseSvc.Update(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handlePhaseError(c, err)
		return
	}

	response.OK(c, phase)
}

// ApplyPhase re-evaluates the processes waiting at a phase.
// POST /api/v1/phases/:id/apply
func (h *PhaseHandler) ApplyPhase(c *gin.Context) {
	id, ok := paramPhaseID(c)
	if !ok {
		return
	}

	result, err := h.phaseSvc.ApplyNow(c.Request.Context(), id)
	if err != nil {
		h.handlePhaseError(c, err)
		return
	}

	response.OK(c, result)
}

// ListTransitions GET /api/v1/phases/:id/transitions
func (h *PhaseHandler) ListTransitions(c *gin.Context) {
	id, ok := paramPhaseID(c)
	if !ok {
		return
	}

	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "validation failed")
		return
	}

	logs, err := h.phaseSvc.ListTransitions(c.Request.Context(), id, req.GetLimit())
	if err != nil {
		h.handlePhaseError(c, err)
		return
	}

	response.OK(c, gin.H{"list": logs})
}

// ListProcesses GET /api/v1/phases/:id/processes
func (h *PhaseHandler) ListProcesses(c *gin.Context) {
	id, ok := paramPhaseID(c)
	if !ok {
		return
	}

	var req dto.ProcessListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "validation failed")
		return
	}

	if _, err := h.phaseSvc.GetByID(c.Request.Context(), id); err != nil {
		h.handlePhaseError(c, err)
		return
	}

	list, err := h.processSvc.ListByPhase(c.Request.Context(), id, &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list, "total": len(list)})
}

// Calendar GET /api/v1/calendar/phases.ics
func (h *PhaseHandler) Calendar(c *gin.Context) {
	body, err := h.phaseSvc.Calendar(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", `inline; filename="phases.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}

func (h *PhaseHandler) handlePhaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPhaseNotFound):
		response.NotFound(c, response.CodePhaseNotFound, "phase not found")
	case errors.Is(err, service.ErrPhaseTitleExists):
		response.Conflict(c, response.CodePhaseTitleExists, "phase title already in use")
	case errors.Is(err, service.ErrPhaseWindow):
		response.BadRequest(c, response.CodePhaseWindow, "phase end must be after start")
	case errors.Is(err, service.ErrPhaseTimeFormat):
		response.BadRequest(c, response.CodePhaseTimeFormat, "phase time must be formatted as "+dto.CivilLayout)
	case errors.Is(err, service.ErrNoTransition):
		response.BadRequest(c, response.CodeNoTransition, "phase has no automatic transition")
	case errors.Is(err, service.ErrPhaseBusy):
		response.Conflict(c, response.CodePhaseBusy, "phase transition already running")
	default:
		response.InternalError(c)
	}
}
