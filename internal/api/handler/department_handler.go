package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/dto"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/service"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/response"
)

// DepartmentHandler department endpoints.
type DepartmentHandler struct {
	deptSvc service.DepartmentService
}

// NewDepartmentHandler creates a DepartmentHandler.
func NewDepartmentHandler(deptSvc service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{deptSvc: deptSvc}
}

// ListDepartments GET /api/v1/departments
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	depts, err := h.deptSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": depts})
}

// UpdateDepartment sets the modification flag.
// PUT /api/v1/departments/:id
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	id, ok := paramUintID(c)
	if !ok {
		return
	}

	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "validation failed")
		return
	}

	dept, err := h.deptSvc.SetModificationFlag(c.Request.Context(), id, &req, callerID)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, dept)
}

func (h *DepartmentHandler) handleDepartmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, response.CodeDepartmentNotFound, "department not found")
	default:
		response.InternalError(c)
	}
}
