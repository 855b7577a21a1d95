package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/dto"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/service"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/response"
)

// ReviewHandler review endpoints.
type ReviewHandler struct {
	reviewSvc service.ReviewService
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(reviewSvc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc}
}

// UpdateReview records a verdict. Professors may only edit their own reviews
// (checked in the service).
// PUT /api/v1/reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id, ok := paramUintID(c)
	if !ok {
		return
	}

	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "validation failed")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	r, err := h.reviewSvc.Update(c.Request.Context(), id, &req, callerID, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			response.NotFound(c, response.CodeReviewNotFound, "review not found")
		case errors.Is(err, service.ErrReviewForbidden):
			response.Forbidden(c, response.CodeReviewForbidden, "review belongs to another reviewer")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, r)
}
