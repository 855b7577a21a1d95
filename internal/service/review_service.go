package service

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/dto"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/review"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrReviewForbidden = errors.New("review belongs to another reviewer")
)

// RoleAdmin may edit any review.
const RoleAdmin = "admin"

// ReviewService reviewer verdicts.
type ReviewService interface {
	// Update stores the verdict and recomputes the thesis summary in the
	// same transaction.
	Update(ctx context.Context, id uint, req *dto.UpdateReviewRequest, callerID, role string) (*dto.ReviewResponse, error)
}

type reviewService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReviewService creates a ReviewService.
func NewReviewService(repo *repository.Repository, logger *zap.Logger) ReviewService {
	return &reviewService{repo: repo, logger: logger}
}

func (s *reviewService) Update(ctx context.Context, id uint, req *dto.UpdateReviewRequest, callerID, role string) (*dto.ReviewResponse, error) {
	var (
		updated *model.Review
		summary model.Status
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		r, err := tx.Review.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}
		if role != RoleAdmin && !ownsReview(r, callerID) {
			return ErrReviewForbidden
		}
		if r.ThesisInfo == nil {
			return ErrReviewNotFound
		}

		if req.ContentStatus != nil {
			r.ContentStatus = model.Status(*req.ContentStatus)
		}
		if req.PresentationStatus != nil {
			r.PresentationStatus = model.Status(*req.PresentationStatus)
		}
		if req.Comment != nil {
			r.Comment = *req.Comment
		}
		if req.FileID != nil {
			r.FileID = req.FileID
		}
		r.UpdatedBy = &callerID

		if err := tx.Review.Update(ctx, r); err != nil {
			return err
		}

		reviews, err := tx.Review.ListByThesisInfo(ctx, r.ThesisInfoID)
		if err != nil {
			return err
		}
		summary = review.AggregateStage(r.ThesisInfo.Stage, reviews)
		if err := tx.Review.UpdateSummary(ctx, r.ThesisInfoID, summary); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrReviewNotFound) && !errors.Is(err, ErrReviewForbidden) {
			s.logger.Error("update review", zap.Uint("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("review updated",
		zap.Uint("id", id),
		zap.Uint("thesis_info_id", updated.ThesisInfoID),
		zap.String("summary", string(summary)),
		zap.String("by", callerID),
	)

	return &dto.ReviewResponse{
		ID:                 updated.ID,
		ThesisInfoID:       updated.ThesisInfoID,
		ReviewerID:         updated.ReviewerID,
		IsFinal:            updated.IsFinal,
		ContentStatus:      string(updated.ContentStatus),
		PresentationStatus: string(updated.PresentationStatus),
		Comment:            updated.Comment,
		FileID:             updated.FileID,
		ThesisSummary:      string(summary),
	}, nil
}

// ownsReview compares the caller's user id with the reviewer id.
func ownsReview(r *model.Review, callerID string) bool {
	uid, err := strconv.ParseUint(callerID, 10, 64)
	if err != nil {
		return false
	}
	return uint(uid) == r.ReviewerID
}
