package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
)

// ReviewRepository review access for reviewer updates.
type ReviewRepository interface {
	// GetByID loads the review with its ThesisInfo.
	GetByID(ctx context.Context, id uint) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	ListByThesisInfo(ctx context.Context, thesisInfoID uint) ([]model.Review, error)
	UpdateSummary(ctx context.Context, thesisInfoID uint, summary model.Status) error
}

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepo creates a ReviewRepository.
func NewReviewRepo(db *gorm.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) GetByID(ctx context.Context, id uint) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Preload("ThesisInfo").
		Where("id = ?", id).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]interface{}{
			"content_status":      review.ContentStatus,
			"presentation_status": review.PresentationStatus,
			"comment":             review.Comment,
			"file_id":             review.FileID,
			"updated_by":          review.UpdatedBy,
		}).Error
}

func (r *reviewRepo) ListByThesisInfo(ctx context.Context, thesisInfoID uint) ([]model.Review, error) {
	return NewCaseStore(r.db).GetReviews(ctx, thesisInfoID)
}

func (r *reviewRepo) UpdateSummary(ctx context.Context, thesisInfoID uint, summary model.Status) error {
	return r.db.WithContext(ctx).
		Model(&model.ThesisInfo{}).
		Where("id = ?", thesisInfoID).
		Update("summary", summary).Error
}
