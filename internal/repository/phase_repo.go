package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
)

// PhaseRepository phase calendar access.
type PhaseRepository interface {
	List(ctx context.Context) ([]model.Phase, error)
	GetByID(ctx context.Context, id int) (*model.Phase, error)
	Update(ctx context.Context, phase *model.Phase) error
	// TitleTaken reports whether another phase already uses title.
	TitleTaken(ctx context.Context, title string, excludeID int) (bool, error)
}

type phaseRepo struct {
	db *gorm.DB
}

// NewPhaseRepo creates a PhaseRepository.
func NewPhaseRepo(db *gorm.DB) PhaseRepository {
	return &phaseRepo{db: db}
}

func (r *phaseRepo) List(ctx context.Context) ([]model.Phase, error) {
	var phases []model.Phase
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&phases).Error
	return phases, err
}

func (r *phaseRepo) GetByID(ctx context.Context, id int) (*model.Phase, error) {
	var phase model.Phase
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&phase).Error
	if err != nil {
		return nil, err
	}
	return &phase, nil
}

func (r *phaseRepo) Update(ctx context.Context, phase *model.Phase) error {
	return r.db.WithContext(ctx).
		Model(phase).
		Where("id = ?", phase.ID).
		Updates(map[string]interface{}{
			"title":      phase.Title,
			"start":      phase.Start,
			"end":        phase.End,
			"updated_by": phase.UpdatedBy,
		}).Error
}

func (r *phaseRepo) TitleTaken(ctx context.Context, title string, excludeID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Phase{}).
		Where("title = ? AND id <> ?", title, excludeID).
		Count(&count).Error
	return count > 0, err
}
