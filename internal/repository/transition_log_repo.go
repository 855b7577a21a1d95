package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
)

// TransitionLogRepository read access to the phase transition audit trail.
type TransitionLogRepository interface {
	ListByPhase(ctx context.Context, fromPhaseID int, limit int) ([]model.PhaseTransitionLog, error)
}

type transitionLogRepo struct {
	db *gorm.DB
}

// NewTransitionLogRepo creates a TransitionLogRepository.
func NewTransitionLogRepo(db *gorm.DB) TransitionLogRepository {
	return &transitionLogRepo{db: db}
}

func (r *transitionLogRepo) ListByPhase(ctx context.Context, fromPhaseID int, limit int) ([]model.PhaseTransitionLog, error) {
	var logs []model.PhaseTransitionLog
	err := r.db.WithContext(ctx).
		Where("from_phase_id = ?", fromPhaseID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
