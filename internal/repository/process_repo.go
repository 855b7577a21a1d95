package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	pkgerrors "github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/errors"
)

// ProcessRepository process access outside of the transition engine.
type ProcessRepository interface {
	// Create inserts the process with its whole stage tree (see model.NewProcess).
	// Student records are created by the external administration service;
	// this is the write seam it uses, and repository tests seed through it.
	Create(ctx context.Context, process *model.Process) error
	// GetByID loads the process with department, reviewers, files and reviews.
	GetByID(ctx context.Context, id uint) (*model.Process, error)
	ListByPhase(ctx context.Context, phaseID int, filter ProcessFilter) ([]model.Process, error)
	SetLock(ctx context.Context, id uint, lock bool, updatedBy string) error
	// SetPhase moves one process from → to; ErrOptimisticLock when it is no
	// longer at from.
	SetPhase(ctx context.Context, id uint, from, to int, updatedBy string) error
}

type processRepo struct {
	db *gorm.DB
}

// NewProcessRepo creates a ProcessRepository.
func NewProcessRepo(db *gorm.DB) ProcessRepository {
	return &processRepo{db: db}
}

func (r *processRepo) Create(ctx context.Context, process *model.Process) error {
	return r.db.WithContext(ctx).Create(process).Error
}

func (r *processRepo) GetByID(ctx context.Context, id uint) (*model.Process, error) {
	var process model.Process
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Reviewers").
		Preload("ThesisInfos.Files").
		Preload("ThesisInfos.Reviews").
		Where("id = ?", id).
		First(&process).Error
	if err != nil {
		return nil, err
	}
	return &process, nil
}

func (r *processRepo) ListByPhase(ctx context.Context, phaseID int, filter ProcessFilter) ([]model.Process, error) {
	return NewCaseStore(r.db).FindProcesses(ctx, phaseID, filter)
}

func (r *processRepo) SetLock(ctx context.Context, id uint, lock bool, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Process{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_lock":    lock,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *processRepo) SetPhase(ctx context.Context, id uint, from, to int, updatedBy string) error {
	if to <= from {
		return pkgerrors.ErrPhaseRollback
	}
	result := r.db.WithContext(ctx).
		Model(&model.Process{}).
		Where("id = ? AND phase_id = ?", id, from).
		Updates(map[string]interface{}{
			"phase_id":   to,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
