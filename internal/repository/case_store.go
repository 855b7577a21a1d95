package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	pkgerrors "github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/errors"
)

// ProcessFilter narrows FindProcesses beyond the phase id.
type ProcessFilter struct {
	Locked *bool       // nil: both
	Stage  model.Stage // "": any
}

// CaseStore is what the transition engine and the scheduler need from
// persistence.
type CaseStore interface {
	ListPhases(ctx context.Context) ([]model.Phase, error)
	// FindProcesses loads processes at phaseID with Department and
	// ThesisInfos.Files preloaded.
	FindProcesses(ctx context.Context, phaseID int, filter ProcessFilter) ([]model.Process, error)
	// BulkUpdatePhase moves every id from → to in one statement. It fails
	// with ErrOptimisticLock unless all ids were still at from.
	BulkUpdatePhase(ctx context.Context, ids []uint, from, to int, stage *model.Stage) error
	GetReviews(ctx context.Context, thesisInfoID uint) ([]model.Review, error)
	// OpenRevision creates the REVISION record for processes that lack one.
	OpenRevision(ctx context.Context, ids []uint) error
	RecordTransition(ctx context.Context, entry *model.PhaseTransitionLog) error
	// WithinTx runs fn against a store bound to one transaction.
	WithinTx(ctx context.Context, fn func(tx CaseStore) error) error
}

type caseStore struct {
	db *gorm.DB
}

// NewCaseStore creates the gorm CaseStore.
func NewCaseStore(db *gorm.DB) CaseStore {
	return &caseStore{db: db}
}

func (s *caseStore) ListPhases(ctx context.Context) ([]model.Phase, error) {
	var phases []model.Phase
	err := s.db.WithContext(ctx).
		Order("id ASC").
		Find(&phases).Error
	return phases, err
}

func (s *caseStore) FindProcesses(ctx context.Context, phaseID int, filter ProcessFilter) ([]model.Process, error) {
	q := s.db.WithContext(ctx).
		Preload("Department").
		Preload("ThesisInfos.Files").
		Where("phase_id = ?", phaseID)
	if filter.Locked != nil {
		q = q.Where("is_lock = ?", *filter.Locked)
	}
	if filter.Stage != "" {
		q = q.Where("current_stage = ?", filter.Stage)
	}

	var processes []model.Process
	err := q.Order("id ASC").Find(&processes).Error
	return processes, err
}

func (s *caseStore) BulkUpdatePhase(ctx context.Context, ids []uint, from, to int, stage *model.Stage) error {
	if to <= from {
		return pkgerrors.ErrPhaseRollback
	}
	if len(ids) == 0 {
		return nil
	}

	updates := map[string]interface{}{"phase_id": to}
	if stage != nil {
		updates["current_stage"] = *stage
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Process{}).
			Where("id IN ? AND phase_id = ? AND is_lock = ?", ids, from, false).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(ids)) {
			return fmt.Errorf("advance %d processes %d→%d, %d matched: %w",
				len(ids), from, to, result.RowsAffected, pkgerrors.ErrOptimisticLock)
		}
		return nil
	})
}

func (s *caseStore) GetReviews(ctx context.Context, thesisInfoID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := s.db.WithContext(ctx).
		Where("thesis_info_id = ?", thesisInfoID).
		Order("is_final ASC, reviewer_id ASC").
		Find(&reviews).Error
	return reviews, err
}

func (s *caseStore) OpenRevision(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	var processes []model.Process
	err := s.db.WithContext(ctx).
		Preload("Reviewers").
		Preload("ThesisInfos").
		Where("id IN ?", ids).
		Find(&processes).Error
	if err != nil {
		return err
	}

	infos := make([]model.ThesisInfo, 0, len(processes))
	for i := range processes {
		if _, ok := processes[i].ThesisInfoFor(model.StageRevision); ok {
			continue
		}
		infos = append(infos, *model.NewRevisionThesis(&processes[i]))
	}
	if len(infos) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&infos).Error
}

func (s *caseStore) RecordTransition(ctx context.Context, entry *model.PhaseTransitionLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *caseStore) WithinTx(ctx context.Context, fn func(tx CaseStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&caseStore{db: tx})
	})
}
