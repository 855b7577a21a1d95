package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/dto"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/review"
	pkgerrors "github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/pkg/errors"
)

// ErrProcessNotFound no process with that id.
var ErrProcessNotFound = errors.New("process not found")

// ProcessService process inspection and manual overrides.
type ProcessService interface {
	GetByID(ctx context.Context, id uint) (*dto.ProcessDetailResponse, error)
	ListByPhase(ctx context.Context, phaseID int, req *dto.ProcessListRequest) ([]dto.ProcessSummaryResponse, error)
	// SetLock toggles isLock; locked processes are never advanced automatically.
	SetLock(ctx context.Context, id uint, req *dto.SetLockRequest, callerID string) (*dto.ProcessSummaryResponse, error)
	// SetPhase moves a process forward by hand. The stage is left alone.
	SetPhase(ctx context.Context, id uint, req *dto.SetPhaseRequest, callerID string) (*dto.ProcessSummaryResponse, error)
}

type processService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProcessService creates a ProcessService.
func NewProcessService(repo *repository.Repository, logger *zap.Logger) ProcessService {
	return &processService{repo: repo, logger: logger}
}

// ────────────────────── GetByID ──────────────────────

func (s *processService) GetByID(ctx context.Context, id uint) (*dto.ProcessDetailResponse, error) {
	p, err := s.getProcess(ctx, id)
	if err != nil {
		return nil, err
	}

	modification, err := p.ModificationRequired()
	if err != nil {
		s.logger.Warn("process department missing", zap.Uint("id", id), zap.Error(err))
	}

	stages := make([]dto.StageResponse, 0, len(p.ThesisInfos))
	for i := range p.ThesisInfos {
		info := &p.ThesisInfos[i]
		stages = append(stages, dto.StageResponse{
			ThesisInfoID:       info.ID,
			Stage:              string(info.Stage),
			Title:              info.Title,
			Summary:            string(review.AggregateStage(info.Stage, info.Reviews)),
			SubmissionComplete: info.SubmissionComplete(),
			ReviewCount:        len(info.Reviews),
		})
	}

	return &dto.ProcessDetailResponse{
		ProcessSummaryResponse: toProcessSummary(p),
		ModificationRequired:   modification,
		HeadReviewerID:         p.HeadReviewerID,
		ReviewerIDs:            p.ReviewerIDs(),
		Stages:                 stages,
	}, nil
}

// ────────────────────── ListByPhase ──────────────────────

func (s *processService) ListByPhase(ctx context.Context, phaseID int, req *dto.ProcessListRequest) ([]dto.ProcessSummaryResponse, error) {
	filter := repository.ProcessFilter{
		Locked: req.Locked,
		Stage:  model.Stage(req.Stage),
	}
	processes, err := s.repo.Process.ListByPhase(ctx, phaseID, filter)
	if err != nil {
		s.logger.Error("list processes", zap.Int("phase", phaseID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ProcessSummaryResponse, 0, len(processes))
	for i := range processes {
		result = append(result, toProcessSummary(&processes[i]))
	}
	return result, nil
}

// ────────────────────── SetLock ──────────────────────

func (s *processService) SetLock(ctx context.Context, id uint, req *dto.SetLockRequest, callerID string) (*dto.ProcessSummaryResponse, error) {
	p, err := s.getProcess(ctx, id)
	if err != nil {
		return nil, err
	}
	locked := *req.Locked
	if err := s.repo.Process.SetLock(ctx, id, locked, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProcessNotFound
		}
		s.logger.Error("set process lock", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	p.IsLock = locked

	s.logger.Info("process lock changed",
		zap.Uint("id", id), zap.Bool("locked", locked), zap.String("by", callerID))
	resp := toProcessSummary(p)
	return &resp, nil
}

// ────────────────────── SetPhase ──────────────────────

func (s *processService) SetPhase(ctx context.Context, id uint, req *dto.SetPhaseRequest, callerID string) (*dto.ProcessSummaryResponse, error) {
	p, err := s.getProcess(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.PhaseID <= p.PhaseID {
		return nil, pkgerrors.ErrPhaseRollback
	}
	if err := s.repo.Process.SetPhase(ctx, id, p.PhaseID, req.PhaseID, callerID); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("set process phase", zap.Uint("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("process phase set manually",
		zap.Uint("id", id),
		zap.Int("from", p.PhaseID),
		zap.Int("to", req.PhaseID),
		zap.String("by", callerID),
	)
	p.PhaseID = req.PhaseID
	resp := toProcessSummary(p)
	return &resp, nil
}

// ── helpers ──

func (s *processService) getProcess(ctx context.Context, id uint) (*model.Process, error) {
	p, err := s.repo.Process.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProcessNotFound
		}
		s.logger.Error("get process", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func toProcessSummary(p *model.Process) dto.ProcessSummaryResponse {
	return dto.ProcessSummaryResponse{
		ID:           p.ID,
		StudentID:    p.StudentID,
		DepartmentID: p.DepartmentID,
		PhaseID:      p.PhaseID,
		CurrentStage: string(p.CurrentStage),
		IsLock:       p.IsLock,
	}
}
