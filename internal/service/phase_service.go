package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/dto"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
)

// ── phase errors ──

var (
	ErrPhaseNotFound    = errors.New("phase not found")
	ErrPhaseTitleExists = errors.New("phase title already in use")
	ErrPhaseWindow      = errors.New("phase end must be after start")
	ErrPhaseTimeFormat  = errors.New("phase time must look like 2006-01-02T15:04:05")
)

// PhaseScheduler rearms the start timer of an edited phase.
type PhaseScheduler interface {
	Reschedule(phase model.Phase) error
}

// PhaseService phase calendar administration.
type PhaseService interface {
	List(ctx context.Context) ([]dto.PhaseResponse, error)
	GetByID(ctx context.Context, id int) (*dto.PhaseResponse, error)
	// Update persists the new window and reschedules the start timer.
	Update(ctx context.Context, id int, req *dto.UpdatePhaseRequest, callerID string) (*dto.UpdatePhaseResponse, error)
	// ApplyNow re-evaluates the processes at phase id immediately.
	ApplyNow(ctx context.Context, id int) (*dto.ApplyPhaseResponse, error)
	ListTransitions(ctx context.Context, id int, limit int) ([]dto.TransitionLogResponse, error)
	// Calendar renders every phase as an iCalendar document.
	Calendar(ctx context.Context) ([]byte, error)
}

type phaseService struct {
	repo      *repository.Repository
	engine    TransitionService
	scheduler PhaseScheduler // nil when the scheduler is disabled
	loc       *time.Location
	logger    *zap.Logger
}

// NewPhaseService creates a PhaseService.
func NewPhaseService(repo *repository.Repository, engine TransitionService, scheduler PhaseScheduler, loc *time.Location, logger *zap.Logger) PhaseService {
	return &phaseService{
		repo:      repo,
		engine:    engine,
		scheduler: scheduler,
		loc:       loc,
		logger:    logger,
	}
}

// ────────────────────── List / GetByID ──────────────────────

func (s *phaseService) List(ctx context.Context) ([]dto.PhaseResponse, error) {
	phases, err := s.repo.Phase.List(ctx)
	if err != nil {
		s.logger.Error("list phases", zap.Error(err))
		return nil, err
	}
	result := make([]dto.PhaseResponse, 0, len(phases))
	for i := range phases {
		result = append(result, s.toPhaseResponse(&phases[i]))
	}
	return result, nil
}

func (s *phaseService) GetByID(ctx context.Context, id int) (*dto.PhaseResponse, error) {
	phase, err := s.getPhase(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toPhaseResponse(phase)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *phaseService) Update(ctx context.Context, id int, req *dto.UpdatePhaseRequest, callerID string) (*dto.UpdatePhaseResponse, error) {
	start, err := dto.ParseCivil(req.Start)
	if err != nil {
		return nil, ErrPhaseTimeFormat
	}
	end, err := dto.ParseCivil(req.End)
	if err != nil {
		return nil, ErrPhaseTimeFormat
	}
	if !end.After(start) {
		return nil, ErrPhaseWindow
	}

	phase, err := s.getPhase(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != phase.Title {
		taken, err := s.repo.Phase.TitleTaken(ctx, req.Title, id)
		if err != nil {
			s.logger.Error("check phase title", zap.Int("id", id), zap.Error(err))
			return nil, err
		}
		if taken {
			return nil, ErrPhaseTitleExists
		}
	}

	phase.Title = req.Title
	phase.Start = start
	phase.End = end
	phase.UpdatedBy = &callerID

	if err := s.repo.Phase.Update(ctx, phase); err != nil {
		s.logger.Error("update phase", zap.Int("id", id), zap.Error(err))
		return nil, err
	}

	scheduled := false
	if s.scheduler != nil {
		if err := s.scheduler.Reschedule(*phase); err != nil {
			s.logger.Warn("phase saved but start timer not armed",
				zap.Int("id", id),
				zap.String("title", phase.Title),
				zap.Error(err),
			)
		} else {
			scheduled = true
		}
	}

	s.logger.Info("phase updated",
		zap.Int("id", id),
		zap.String("title", phase.Title),
		zap.Time("start", phase.StartAt(s.loc)),
		zap.String("by", callerID),
	)

	return &dto.UpdatePhaseResponse{
		PhaseResponse: s.toPhaseResponse(phase),
		Scheduled:     scheduled,
	}, nil
}

// ────────────────────── ApplyNow ──────────────────────

func (s *phaseService) ApplyNow(ctx context.Context, id int) (*dto.ApplyPhaseResponse, error) {
	if _, err := s.getPhase(ctx, id); err != nil {
		return nil, err
	}
	n, err := s.engine.ApplyPhase(ctx, id, model.TriggerManual)
	if err != nil {
		return nil, err
	}
	return &dto.ApplyPhaseResponse{FromPhaseID: id, Advanced: n}, nil
}

// ────────────────────── ListTransitions ──────────────────────

func (s *phaseService) ListTransitions(ctx context.Context, id int, limit int) ([]dto.TransitionLogResponse, error) {
	if _, err := s.getPhase(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.repo.TransitionLog.ListByPhase(ctx, id, limit)
	if err != nil {
		s.logger.Error("list transition logs", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	result := make([]dto.TransitionLogResponse, 0, len(logs))
	for _, l := range logs {
		var ids []uint
		if len(l.ProcessIDs) > 0 {
			if err := json.Unmarshal(l.ProcessIDs, &ids); err != nil {
				s.logger.Warn("undecodable process ids in transition log", zap.Uint("log_id", l.ID), zap.Error(err))
			}
		}
		result = append(result, dto.TransitionLogResponse{
			ID:          l.ID,
			FromPhaseID: l.FromPhaseID,
			ToPhaseID:   l.ToPhaseID,
			Trigger:     l.Trigger,
			Advanced:    l.Advanced,
			Skipped:     l.Skipped,
			Status:      l.Status,
			Error:       l.Error,
			ProcessIDs:  ids,
			CreatedAt:   dto.FormatTime(l.CreatedAt),
		})
	}
	return result, nil
}

// ────────────────────── Calendar ──────────────────────

const calendarProductID = "-//ICC Graduate Dissertation//Phase Calendar//EN"

func (s *phaseService) Calendar(ctx context.Context) ([]byte, error) {
	phases, err := s.repo.Phase.List(ctx)
	if err != nil {
		s.logger.Error("list phases", zap.Error(err))
		return nil, err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("Thesis review phases")
	cal.SetXWRTimezone(s.loc.String())

	for i := range phases {
		p := &phases[i]
		event := cal.AddEvent(fmt.Sprintf("phase-%d@icc-grad-dissertation", p.ID))
		event.SetDtStampTime(p.UpdatedAt)
		event.SetStartAt(p.StartAt(s.loc))
		event.SetEndAt(p.EndAt(s.loc))
		event.SetSummary(p.Title)
		event.SetDescription(fmt.Sprintf("Phase %d of %d", p.ID, model.PhaseLast))
	}

	return []byte(cal.Serialize()), nil
}

// ── helpers ──

func (s *phaseService) getPhase(ctx context.Context, id int) (*model.Phase, error) {
	phase, err := s.repo.Phase.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhaseNotFound
		}
		s.logger.Error("get phase", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return phase, nil
}

func (s *phaseService) toPhaseResponse(p *model.Phase) dto.PhaseResponse {
	return dto.PhaseResponse{
		ID:        p.ID,
		Title:     p.Title,
		Start:     dto.FormatCivil(p.Start),
		End:       dto.FormatCivil(p.End),
		Timezone:  s.loc.String(),
		UpdatedAt: dto.FormatTime(p.UpdatedAt),
	}
}
