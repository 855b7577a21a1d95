package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/metrics"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/review"
)

// ── transition errors ──

var (
	ErrNoTransition   = errors.New("phase has no automatic transition")
	ErrInvalidTrigger = errors.New("invalid transition trigger")
	ErrStageMissing   = errors.New("process has no thesis record for stage")
)

// TransitionService advances processes between phases.
type TransitionService interface {
	// ApplyPhase evaluates every process at from and moves the ones whose
	// guard holds, all in one transaction. It returns how many moved.
	ApplyPhase(ctx context.Context, from int, trigger string) (int, error)
	// ApplyPhaseStart runs every rule fired by the start of phase.
	ApplyPhaseStart(ctx context.Context, phase model.Phase) (int, error)
}

// ── transition table ──

// guardFunc reports whether p may leave its phase. An error skips p.
type guardFunc func(ctx context.Context, tx repository.CaseStore, p *model.Process) (bool, error)

// target one destination of a rule. The first target whose when holds
// (nil always holds) receives the process.
type target struct {
	to           int
	stage        model.Stage // "" keeps the current stage
	openRevision bool
	when         func(p *model.Process) (bool, error)
}

type transitionRule struct {
	from    int
	trigger int // phase whose start fires the rule
	guard   guardFunc
	targets []target
}

func defaultRules() map[int]transitionRule {
	rules := []transitionRule{
		{
			from: model.PhasePreliminaryReview, trigger: model.PhasePreliminaryFinal,
			guard:   submissionComplete(model.StagePreliminary),
			targets: []target{{to: model.PhasePreliminaryFinal}},
		},
		{
			from: model.PhasePreliminaryFinal, trigger: model.PhaseMainUpload,
			targets: []target{{to: model.PhaseMainUpload, stage: model.StageMain}},
		},
		{
			from: model.PhaseMainUpload, trigger: model.PhaseMainReview,
			guard:   submissionComplete(model.StageMain),
			targets: []target{{to: model.PhaseMainReview}},
		},
		{
			from: model.PhaseMainReview, trigger: model.PhaseMainFinal,
			targets: []target{{to: model.PhaseMainFinal}},
		},
		{
			from: model.PhaseMainFinal, trigger: model.PhaseRevisionUpload,
			guard: reviewsPass(model.StageMain),
			targets: []target{
				{
					to:           model.PhaseRevisionUpload,
					stage:        model.StageRevision,
					openRevision: true,
					when:         (*model.Process).ModificationRequired,
				},
				{to: model.PhasePerformanceReport},
			},
		},
		{
			from: model.PhaseRevisionUpload, trigger: model.PhaseRevisionReview,
			guard:   submissionComplete(model.StageRevision),
			targets: []target{{to: model.PhaseRevisionReview}},
		},
		{
			from: model.PhaseRevisionReview, trigger: model.PhasePerformanceReport,
			guard:   reviewsPass(model.StageRevision),
			targets: []target{{to: model.PhasePerformanceReport}},
		},
		{
			from: model.PhasePerformanceReport, trigger: model.PhaseCompleted,
			targets: []target{{to: model.PhaseCompleted}},
		},
	}

	table := make(map[int]transitionRule, len(rules))
	for _, r := range rules {
		table[r.from] = r
	}
	return table
}

func stageInfo(p *model.Process, stage model.Stage) (*model.ThesisInfo, error) {
	info, ok := p.ThesisInfoFor(stage)
	if !ok {
		return nil, fmt.Errorf("process %d %s: %w", p.ID, stage, ErrStageMissing)
	}
	return info, nil
}

func submissionComplete(stage model.Stage) guardFunc {
	return func(_ context.Context, _ repository.CaseStore, p *model.Process) (bool, error) {
		info, err := stageInfo(p, stage)
		if err != nil {
			return false, err
		}
		return info.SubmissionComplete(), nil
	}
}

func reviewsPass(stage model.Stage) guardFunc {
	return func(ctx context.Context, tx repository.CaseStore, p *model.Process) (bool, error) {
		info, err := stageInfo(p, stage)
		if err != nil {
			return false, err
		}
		reviews, err := tx.GetReviews(ctx, info.ID)
		if err != nil {
			return false, fmt.Errorf("load reviews of thesis %d: %w", info.ID, err)
		}
		return review.AggregateStage(stage, reviews) == model.StatusPass, nil
	}
}

// ── engine ──

const tracerName = "thesis-phase/transition"

type transitionService struct {
	store   repository.CaseStore
	locker  PhaseLocker
	metrics *metrics.Metrics
	logger  *zap.Logger
	rules   map[int]transitionRule
}

// NewTransitionService creates the transition engine.
func NewTransitionService(store repository.CaseStore, locker PhaseLocker, m *metrics.Metrics, logger *zap.Logger) TransitionService {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &transitionService{
		store:   store,
		locker:  locker,
		metrics: m,
		logger:  logger,
		rules:   defaultRules(),
	}
}

// applyResult what one apply moved, per target index.
type applyResult struct {
	moved   [][]uint
	skipped int
}

func (r applyResult) advanced() int {
	n := 0
	for _, ids := range r.moved {
		n += len(ids)
	}
	return n
}

func (s *transitionService) ApplyPhase(ctx context.Context, from int, trigger string) (int, error) {
	if trigger != model.TriggerScheduler && trigger != model.TriggerManual {
		return 0, fmt.Errorf("%q: %w", trigger, ErrInvalidTrigger)
	}
	rule, ok := s.rules[from]
	if !ok {
		return 0, fmt.Errorf("phase %d: %w", from, ErrNoTransition)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "transition.ApplyPhase")
	defer span.End()
	span.SetAttributes(
		attribute.Int("phase.from", from),
		attribute.String("transition.trigger", trigger),
	)

	unlock, err := s.locker.Lock(ctx, from)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "phase busy")
		return 0, err
	}
	defer unlock()

	var result applyResult
	err = s.store.WithinTx(ctx, func(tx repository.CaseStore) error {
		var err error
		result, err = s.apply(ctx, tx, rule, trigger)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition rolled back")
		s.metrics.ObserveFailure(from)
		s.logger.Error("phase transition failed",
			zap.Int("from", from),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		s.recordFailure(ctx, from, trigger, err)
		return 0, err
	}

	for i, ids := range result.moved {
		s.metrics.ObserveTransition(from, rule.targets[i].to, len(ids))
	}
	span.SetAttributes(
		attribute.Int("transition.advanced", result.advanced()),
		attribute.Int("transition.skipped", result.skipped),
	)
	s.logger.Info("phase transition applied",
		zap.Int("from", from),
		zap.String("trigger", trigger),
		zap.Int("advanced", result.advanced()),
		zap.Int("skipped", result.skipped),
	)
	return result.advanced(), nil
}

func (s *transitionService) apply(ctx context.Context, tx repository.CaseStore, rule transitionRule, trigger string) (applyResult, error) {
	result := applyResult{moved: make([][]uint, len(rule.targets))}

	processes, err := tx.FindProcesses(ctx, rule.from, repository.ProcessFilter{})
	if err != nil {
		return result, fmt.Errorf("load processes at phase %d: %w", rule.from, err)
	}

	for i := range processes {
		p := &processes[i]
		if p.IsLock {
			result.skipped++
			continue
		}
		idx, err := s.evaluate(ctx, tx, rule, p)
		if err != nil {
			s.logger.Warn("guard evaluation failed, process skipped",
				zap.Int("from", rule.from),
				zap.Uint("process_id", p.ID),
				zap.Error(err),
			)
			result.skipped++
			continue
		}
		if idx < 0 {
			result.skipped++
			continue
		}
		result.moved[idx] = append(result.moved[idx], p.ID)
	}

	for i, ids := range result.moved {
		if len(ids) == 0 {
			continue
		}
		t := rule.targets[i]
		if t.openRevision {
			if err := tx.OpenRevision(ctx, ids); err != nil {
				return result, fmt.Errorf("open revision: %w", err)
			}
		}
		var stage *model.Stage
		if t.stage != "" {
			st := t.stage
			stage = &st
		}
		if err := tx.BulkUpdatePhase(ctx, ids, rule.from, t.to, stage); err != nil {
			return result, err
		}
		idsJSON, err := json.Marshal(ids)
		if err != nil {
			return result, fmt.Errorf("encode process ids: %w", err)
		}
		to := t.to
		if err := tx.RecordTransition(ctx, &model.PhaseTransitionLog{
			FromPhaseID: rule.from,
			ToPhaseID:   &to,
			Trigger:     trigger,
			Advanced:    len(ids),
			Skipped:     result.skipped,
			Status:      model.TransitionSuccess,
			ProcessIDs:  datatypes.JSON(idsJSON),
		}); err != nil {
			return result, fmt.Errorf("record transition: %w", err)
		}
	}

	if result.advanced() == 0 {
		if err := tx.RecordTransition(ctx, &model.PhaseTransitionLog{
			FromPhaseID: rule.from,
			Trigger:     trigger,
			Skipped:     result.skipped,
			Status:      model.TransitionNoop,
		}); err != nil {
			return result, fmt.Errorf("record transition: %w", err)
		}
	}
	return result, nil
}

// evaluate returns the index of the target p moves to, or -1 when p stays.
func (s *transitionService) evaluate(ctx context.Context, tx repository.CaseStore, rule transitionRule, p *model.Process) (int, error) {
	if rule.guard != nil {
		ok, err := rule.guard(ctx, tx, p)
		if err != nil || !ok {
			return -1, err
		}
	}
	for i, t := range rule.targets {
		if t.when == nil {
			return i, nil
		}
		ok, err := t.when(p)
		if err != nil {
			return -1, err
		}
		if ok {
			return i, nil
		}
	}
	return -1, nil
}

// maxFailureMessage matches phase_transition_logs.error varchar(1000).
const maxFailureMessage = 1000

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// recordFailure writes the failed audit row outside the rolled back
// transaction.
func (s *transitionService) recordFailure(ctx context.Context, from int, trigger string, cause error) {
	msg := truncateRunes(cause.Error(), maxFailureMessage)
	entry := &model.PhaseTransitionLog{
		FromPhaseID: from,
		Trigger:     trigger,
		Status:      model.TransitionFailed,
		Error:       msg,
	}
	if err := s.store.RecordTransition(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("record failed transition", zap.Int("from", from), zap.Error(err))
	}
}

func (s *transitionService) ApplyPhaseStart(ctx context.Context, phase model.Phase) (int, error) {
	var froms []int
	for from, rule := range s.rules {
		if rule.trigger == phase.ID {
			froms = append(froms, from)
		}
	}
	sort.Ints(froms)

	if len(froms) == 0 {
		s.logger.Info("phase started, nothing to advance",
			zap.Int("phase", phase.ID), zap.String("title", phase.Title))
		return 0, nil
	}

	total := 0
	var errs []error
	for _, from := range froms {
		n, err := s.ApplyPhase(ctx, from, model.TriggerScheduler)
		if err != nil {
			errs = append(errs, fmt.Errorf("phase %d (%s) from %d: %w", phase.ID, phase.Title, from, err))
			continue
		}
		total += n
	}
	s.logger.Info("phase started",
		zap.Int("phase", phase.ID),
		zap.String("title", phase.Title),
		zap.Int("advanced", total),
	)
	return total, errors.Join(errs...)
}
