// Package scheduler arms one timer per phase that runs the transition engine
// when the phase starts.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/metrics"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
)

// ── scheduling errors ──

var (
	ErrInvalidStart     = errors.New("phase has no start time")
	ErrDuplicateTitle   = errors.New("another scheduled phase has the same title")
	ErrStartPassed      = errors.New("phase start already passed")
	ErrAlreadyScheduled = errors.New("phase already has a pending timer")
	ErrStopped          = errors.New("scheduler stopped")
)

// Engine runs the transitions fired by a phase start.
type Engine interface {
	ApplyPhaseStart(ctx context.Context, phase model.Phase) (int, error)
}

// PhaseSource lists the phase calendar.
type PhaseSource interface {
	ListPhases(ctx context.Context) ([]model.Phase, error)
}

// Pending describes a timer that has neither fired nor been cancelled.
type Pending struct {
	PhaseID int
	Title   string
	At      time.Time
}

const (
	stateScheduled int32 = iota
	stateFired
	stateCancelled
)

// phaseTimer one armed start. Scheduled moves to fired or cancelled exactly
// once; mu is held for the whole firing so cancel waits for it.
type phaseTimer struct {
	mu     sync.Mutex
	phase  model.Phase
	at     time.Time
	state  atomic.Int32
	handle Timer
}

func (t *phaseTimer) pending() bool {
	return t.state.Load() == stateScheduled
}

// Scheduler keeps the timers, indexed by phase id.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[int]*phaseTimer
	stopped bool

	engine  Engine
	source  PhaseSource
	clock   Clock
	loc     *time.Location
	metrics *metrics.Metrics
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// New creates a Scheduler. Phase starts are read as wall clock in loc.
func New(engine Engine, source PhaseSource, loc *time.Location, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		timers:  make(map[int]*phaseTimer),
		engine:  engine,
		source:  source,
		clock:   realClock{},
		loc:     loc,
		metrics: m,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules every phase of the calendar. Per-phase errors are logged
// and do not stop the others.
func (s *Scheduler) Start(ctx context.Context) error {
	phases, err := s.source.ListPhases(ctx)
	if err != nil {
		return fmt.Errorf("list phases: %w", err)
	}

	for _, phase := range phases {
		err := s.Schedule(phase)
		switch {
		case err == nil:
		case errors.Is(err, ErrStartPassed):
			s.logger.Warn("phase start already passed, not scheduled; apply it manually if it never fired",
				zap.Int("phase", phase.ID), zap.String("title", phase.Title))
		default:
			s.logger.Error("phase configuration error, not scheduled",
				zap.Int("phase", phase.ID), zap.String("title", phase.Title), zap.Error(err))
		}
	}

	s.logger.Info("scheduler started", zap.Int("pending", len(s.Pending())))
	return nil
}

// Schedule arms the start timer of phase.
func (s *Scheduler) Schedule(phase model.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(phase)
}

// Reschedule cancels the current timer of phase.ID, waiting for a firing in
// progress, and arms a new one.
func (s *Scheduler) Reschedule(phase model.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[phase.ID]; ok {
		s.cancelTimer(old)
		delete(s.timers, phase.ID)
	}
	return s.scheduleLocked(phase)
}

// Cancel disarms the timer of phaseID. It reports whether a pending timer
// was stopped.
func (s *Scheduler) Cancel(phaseID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.timers[phaseID]
	if !ok {
		return false
	}
	delete(s.timers, phaseID)
	return s.cancelTimer(t)
}

// Stop cancels every timer and waits for firings in progress. The
// scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	for id, t := range s.timers {
		s.cancelTimer(t)
		delete(s.timers, id)
	}
	s.cancel()
	s.logger.Info("scheduler stopped")
}

// Pending lists armed timers ordered by phase id.
func (s *Scheduler) Pending() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pending, 0, len(s.timers))
	for _, t := range s.timers {
		if t.pending() {
			out = append(out, Pending{PhaseID: t.phase.ID, Title: t.phase.Title, At: t.at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhaseID < out[j].PhaseID })
	return out
}

func (s *Scheduler) scheduleLocked(phase model.Phase) error {
	if s.stopped {
		return ErrStopped
	}
	if phase.Start.IsZero() {
		return fmt.Errorf("phase %d: %w", phase.ID, ErrInvalidStart)
	}
	if t, ok := s.timers[phase.ID]; ok && t.pending() {
		return fmt.Errorf("phase %d: %w", phase.ID, ErrAlreadyScheduled)
	}
	for id, t := range s.timers {
		if id != phase.ID && t.pending() && t.phase.Title == phase.Title {
			return fmt.Errorf("phase %d %q clashes with phase %d: %w", phase.ID, phase.Title, id, ErrDuplicateTitle)
		}
	}

	at := phase.StartAt(s.loc)
	delay := at.Sub(s.clock.Now())
	if delay <= 0 {
		return fmt.Errorf("phase %d at %s: %w", phase.ID, at.Format(time.RFC3339), ErrStartPassed)
	}

	t := &phaseTimer{phase: phase, at: at}
	t.mu.Lock()
	t.handle = s.clock.AfterFunc(delay, func() { s.fire(t) })
	t.mu.Unlock()

	s.timers[phase.ID] = t
	s.metrics.TimerScheduled()
	s.logger.Info("phase scheduled",
		zap.Int("phase", phase.ID),
		zap.String("title", phase.Title),
		zap.Time("at", at),
		zap.Duration("in", delay),
	)
	return nil
}

// cancelTimer blocks while t is firing. It reports whether t was still
// pending.
func (s *Scheduler) cancelTimer(t *phaseTimer) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.CompareAndSwap(stateScheduled, stateCancelled) {
		return false
	}
	if t.handle != nil {
		t.handle.Stop()
	}
	s.metrics.TimerDone()
	s.logger.Info("phase timer cancelled", zap.Int("phase", t.phase.ID), zap.String("title", t.phase.Title))
	return true
}

func (s *Scheduler) fire(t *phaseTimer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.CompareAndSwap(stateScheduled, stateFired) {
		return
	}
	s.metrics.TimerDone()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("phase firing panicked",
				zap.Int("phase", t.phase.ID), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	s.logger.Info("phase start reached",
		zap.Int("phase", t.phase.ID),
		zap.String("title", t.phase.Title),
		zap.Time("at", t.at),
	)
	ctx, span := otel.Tracer("thesis-phase/scheduler").Start(s.ctx, "scheduler.fire")
	defer span.End()
	span.SetAttributes(
		attribute.Int("phase.id", t.phase.ID),
		attribute.String("phase.title", t.phase.Title),
	)

	n, err := s.engine.ApplyPhaseStart(ctx, t.phase)
	span.SetAttributes(attribute.Int("transition.advanced", n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "phase start transitions failed")
		s.logger.Error("phase start transitions failed",
			zap.Int("phase", t.phase.ID),
			zap.String("title", t.phase.Title),
			zap.Int("advanced", n),
			zap.Error(err),
		)
	}
}
