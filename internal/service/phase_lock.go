package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrPhaseBusy another instance holds the lock of this phase.
var ErrPhaseBusy = errors.New("phase is being applied by another instance")

// PhaseLocker serializes applies of one from-phase.
type PhaseLocker interface {
	// Lock blocks until the phase is free or ctx is done.
	Lock(ctx context.Context, phaseID int) (unlock func(), err error)
}

// ── in-process lock ──

type localLocker struct {
	mu    sync.Mutex
	slots map[int]chan struct{}
}

// NewLocalLocker returns a PhaseLocker for a single instance.
func NewLocalLocker() PhaseLocker {
	return &localLocker{slots: make(map[int]chan struct{})}
}

func (l *localLocker) slot(phaseID int) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[phaseID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[phaseID] = ch
	}
	return ch
}

func (l *localLocker) Lock(ctx context.Context, phaseID int) (func(), error) {
	ch := l.slot(phaseID)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ── redis lock ──

// DistributedLock is the subset of the redis client used for phase locks.
type DistributedLock interface {
	AcquireLock(ctx context.Context, name string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, name, token string) error
}

type redisLocker struct {
	local  *localLocker
	dist   DistributedLock
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker returns a PhaseLocker shared by every instance using the
// same redis. When redis is unreachable it falls back to the in-process lock.
func NewRedisLocker(dist DistributedLock, ttl time.Duration, logger *zap.Logger) PhaseLocker {
	return &redisLocker{
		local:  &localLocker{slots: make(map[int]chan struct{})},
		dist:   dist,
		ttl:    ttl,
		logger: logger,
	}
}

func (l *redisLocker) Lock(ctx context.Context, phaseID int) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, phaseID)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("phase:%d", phaseID)
	token, ok, err := l.dist.AcquireLock(ctx, name, l.ttl)
	if err != nil {
		l.logger.Warn("redis phase lock unavailable, using local lock only",
			zap.Int("phase", phaseID), zap.Error(err))
		return unlockLocal, nil
	}
	if !ok {
		unlockLocal()
		return nil, fmt.Errorf("phase %d: %w", phaseID, ErrPhaseBusy)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.dist.ReleaseLock(releaseCtx, name, token); err != nil {
			l.logger.Warn("release redis phase lock", zap.Int("phase", phaseID), zap.Error(err))
		}
		unlockLocal()
	}, nil
}
