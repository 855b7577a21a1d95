package errors

import "errors"

// ErrOptimisticLock a conditional update matched fewer rows than expected:
// another writer changed the record first.
var ErrOptimisticLock = errors.New("record was modified concurrently, reload and retry")

// ErrPhaseRollback a write would move a process to a phase at or before its current one.
var ErrPhaseRollback = errors.New("phase can only move forward")
