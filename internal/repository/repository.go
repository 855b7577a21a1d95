package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates every repository.
type Repository struct {
	db *gorm.DB

	Phase         PhaseRepository
	Department    DepartmentRepository
	Process       ProcessRepository
	Review        ReviewRepository
	TransitionLog TransitionLogRepository
	Cases         CaseStore
}

// NewRepository builds the aggregate on one connection pool.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		Phase:         NewPhaseRepo(db),
		Department:    NewDepartmentRepo(db),
		Process:       NewProcessRepo(db),
		Review:        NewReviewRepo(db),
		TransitionLog: NewTransitionLogRepo(db),
		Cases:         NewCaseStore(db),
	}
}

// WithTx returns a Repository bound to the transaction tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction runs fn with repositories bound to one transaction. fn's
// error rolls everything back. A Repository without a connection (test
// doubles) runs fn directly.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
