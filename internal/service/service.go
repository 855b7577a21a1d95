package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
)

// Service aggregates every service.
type Service struct {
	Transition TransitionService
	Phase      PhaseService
	Process    ProcessService
	Review     ReviewService
	Department DepartmentService
	Export     ExportService
}

// NewService creates the aggregate. The transition engine is built first
// because the phase scheduler needs it before the services exist; scheduler
// may be nil.
func NewService(
	repo *repository.Repository,
	engine TransitionService,
	scheduler PhaseScheduler,
	loc *time.Location,
	logger *zap.Logger,
) *Service {
	return &Service{
		Transition: engine,
		Phase:      NewPhaseService(repo, engine, scheduler, loc, logger.Named("phase")),
		Process:    NewProcessService(repo, logger.Named("process")),
		Review:     NewReviewService(repo, logger.Named("review")),
		Department: NewDepartmentService(repo, logger.Named("department")),
		Export:     NewExportService(repo, logger.Named("export")),
	}
}
