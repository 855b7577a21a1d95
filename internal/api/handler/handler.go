package handler

import "github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/service"

// Handler aggregates every HTTP handler.
type Handler struct {
	Phase      *PhaseHandler
	Process    *ProcessHandler
	Review     *ReviewHandler
	Department *DepartmentHandler
	Export     *ExportHandler
}

// NewHandler creates the Handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Phase:      NewPhaseHandler(svc.Phase, svc.Process),
		Process:    NewProcessHandler(svc.Process),
		Review:     NewReviewHandler(svc.Review),
		Department: NewDepartmentHandler(svc.Department),
		Export:     NewExportHandler(svc.Export),
	}
}
