package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/dto"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/repository"
)

// ErrDepartmentNotFound no department with that id.
var ErrDepartmentNotFound = errors.New("department not found")

// DepartmentService department settings that steer the transition table.
type DepartmentService interface {
	List(ctx context.Context) ([]dto.DepartmentResponse, error)
	// SetModificationFlag decides whether the department's students take the
	// revision round after the main review.
	SetModificationFlag(ctx context.Context, id uint, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error)
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService creates a DepartmentService.
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

func (s *departmentService) List(ctx context.Context) ([]dto.DepartmentResponse, error) {
	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		s.logger.Error("list departments", zap.Error(err))
		return nil, err
	}
	result := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		result = append(result, toDepartmentResponse(&depts[i]))
	}
	return result, nil
}

func (s *departmentService) SetModificationFlag(ctx context.Context, id uint, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error) {
	if err := s.repo.Department.SetModificationFlag(ctx, id, *req.ModificationFlag, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("set modification flag", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}

	s.logger.Info("department modification flag changed",
		zap.Uint("id", id),
		zap.Bool("modification_flag", dept.ModificationFlag),
		zap.String("by", callerID),
	)
	resp := toDepartmentResponse(dept)
	return &resp, nil
}

func toDepartmentResponse(d *model.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:               d.ID,
		Name:             d.Name,
		ModificationFlag: d.ModificationFlag,
		UpdatedAt:        dto.FormatTime(d.UpdatedAt),
	}
}
