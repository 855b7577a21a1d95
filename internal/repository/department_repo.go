package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SystemConsultantGroup/ICC-grad-dissertion-manage-backend-sub000/internal/model"
)

// DepartmentRepository department access. The modification flag decides the
// 6→7 / 6→9 branch of the transition table.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id uint) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	SetModificationFlag(ctx context.Context, id uint, required bool, updatedBy string) error
}

type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo creates a DepartmentRepository.
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, id uint) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) SetModificationFlag(ctx context.Context, id uint, required bool, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"modification_flag": required,
			"updated_by":        updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
