package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/model"
	pkgerrors "github.com/milith0kun/Portafolio-sub000/pkg/errors"
)

// CycleRepository is the academic-cycles data-access interface.
type CycleRepository interface {
	Create(ctx context.Context, cycle *model.AcademicCycle) error
	GetByID(ctx context.Context, id string) (*model.AcademicCycle, error)
	GetActive(ctx context.Context) (*model.AcademicCycle, error)
	List(ctx context.Context) ([]model.AcademicCycle, error)
	Update(ctx context.Context, cycle *model.AcademicCycle) error
	// UpdateState writes the state under an optimistic version check.
	// Returns pkg/errors.ErrOptimisticLock when the row moved underneath.
	UpdateState(ctx context.Context, cycle *model.AcademicCycle, newState string) error
}

type cycleRepo struct {
	db *gorm.DB
}

// NewCycleRepo creates a CycleRepository.
func NewCycleRepo(db *gorm.DB) CycleRepository {
	return &cycleRepo{db: db}
}

func (r *cycleRepo) Create(ctx context.Context, cycle *model.AcademicCycle) error {
	return r.db.WithContext(ctx).Create(cycle).Error
}

func (r *cycleRepo) GetByID(ctx context.Context, id string) (*model.AcademicCycle, error) {
	var cycle model.AcademicCycle
	err := r.db.WithContext(ctx).
		Where("cycle_id = ?", id).
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *cycleRepo) GetActive(ctx context.Context) (*model.AcademicCycle, error) {
	var cycle model.AcademicCycle
	err := r.db.WithContext(ctx).
		Where("state = ?", model.CycleStateActive).
		First(&cycle).Error
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *cycleRepo) List(ctx context.Context) ([]model.AcademicCycle, error) {
	var cycles []model.AcademicCycle
	err := r.db.WithContext(ctx).
		Order("start_date DESC").
		Find(&cycles).Error
	return cycles, err
}

func (r *cycleRepo) Update(ctx context.Context, cycle *model.AcademicCycle) error {
	return r.db.WithContext(ctx).Save(cycle).Error
}

func (r *cycleRepo) UpdateState(ctx context.Context, cycle *model.AcademicCycle, newState string) error {
	oldVersion := cycle.Version
	result := r.db.WithContext(ctx).
		Model(cycle).
		Where("cycle_id = ? AND version = ?", cycle.CycleID, oldVersion).
		Updates(map[string]interface{}{
			"state":      newState,
			"updated_by": cycle.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	cycle.State = newState
	cycle.Version = oldVersion + 1
	return nil
}
