package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/model"
)

// TeachingAssignmentRepository is the teaching-assignments data-access interface.
type TeachingAssignmentRepository interface {
	Create(ctx context.Context, assignment *model.TeachingAssignment) error
	GetByID(ctx context.Context, id string) (*model.TeachingAssignment, error)
	GetByIdentity(ctx context.Context, instructorID, subjectID, cycleID, groupLabel string) (*model.TeachingAssignment, error)
	ListActiveByCycle(ctx context.Context, cycleID string) ([]model.TeachingAssignment, error)
	ListByInstructor(ctx context.Context, instructorID, cycleID string) ([]model.TeachingAssignment, error)
	SetActive(ctx context.Context, id string, active bool, updatedBy string) error
}

type teachingAssignmentRepo struct {
	db *gorm.DB
}

// NewTeachingAssignmentRepo creates a TeachingAssignmentRepository.
func NewTeachingAssignmentRepo(db *gorm.DB) TeachingAssignmentRepository {
	return &teachingAssignmentRepo{db: db}
}

func (r *teachingAssignmentRepo) Create(ctx context.Context, assignment *model.TeachingAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *teachingAssignmentRepo) GetByID(ctx context.Context, id string) (*model.TeachingAssignment, error) {
	var assignment model.TeachingAssignment
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("assignment_id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *teachingAssignmentRepo) GetByIdentity(ctx context.Context, instructorID, subjectID, cycleID, groupLabel string) (*model.TeachingAssignment, error) {
	var assignment model.TeachingAssignment
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND subject_id = ? AND cycle_id = ? AND group_label = ?",
			instructorID, subjectID, cycleID, groupLabel).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *teachingAssignmentRepo) ListActiveByCycle(ctx context.Context, cycleID string) ([]model.TeachingAssignment, error) {
	var assignments []model.TeachingAssignment
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("cycle_id = ? AND is_active = ?", cycleID, true).
		Order("subject_id, group_label").
		Find(&assignments).Error
	return assignments, err
}

func (r *teachingAssignmentRepo) ListByInstructor(ctx context.Context, instructorID, cycleID string) ([]model.TeachingAssignment, error) {
	var assignments []model.TeachingAssignment
	q := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID)
	if cycleID != "" {
		q = q.Where("cycle_id = ?", cycleID)
	}
	err := q.Order("subject_id, group_label").Find(&assignments).Error
	return assignments, err
}

func (r *teachingAssignmentRepo) SetActive(ctx context.Context, id string, active bool, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.TeachingAssignment{}).
		Where("assignment_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": updatedBy,
		}).Error
}
