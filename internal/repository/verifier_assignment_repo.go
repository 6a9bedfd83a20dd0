package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/model"
)

// VerifierAssignmentRepository is the verifier-assignments data-access interface.
type VerifierAssignmentRepository interface {
	Create(ctx context.Context, assignment *model.VerifierAssignment) error
	ListActiveByVerifier(ctx context.Context, verifierID, cycleID string) ([]model.VerifierAssignment, error)
	// ExistsActive reports whether the verifier covers the instructor in
	// the given cycle.
	ExistsActive(ctx context.Context, verifierID, instructorID, cycleID string) (bool, error)
	SetActive(ctx context.Context, id string, active bool, updatedBy string) error
}

type verifierAssignmentRepo struct {
	db *gorm.DB
}

// NewVerifierAssignmentRepo creates a VerifierAssignmentRepository.
func NewVerifierAssignmentRepo(db *gorm.DB) VerifierAssignmentRepository {
	return &verifierAssignmentRepo{db: db}
}

func (r *verifierAssignmentRepo) Create(ctx context.Context, assignment *model.VerifierAssignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *verifierAssignmentRepo) ListActiveByVerifier(ctx context.Context, verifierID, cycleID string) ([]model.VerifierAssignment, error) {
	var assignments []model.VerifierAssignment
	q := r.db.WithContext(ctx).
		Where("verifier_id = ? AND is_active = ?", verifierID, true)
	if cycleID != "" {
		q = q.Where("cycle_id = ?", cycleID)
	}
	err := q.Find(&assignments).Error
	return assignments, err
}

func (r *verifierAssignmentRepo) ExistsActive(ctx context.Context, verifierID, instructorID, cycleID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.VerifierAssignment{}).
		Where("verifier_id = ? AND instructor_id = ? AND cycle_id = ? AND is_active = ?",
			verifierID, instructorID, cycleID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *verifierAssignmentRepo) SetActive(ctx context.Context, id string, active bool, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.VerifierAssignment{}).
		Where("verifier_assignment_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_by": updatedBy,
		}).Error
}
