package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/model"
)

// StructureSectionRepository is the structure-template data-access interface.
type StructureSectionRepository interface {
	ListActive(ctx context.Context) ([]model.StructureSection, error)
	Count(ctx context.Context) (int64, error)
	CreateBatch(ctx context.Context, sections []model.StructureSection) error
}

type structureSectionRepo struct {
	db *gorm.DB
}

// NewStructureSectionRepo creates a StructureSectionRepository.
func NewStructureSectionRepo(db *gorm.DB) StructureSectionRepository {
	return &structureSectionRepo{db: db}
}

func (r *structureSectionRepo) ListActive(ctx context.Context) ([]model.StructureSection, error) {
	var sections []model.StructureSection
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("level, sort_order").
		Find(&sections).Error
	return sections, err
}

func (r *structureSectionRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.StructureSection{}).
		Count(&count).Error
	return count, err
}

func (r *structureSectionRepo) CreateBatch(ctx context.Context, sections []model.StructureSection) error {
	return r.db.WithContext(ctx).Create(&sections).Error
}
