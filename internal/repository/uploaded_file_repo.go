package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/model"
)

// StatusCount is one row of a grouped status count.
type StatusCount struct {
	Status string
	Count  int64
}

// UploadedFileRepository is the uploaded-files data-access interface.
type UploadedFileRepository interface {
	Create(ctx context.Context, file *model.UploadedFile) error
	GetByID(ctx context.Context, id string) (*model.UploadedFile, error)
	ListByNode(ctx context.Context, nodeID string) ([]model.UploadedFile, error)
	// CountByStatus groups file counts by review status over the given nodes.
	CountByStatus(ctx context.Context, nodeIDs []string) ([]StatusCount, error)
	// CountByNodeAndStatus groups counts by (node, status) for tree stats.
	CountByNodeAndStatus(ctx context.Context, nodeIDs []string) (map[string]map[string]int64, error)
	UpdateReview(ctx context.Context, file *model.UploadedFile) error
}

type uploadedFileRepo struct {
	db *gorm.DB
}

// NewUploadedFileRepo creates an UploadedFileRepository.
func NewUploadedFileRepo(db *gorm.DB) UploadedFileRepository {
	return &uploadedFileRepo{db: db}
}

func (r *uploadedFileRepo) Create(ctx context.Context, file *model.UploadedFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *uploadedFileRepo) GetByID(ctx context.Context, id string) (*model.UploadedFile, error) {
	var file model.UploadedFile
	err := r.db.WithContext(ctx).
		Where("file_id = ?", id).
		First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *uploadedFileRepo) ListByNode(ctx context.Context, nodeID string) ([]model.UploadedFile, error) {
	var files []model.UploadedFile
	err := r.db.WithContext(ctx).
		Where("node_id = ?", nodeID).
		Order("created_at DESC").
		Find(&files).Error
	return files, err
}

func (r *uploadedFileRepo) CountByStatus(ctx context.Context, nodeIDs []string) ([]StatusCount, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	var counts []StatusCount
	err := r.db.WithContext(ctx).
		Model(&model.UploadedFile{}).
		Select("status, COUNT(*) AS count").
		Where("node_id IN ?", nodeIDs).
		Group("status").
		Scan(&counts).Error
	return counts, err
}

func (r *uploadedFileRepo) CountByNodeAndStatus(ctx context.Context, nodeIDs []string) (map[string]map[string]int64, error) {
	if len(nodeIDs) == 0 {
		return map[string]map[string]int64{}, nil
	}
	var rows []struct {
		NodeID string
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.UploadedFile{}).
		Select("node_id, status, COUNT(*) AS count").
		Where("node_id IN ?", nodeIDs).
		Group("node_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]map[string]int64, len(rows))
	for _, row := range rows {
		if result[row.NodeID] == nil {
			result[row.NodeID] = make(map[string]int64)
		}
		result[row.NodeID][row.Status] = row.Count
	}
	return result, nil
}

func (r *uploadedFileRepo) UpdateReview(ctx context.Context, file *model.UploadedFile) error {
	var reviewedAt interface{}
	if file.ReviewedAt != nil {
		reviewedAt = *file.ReviewedAt
	}
	return r.db.WithContext(ctx).
		Model(&model.UploadedFile{}).
		Where("file_id = ?", file.FileID).
		Updates(map[string]interface{}{
			"status":      file.Status,
			"reviewer_id": file.ReviewerID,
			"reviewed_at": reviewedAt,
			"comment":     file.Comment,
			"updated_at":  time.Now(),
		}).Error
}
