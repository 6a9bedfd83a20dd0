package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/model"
)

// PortfolioNodeRepository is the portfolio-nodes data-access interface.
type PortfolioNodeRepository interface {
	Create(ctx context.Context, node *model.PortfolioNode) error
	GetByID(ctx context.Context, id string) (*model.PortfolioNode, error)
	GetRoot(ctx context.Context, rootID string) (*model.PortfolioNode, error)
	// GetRootByIdentity resolves a root by the canonical composite key.
	GetRootByIdentity(ctx context.Context, instructorID, subjectID, cycleID, groupLabel string) (*model.PortfolioNode, error)
	ListRoots(ctx context.Context) ([]model.PortfolioNode, error)
	ListRootsByInstructors(ctx context.Context, instructorIDs []string) ([]model.PortfolioNode, error)
	ListChildren(ctx context.Context, parentIDs []string) ([]model.PortfolioNode, error)
	UpdateProgress(ctx context.Context, rootID string, progress float64) error
	SetState(ctx context.Context, nodeID, state, updatedBy string) error
}

type portfolioNodeRepo struct {
	db *gorm.DB
}

// NewPortfolioNodeRepo creates a PortfolioNodeRepository.
func NewPortfolioNodeRepo(db *gorm.DB) PortfolioNodeRepository {
	return &portfolioNodeRepo{db: db}
}

func (r *portfolioNodeRepo) Create(ctx context.Context, node *model.PortfolioNode) error {
	return r.db.WithContext(ctx).Create(node).Error
}

func (r *portfolioNodeRepo) GetByID(ctx context.Context, id string) (*model.PortfolioNode, error) {
	var node model.PortfolioNode
	err := r.db.WithContext(ctx).
		Where("node_id = ?", id).
		First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *portfolioNodeRepo) GetRoot(ctx context.Context, rootID string) (*model.PortfolioNode, error) {
	var node model.PortfolioNode
	err := r.db.WithContext(ctx).
		Where("node_id = ? AND parent_id IS NULL", rootID).
		First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *portfolioNodeRepo) GetRootByIdentity(ctx context.Context, instructorID, subjectID, cycleID, groupLabel string) (*model.PortfolioNode, error) {
	var node model.PortfolioNode
	err := r.db.WithContext(ctx).
		Where("instructor_id = ? AND subject_id = ? AND cycle_id = ? AND group_label = ? AND parent_id IS NULL",
			instructorID, subjectID, cycleID, groupLabel).
		First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *portfolioNodeRepo) ListRoots(ctx context.Context) ([]model.PortfolioNode, error) {
	var nodes []model.PortfolioNode
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("created_at").
		Find(&nodes).Error
	return nodes, err
}

func (r *portfolioNodeRepo) ListRootsByInstructors(ctx context.Context, instructorIDs []string) ([]model.PortfolioNode, error) {
	if len(instructorIDs) == 0 {
		return nil, nil
	}
	var nodes []model.PortfolioNode
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL AND instructor_id IN ?", instructorIDs).
		Order("created_at").
		Find(&nodes).Error
	return nodes, err
}

func (r *portfolioNodeRepo) ListChildren(ctx context.Context, parentIDs []string) ([]model.PortfolioNode, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var nodes []model.PortfolioNode
	err := r.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("level, name").
		Find(&nodes).Error
	return nodes, err
}

func (r *portfolioNodeRepo) UpdateProgress(ctx context.Context, rootID string, progress float64) error {
	return r.db.WithContext(ctx).
		Model(&model.PortfolioNode{}).
		Where("node_id = ? AND parent_id IS NULL", rootID).
		Update("progress", progress).Error
}

func (r *portfolioNodeRepo) SetState(ctx context.Context, nodeID, state, updatedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.PortfolioNode{}).
		Where("node_id = ?", nodeID).
		Updates(map[string]interface{}{
			"state":      state,
			"updated_by": updatedBy,
		}).Error
}
