package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/milith0kun/Portafolio-sub000/internal/model"
)

// ModuleGateRepository is the module-gates data-access interface.
type ModuleGateRepository interface {
	Get(ctx context.Context, cycleID, module string) (*model.ModuleGate, error)
	ListByCycle(ctx context.Context, cycleID string) ([]model.ModuleGate, error)
	// Upsert writes the gate keyed by (cycle, module), stamping
	// enabled_at/disabled_at according to the new flag.
	Upsert(ctx context.Context, cycleID, module string, enabled bool, note string, actorID string) error
}

type moduleGateRepo struct {
	db *gorm.DB
}

// NewModuleGateRepo creates a ModuleGateRepository.
func NewModuleGateRepo(db *gorm.DB) ModuleGateRepository {
	return &moduleGateRepo{db: db}
}

func (r *moduleGateRepo) Get(ctx context.Context, cycleID, module string) (*model.ModuleGate, error) {
	var gate model.ModuleGate
	err := r.db.WithContext(ctx).
		Where("cycle_id = ? AND module = ?", cycleID, module).
		First(&gate).Error
	if err != nil {
		return nil, err
	}
	return &gate, nil
}

func (r *moduleGateRepo) ListByCycle(ctx context.Context, cycleID string) ([]model.ModuleGate, error) {
	var gates []model.ModuleGate
	err := r.db.WithContext(ctx).
		Where("cycle_id = ?", cycleID).
		Order("module").
		Find(&gates).Error
	return gates, err
}

func (r *moduleGateRepo) Upsert(ctx context.Context, cycleID, module string, enabled bool, note string, actorID string) error {
	now := time.Now()
	gate := model.ModuleGate{
		CycleID: cycleID,
		Module:  module,
		Enabled: enabled,
		Note:    note,
		ActorID: &actorID,
	}
	if enabled {
		gate.EnabledAt = &now
	} else {
		gate.DisabledAt = &now
	}

	assignments := map[string]interface{}{
		"enabled":    enabled,
		"note":       note,
		"actor_id":   actorID,
		"updated_at": now,
	}
	if enabled {
		assignments["enabled_at"] = now
	} else {
		assignments["disabled_at"] = now
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cycle_id"}, {Name: "module"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&gate).Error
}
