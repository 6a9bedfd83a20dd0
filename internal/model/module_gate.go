package model

import "time"

// Gated module names.
const (
	ModuleDataIntake         = "data_intake"
	ModuleDocumentManagement = "document_management"
	ModuleVerification       = "verification"
)

// ModuleGate maps to the module_gates table.
// One row per (cycle, module); upserted, never duplicated.
type ModuleGate struct {
	GateID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"gate_id"`
	CycleID    string     `gorm:"type:uuid;not null;uniqueIndex:uq_module_gates_cycle_module" json:"cycle_id"`
	Module     string     `gorm:"type:varchar(50);not null;uniqueIndex:uq_module_gates_cycle_module" json:"module"`
	Enabled    bool       `gorm:"not null;default:false"                                  json:"enabled"`
	EnabledAt  *time.Time `json:"enabled_at,omitempty"`
	DisabledAt *time.Time `json:"disabled_at,omitempty"`
	Note       string     `gorm:"type:varchar(255)"                                       json:"note,omitempty"`
	ActorID    *string    `gorm:"type:uuid"                                               json:"actor_id,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"                      json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"                      json:"updated_at"`
}

// TableName sets the table name.
func (ModuleGate) TableName() string { return "module_gates" }
