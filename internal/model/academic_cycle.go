package model

import "time"

// Cycle lifecycle states.
const (
	CycleStatePreparing    = "preparing"
	CycleStateInitializing = "initializing"
	CycleStateActive       = "active"
	CycleStateVerifying    = "verifying"
	CycleStateClosing      = "closing"
	CycleStateArchived     = "archived"
)

// AcademicCycle maps to the academic_cycles table.
// State is mutated only through the lifecycle transition; rows are never
// hard-deleted once they own portfolios.
type AcademicCycle struct {
	CycleID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"cycle_id"`
	Name           string    `gorm:"type:varchar(100);not null"                     json:"name"`
	AcademicPeriod string    `gorm:"type:varchar(50);not null"                      json:"academic_period"`
	StartDate      time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate        time.Time `gorm:"type:date;not null"                             json:"end_date"`
	State          string    `gorm:"type:varchar(20);not null;default:'preparing'"  json:"state"`
	VersionedModel
}

// TableName sets the table name.
func (AcademicCycle) TableName() string { return "academic_cycles" }
