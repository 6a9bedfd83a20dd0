package model

import "time"

// StructureSection maps to the structure_sections table.
// The ordered section taxonomy used to materialize every new portfolio tree.
// Read-mostly; seeded once when the table is empty.
type StructureSection struct {
	SectionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"section_id"`
	Name      string    `gorm:"type:varchar(200);not null"                     json:"name"`
	Level     int       `gorm:"not null;default:1"                             json:"level"`
	SortOrder int       `gorm:"not null;default:0"                             json:"sort_order"`
	Icon      string    `gorm:"type:varchar(50)"                               json:"icon,omitempty"`
	ParentID  *string   `gorm:"type:uuid"                                      json:"parent_id,omitempty"`
	IsActive  bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName sets the table name.
func (StructureSection) TableName() string { return "structure_sections" }
