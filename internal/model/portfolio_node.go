package model

// Portfolio node states.
const (
	NodeStateActive   = "active"
	NodeStateArchived = "archived"
)

// PortfolioNode maps to the portfolio_nodes table.
// A root (parent_id NULL, level 0) identifies one portfolio per
// (instructor, subject, cycle, group); descendants form the folder tree via
// id-based parent pointers. Path is a breadcrumb derived from ancestor names,
// maintained at creation time only (nodes are never moved). Progress is
// populated on roots only.
type PortfolioNode struct {
	NodeID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"node_id"`
	InstructorID string  `gorm:"type:uuid;not null"                             json:"instructor_id"`
	SubjectID    string  `gorm:"type:varchar(20);not null"                      json:"subject_id"`
	AssignmentID string  `gorm:"type:uuid;not null"                             json:"assignment_id"`
	CycleID      string  `gorm:"type:uuid;not null"                             json:"cycle_id"`
	GroupLabel   string  `gorm:"type:varchar(10);not null"                      json:"group_label"`
	ParentID     *string `gorm:"type:uuid"                                      json:"parent_id,omitempty"`
	Level        int     `gorm:"not null;default:0"                             json:"level"`
	Path         string  `gorm:"type:text;not null"                             json:"path"`
	Name         string  `gorm:"type:varchar(200);not null"                     json:"name"`
	State        string  `gorm:"type:varchar(20);not null;default:'active'"     json:"state"`
	Progress     float64 `gorm:"not null;default:0"                             json:"progress"`
	BaseModel
}

// TableName sets the table name.
func (PortfolioNode) TableName() string { return "portfolio_nodes" }

// IsRoot reports whether the node is a portfolio root.
func (n *PortfolioNode) IsRoot() bool { return n.ParentID == nil }
