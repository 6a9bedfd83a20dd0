package model

// TeachingAssignment maps to the teaching_assignments table.
// Rows are produced by the bulk intake; the portfolio engine only reads
// them, except for the active toggle.
type TeachingAssignment struct {
	AssignmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	InstructorID string `gorm:"type:uuid;not null"                             json:"instructor_id"`
	SubjectID    string `gorm:"type:varchar(20);not null"                      json:"subject_id"`
	SubjectName  string `gorm:"type:varchar(200);not null"                     json:"subject_name"`
	CycleID      string `gorm:"type:uuid;not null"                             json:"cycle_id"`
	GroupLabel   string `gorm:"type:varchar(10);not null"                      json:"group_label"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	Instructor *User          `gorm:"foreignKey:InstructorID;references:UserID" json:"instructor,omitempty"`
	Cycle      *AcademicCycle `gorm:"foreignKey:CycleID;references:CycleID"     json:"cycle,omitempty"`
}

// TableName sets the table name.
func (TeachingAssignment) TableName() string { return "teaching_assignments" }
