package model

// VerifierAssignment maps to the verifier_assignments table.
// Defines which instructors a verifier may review in a cycle.
type VerifierAssignment struct {
	VerifierAssignmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"verifier_assignment_id"`
	VerifierID           string `gorm:"type:uuid;not null"                             json:"verifier_id"`
	InstructorID         string `gorm:"type:uuid;not null"                             json:"instructor_id"`
	CycleID              string `gorm:"type:uuid;not null"                             json:"cycle_id"`
	IsActive             bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	Verifier   *User `gorm:"foreignKey:VerifierID;references:UserID"   json:"verifier,omitempty"`
	Instructor *User `gorm:"foreignKey:InstructorID;references:UserID" json:"instructor,omitempty"`
}

// TableName sets the table name.
func (VerifierAssignment) TableName() string { return "verifier_assignments" }
