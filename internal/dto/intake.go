package dto

// ── bulk intake DTOs ──

// IntakeRowError reports one rejected spreadsheet row.
type IntakeRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// IntakeResponse summarizes a bulk intake run.
type IntakeResponse struct {
	CreatedCount int              `json:"created_count"`
	SkippedCount int              `json:"skipped_count"`
	Errors       []IntakeRowError `json:"errors"`
}

// AssignmentResponse is the teaching-assignment view.
type AssignmentResponse struct {
	ID           string `json:"id"`
	InstructorID string `json:"instructor_id"`
	SubjectID    string `json:"subject_id"`
	SubjectName  string `json:"subject_name"`
	CycleID      string `json:"cycle_id"`
	GroupLabel   string `json:"group_label"`
	IsActive     bool   `json:"is_active"`
}

// SectionResponse is the structure-template section view.
type SectionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	SortOrder int    `json:"sort_order"`
	Icon      string `json:"icon,omitempty"`
	ParentID  string `json:"parent_id,omitempty"`
}
