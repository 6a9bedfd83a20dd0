package dto

// ── portfolio module DTOs ──

// GenerateRequest triggers batch generation for a cycle.
type GenerateRequest struct {
	CycleID string `json:"cycle_id" binding:"required,uuid"`
}

// GenerateFailure reports one assignment whose tree could not be created.
type GenerateFailure struct {
	AssignmentID string `json:"assignment_id"`
	Reason       string `json:"reason"`
}

// GenerateResponse summarizes a batch generation run.
type GenerateResponse struct {
	CreatedCount int               `json:"created_count"`
	SkippedCount int               `json:"skipped_count"`
	Failures     []GenerateFailure `json:"failures"`
}

// NodeStats is the display-only per-node counter block.
// It counts files attached to that exact node, not its subtree; the
// persisted root percentage is computed separately over the whole subtree.
type NodeStats struct {
	TotalFiles  int `json:"total_files"`
	Pending     int `json:"pending"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	UnderReview int `json:"under_review"`
	Children    int `json:"children"`
}

// TreeNode is one node of the nested portfolio tree.
type TreeNode struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Path         string     `json:"path"`
	Level        int        `json:"level"`
	State        string     `json:"state"`
	Progress     float64    `json:"progress,omitempty"` // roots only
	InstructorID string     `json:"instructor_id"`
	SubjectID    string     `json:"subject_id"`
	GroupLabel   string     `json:"group_label"`
	Stats        NodeStats  `json:"stats"`
	Children     []TreeNode `json:"children"`
}

// ProgressResponse returns a freshly recomputed root percentage.
type ProgressResponse struct {
	RootID   string  `json:"root_id"`
	Progress float64 `json:"progress"`
}
