package dto

// ── academic cycle DTOs ──

// CreateCycleRequest creates a cycle in the preparing state.
type CreateCycleRequest struct {
	Name           string `json:"name"            binding:"required,min=2,max=100"`
	AcademicPeriod string `json:"academic_period" binding:"required,min=2,max=50"` // "2026-I"
	StartDate      string `json:"start_date"      binding:"required"`              // "2026-03-01"
	EndDate        string `json:"end_date"        binding:"required"`              // "2026-07-31"
}

// UpdateCycleRequest partially updates cycle metadata (never the state).
type UpdateCycleRequest struct {
	Name           *string `json:"name"            binding:"omitempty,min=2,max=100"`
	AcademicPeriod *string `json:"academic_period" binding:"omitempty,min=2,max=50"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
}

// TransitionCycleRequest moves a cycle along the lifecycle graph.
type TransitionCycleRequest struct {
	TargetState string `json:"target_state" binding:"required,oneof=preparing initializing active verifying closing archived"`
}

// CycleResponse is the cycle view returned by every endpoint.
type CycleResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AcademicPeriod string `json:"academic_period"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	State          string `json:"state"`
	Version        int    `json:"version"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// GateResponse reports a module gate's current state.
type GateResponse struct {
	CycleID    string `json:"cycle_id"`
	Module     string `json:"module"`
	Enabled    bool   `json:"enabled"`
	Reason     string `json:"reason"`
	EnabledAt  string `json:"enabled_at,omitempty"`
	DisabledAt string `json:"disabled_at,omitempty"`
}

// OverrideGateRequest is the administrative gate override.
type OverrideGateRequest struct {
	Module  string `json:"module"  binding:"required,oneof=data_intake document_management verification"`
	Enabled *bool  `json:"enabled" binding:"required"`
	Note    string `json:"note"    binding:"omitempty,max=255"`
}
