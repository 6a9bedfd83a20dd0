package dto

// ── verification module DTOs ──

// ReviewFileRequest transitions one file's review state.
type ReviewFileRequest struct {
	Status  string `json:"status"  binding:"required,oneof=approved rejected under_review"`
	Comment string `json:"comment" binding:"omitempty,max=1000"`
}

// ReviewFileResponse reports the applied transition.
// Stale marks a durable review write whose progress aggregation failed;
// the percentage catches up on the next recompute.
type ReviewFileResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ReviewedAt string `json:"reviewed_at"`
	Stale      bool   `json:"stale,omitempty"`
}

// ReviewBatchItem is one entry of a batch review request.
type ReviewBatchItem struct {
	FileID  string `json:"file_id" binding:"required,uuid"`
	Status  string `json:"status"  binding:"required"`
	Comment string `json:"comment" binding:"omitempty,max=1000"`
}

// ReviewBatchRequest reviews several files in one call.
type ReviewBatchRequest struct {
	Items []ReviewBatchItem `json:"items" binding:"required,min=1,max=200,dive"`
}

// ReviewBatchResult is the per-item outcome; items fail independently.
type ReviewBatchResult struct {
	FileID  string `json:"file_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
