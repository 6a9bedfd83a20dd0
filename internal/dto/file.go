package dto

// ── evidence file DTOs ──

// FileResponse is the uploaded-file view.
type FileResponse struct {
	ID           string `json:"id"`
	NodeID       string `json:"node_id"`
	OriginalName string `json:"original_name"`
	SizeBytes    int64  `json:"size_bytes"`
	MimeType     string `json:"mime_type"`
	Status       string `json:"status"`
	ReviewerID   string `json:"reviewer_id,omitempty"`
	ReviewedAt   string `json:"reviewed_at,omitempty"`
	Comment      string `json:"comment,omitempty"`
	CreatedAt    string `json:"created_at"`
}
