package model

import "time"

// Evidence file review states.
const (
	FileStatusPending     = "pending"
	FileStatusApproved    = "approved"
	FileStatusRejected    = "rejected"
	FileStatusUnderReview = "under_review"
)

// UploadedFile maps to the uploaded_files table.
// Created by the upload handler; review fields are mutated exclusively by
// the verification workflow.
type UploadedFile struct {
	FileID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"file_id"`
	NodeID       string     `gorm:"type:uuid;not null;index"                       json:"node_id"`
	UploaderID   string     `gorm:"type:uuid;not null"                             json:"uploader_id"`
	OriginalName string     `gorm:"type:varchar(300);not null"                     json:"original_name"`
	StoredName   string     `gorm:"type:varchar(300);not null"                     json:"stored_name"`
	SizeBytes    int64      `gorm:"not null;default:0"                             json:"size_bytes"`
	MimeType     string     `gorm:"type:varchar(150);not null"                     json:"mime_type"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ReviewerID   *string    `gorm:"type:uuid"                                      json:"reviewer_id,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	Comment      string     `gorm:"type:text"                                      json:"comment,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName sets the table name.
func (UploadedFile) TableName() string { return "uploaded_files" }
