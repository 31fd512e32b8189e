package models

import "time"

// Document is a personal licence or certificate kept by a crew member.
type Document struct {
	DocumentID      int64      `json:"document_id"`
	UserID          int64      `json:"user_id"`
	DocumentName    string     `json:"document_name"`
	IssueDate       time.Time  `json:"issue_date"`
	ExpiryDate      *time.Time `json:"expiry_date"`
	FilePath        *string    `json:"document_file_path"`
	CreatedAt       time.Time  `json:"created_at"`
	Expired         bool       `json:"expired"`
	DaysUntilExpiry *int       `json:"days_until_expiry,omitempty"`
}

type NewDocument struct {
	UserID       int64
	DocumentName string
	IssueDate    time.Time
	ExpiryDate   *time.Time
	FilePath     *string
}
