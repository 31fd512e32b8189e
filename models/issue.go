package models

import "time"

// IssueStatus is the lifecycle state of a safety report.
type IssueStatus string

const (
	StatusReported     IssueStatus = "reported"
	StatusUnderProcess IssueStatus = "under_process"
	StatusResolved     IssueStatus = "resolved"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case StatusReported, StatusUnderProcess, StatusResolved:
		return true
	}
	return false
}

// Coordinates are only ever present as a pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Issue is an active report. OwnerID is nil for anonymous submissions.
type Issue struct {
	IssueID         int64        `json:"issue_id"`
	OwnerID         *int64       `json:"user_id"`
	IssueName       string       `json:"issue_name"`
	IssueSite       string       `json:"issue_site"`
	Location        string       `json:"location"`
	Coordinates     *Coordinates `json:"coordinates"`
	OccurredAt      time.Time    `json:"date_time"`
	Timezone        string       `json:"timezone"`
	Details         string       `json:"issue_details"`
	ImagePath       *string      `json:"image_path"`
	Status          IssueStatus  `json:"status"`
	StatusUpdatedAt time.Time    `json:"status_updated_at"`
}

// AdminIssue is an Issue joined with whatever is known about its reporter.
type AdminIssue struct {
	Issue
	ReporterName        *string `json:"reporter_name"`
	ReporterDesignation *string `json:"reporter_designation"`
}

// ResolvedIssue is an archived report. It keeps its original IssueID.
type ResolvedIssue struct {
	Issue
	Response string `json:"response"`
}

// NewIssue is a validated submission that has not been stored yet.
type NewIssue struct {
	OwnerID     *int64
	IssueName   string
	IssueSite   string
	Location    string
	Coordinates *Coordinates
	OccurredAt  time.Time
	Timezone    string
	Details     string
	ImagePath   *string
}

// ResolveRequest is the admin's closing response.
type ResolveRequest struct {
	Response string `json:"response" form:"response"`
}
