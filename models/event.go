package models

import "time"

type EventType string

const (
	EventSubmitted    EventType = "submitted"
	EventUnderProcess EventType = "under_process"
	EventResolved     EventType = "resolved"
	EventDeleted      EventType = "deleted"
)

// IssueEvent is published after an issue change has been committed.
type IssueEvent struct {
	Type       EventType   `json:"type"`
	IssueID    int64       `json:"issue_id"`
	ActorID    *int64      `json:"actor_id,omitempty"`
	Status     IssueStatus `json:"status,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func (e IssueEvent) RoutingKey() string {
	return "issue." + string(e.Type)
}
