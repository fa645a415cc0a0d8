package events

import "time"

// OutcomeRecorded is published after an operator records a call outcome.
type OutcomeRecorded struct {
	OutcomeID     string    `json:"outcome_id"`
	TenantID      string    `json:"tenant_id"`
	SiteID        string    `json:"site_id"`
	ScheduledHour time.Time `json:"scheduled_hour"`
	Status        string    `json:"status"`
	RecordedBy    string    `json:"recorded_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// AgendaMaterialized is published after pending agenda rows are written
// for a site and date. Created counts only newly inserted rows.
type AgendaMaterialized struct {
	TenantID   string    `json:"tenant_id"`
	SiteID     string    `json:"site_id"`
	Date       time.Time `json:"date"`
	Created    int       `json:"created"`
	OccurredAt time.Time `json:"occurred_at"`
}
