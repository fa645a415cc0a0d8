package monitoring

import (
	"context"
	"errors"
	"time"
)

const (
	StatusPending    = "pending"
	StatusSuccessful = "successful"
	StatusNoAnswer   = "no_answer"
	StatusBusy       = "busy"
	StatusIncident   = "incident"
)

// CallOutcome is the persisted, operator-recorded result of a call
// obligation. At most one row exists per (tenant, site, scheduled hour);
// an obligation with no row is an implicit pending outcome.
type CallOutcome struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	SiteID        string    `json:"site_id"`
	ScheduledHour time.Time `json:"scheduled_hour"`
	Status        string    `json:"status"`
	ContactName   string    `json:"contact_name"`
	ContactPhone  string    `json:"contact_phone"`
	Notes         string    `json:"notes,omitempty"`
	RecordedBy    string    `json:"recorded_by,omitempty"`
	RecordedAt    time.Time `json:"recorded_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks outcome invariants.
func (o CallOutcome) Validate() error {
	if o.TenantID == "" {
		return errors.New("call outcome: empty tenant id")
	}
	if o.SiteID == "" {
		return errors.New("call outcome: empty site id")
	}
	if o.ScheduledHour.IsZero() {
		return errors.New("call outcome: empty scheduled hour")
	}
	if !HourAligned(o.ScheduledHour) {
		return ErrHourNotAligned
	}
	if !ValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// Key returns the slot identity this outcome is correlated under.
func (o CallOutcome) Key() SlotKey {
	return NewSlotKey(o.SiteID, o.ScheduledHour)
}

// Pending reports whether the outcome still awaits a recorded result.
func (o *CallOutcome) Pending() bool {
	return o == nil || o.Status == "" || o.Status == StatusPending
}

// ValidStatus returns true for any known outcome status.
func ValidStatus(value string) bool {
	switch value {
	case StatusPending, StatusSuccessful, StatusNoAnswer, StatusBusy, StatusIncident:
		return true
	default:
		return false
	}
}

// RecordableStatus returns true for statuses an operator may write.
// Pending is the absence of a record and is never written explicitly.
func RecordableStatus(value string) bool {
	return ValidStatus(value) && value != StatusPending
}

// OutcomeRepository manages call outcome persistence. Upsert is keyed by
// (tenant, site, scheduled hour) and must race safely to a single row.
type OutcomeRepository interface {
	GetByKey(ctx context.Context, tenantID, siteID string, scheduledHour time.Time) (*CallOutcome, error)
	ListByPeriod(ctx context.Context, tenantID string, startInclusive, endExclusive time.Time) ([]CallOutcome, error)
	Upsert(ctx context.Context, outcome *CallOutcome) error
	MaterializePending(ctx context.Context, outcomes []CallOutcome) (int, error)
}
