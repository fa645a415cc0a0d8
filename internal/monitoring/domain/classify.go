package monitoring

import "time"

const (
	ClassCompleted = "completed"
	ClassCurrent   = "current"
	ClassMissed    = "missed"
	ClassUpcoming  = "upcoming"
)

// DefaultUrgentThreshold marks a currently-due obligation as urgent once
// it has sat unattended this long into its hour.
const DefaultUrgentThreshold = 30 * time.Minute

// ClassifiedObligation is an obligation merged with its outcome and
// evaluated against a point in time. Computed fresh per query, never
// persisted.
type ClassifiedObligation struct {
	CallObligation
	Outcome    *CallOutcome `json:"outcome,omitempty"`
	Status     string       `json:"status"`
	IsDue      bool         `json:"is_due"`
	IsUpcoming bool         `json:"is_upcoming"`
	IsOverdue  bool         `json:"is_overdue"`
	IsUrgent   bool         `json:"is_urgent"`
}

// Classify evaluates one obligation against its outcome (nil means
// implicit pending) at the given instant. Pure and deterministic: the
// same inputs always yield the same result, so callers recompute on
// every poll instead of caching.
//
// Exactly one of completed/current/missed/upcoming holds. IsUrgent is an
// overlay on current, never a status of its own.
func Classify(obligation CallObligation, outcome *CallOutcome, now time.Time, urgentThreshold time.Duration) ClassifiedObligation {
	if urgentThreshold <= 0 {
		urgentThreshold = DefaultUrgentThreshold
	}

	classified := ClassifiedObligation{
		CallObligation: obligation,
		Outcome:        outcome,
	}
	if !outcome.Pending() {
		classified.Status = ClassCompleted
		return classified
	}

	slotBucket := TruncateToHour(obligation.ScheduledHour)
	currentBucket := TruncateToHour(now.In(obligation.ScheduledHour.Location()))

	switch {
	case slotBucket.Equal(currentBucket):
		classified.Status = ClassCurrent
		classified.IsDue = true
		classified.IsUrgent = now.Sub(slotBucket) > urgentThreshold
	case slotBucket.Before(currentBucket):
		classified.Status = ClassMissed
		classified.IsOverdue = true
	default:
		classified.Status = ClassUpcoming
		classified.IsUpcoming = true
	}
	return classified
}
