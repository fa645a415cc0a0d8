package monitoring

import (
	"fmt"
	"time"
)

// Contact is the call contact snapshot for a site.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CallObligation is a single due check-in call, recomputed on every read
// and never persisted. Identity is (SiteID, ScheduledHour); everything
// else is presentation data. IntervalMinutes is a display hint for the
// suggested sub-hour cadence and never contributes to identity.
type CallObligation struct {
	SiteID          string    `json:"site_id"`
	ScheduledHour   time.Time `json:"scheduled_hour"`
	Contact         Contact   `json:"contact"`
	IntervalMinutes int       `json:"interval_minutes"`
}

// Key returns the slot identity for outcome correlation.
func (o CallObligation) Key() SlotKey {
	return NewSlotKey(o.SiteID, o.ScheduledHour)
}

// SlotKey identifies an obligation by site and scheduled hour. The same
// key correlates generated slots with persisted outcomes across
// recomputations.
type SlotKey string

// NewSlotKey builds a SlotKey for a site and hour.
func NewSlotKey(siteID string, hour time.Time) SlotKey {
	return SlotKey(fmt.Sprintf("%s:%s", siteID, hour.UTC().Format("2006010215")))
}

// String returns the raw key string.
func (k SlotKey) String() string { return string(k) }

// TruncateToHour zeroes minutes and below, keeping the location.
func TruncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// HourAligned reports whether t sits exactly on an hour boundary.
func HourAligned(t time.Time) bool {
	return t.Equal(TruncateToHour(t))
}

// OperationalDayStart returns the start of the operational day containing
// t: local noon, so overnight shifts group with the night they belong to
// instead of splitting at midnight.
func OperationalDayStart(t time.Time, zone *time.Location) time.Time {
	if zone == nil {
		zone = time.UTC
	}
	local := t.In(zone)
	noon := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, zone)
	if local.Before(noon) {
		noon = noon.AddDate(0, 0, -1)
	}
	return noon
}
