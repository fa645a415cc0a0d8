package monitoring

import (
	"errors"
	"fmt"
	"time"
)

const (
	ModeCalls  = "calls"
	ModeRounds = "rounds"
	ModeBoth   = "both"
)

// LocalTime is a civil wall-clock time of day without a date.
type LocalTime struct {
	Hour   int
	Minute int
}

// ParseLocalTime parses "15:04" into a LocalTime.
func ParseLocalTime(value string) (LocalTime, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return LocalTime{}, fmt.Errorf("monitoring: parse local time %q: %w", value, err)
	}
	return LocalTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String renders the time back as "15:04".
func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MinuteOfDay returns minutes since midnight.
func (t LocalTime) MinuteOfDay() int {
	return t.Hour*60 + t.Minute
}

// MonitoringConfig holds per-site call monitoring settings.
// WindowEnd before WindowStart means the window wraps past midnight.
type MonitoringConfig struct {
	SiteID          string
	Enabled         bool
	IntervalMinutes int
	WindowStart     LocalTime
	WindowEnd       LocalTime
	Mode            string
	MessageTemplate string
	UpdatedAt       time.Time
}

// Validate checks config invariants.
func (c MonitoringConfig) Validate() error {
	if c.SiteID == "" {
		return errors.New("monitoring config: empty site id")
	}
	if c.IntervalMinutes <= 0 {
		return errors.New("monitoring config: interval must be positive")
	}
	if !ValidMode(c.Mode) {
		return errors.New("monitoring config: invalid mode")
	}
	return nil
}

// Degenerate reports a zero-width call window. Such configs produce no
// obligations and are treated as misconfiguration, not an error.
func (c MonitoringConfig) Degenerate() bool {
	return c.WindowStart.MinuteOfDay() == c.WindowEnd.MinuteOfDay()
}

// Wraps reports whether the call window crosses midnight.
func (c MonitoringConfig) Wraps() bool {
	return c.WindowEnd.MinuteOfDay() < c.WindowStart.MinuteOfDay()
}

// ValidMode returns true when mode is supported.
func ValidMode(value string) bool {
	switch value {
	case ModeCalls, ModeRounds, ModeBoth:
		return true
	default:
		return false
	}
}
