package monitoring

import "time"

// Schedule expands a site's call window into hour-bucketed obligations
// for the given calendar date. Exactly one obligation is emitted per
// spanned hour boundary, regardless of how many shift posts or sub-hour
// intervals exist underneath; when the window wraps midnight the tail
// hours land on the next calendar date but belong to the same
// operational day.
//
// A disabled config, a date with no active monitored shift, or a
// zero-width window all yield an empty schedule.
func Schedule(cfg MonitoringConfig, contact Contact, date time.Time, hasActiveShift bool, zone *time.Location) []CallObligation {
	if !cfg.Enabled || !hasActiveShift {
		return nil
	}
	if cfg.Degenerate() {
		return nil
	}
	if zone == nil {
		zone = time.UTC
	}

	startHour := cfg.WindowStart.Hour
	endHour := cfg.WindowEnd.Hour
	if cfg.Wraps() {
		endHour += 24
	}

	day := date.In(zone)
	obligations := make([]CallObligation, 0, endHour-startHour+1)
	for hour := startHour; hour <= endHour; hour++ {
		// time.Date normalizes hours past 23 into the next calendar date.
		scheduled := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, zone)
		obligations = append(obligations, CallObligation{
			SiteID:          cfg.SiteID,
			ScheduledHour:   scheduled,
			Contact:         contact,
			IntervalMinutes: cfg.IntervalMinutes,
		})
	}
	return obligations
}
