package monitoring

import (
	"testing"
	"time"
)

func baseConfig() MonitoringConfig {
	return MonitoringConfig{
		SiteID:          "site-1",
		Enabled:         true,
		IntervalMinutes: 60,
		WindowStart:     LocalTime{Hour: 8},
		WindowEnd:       LocalTime{Hour: 17},
		Mode:            ModeCalls,
	}
}

func TestScheduleOnePerHour(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	obligations := Schedule(baseConfig(), Contact{Name: "Post A"}, date, true, time.UTC)
	if len(obligations) != 10 {
		t.Fatalf("expected 10 obligations, got %d", len(obligations))
	}
	seen := make(map[SlotKey]bool)
	for i, obligation := range obligations {
		if seen[obligation.Key()] {
			t.Fatalf("duplicate obligation for %s", obligation.Key())
		}
		seen[obligation.Key()] = true
		want := time.Date(2025, 3, 10, 8+i, 0, 0, 0, time.UTC)
		if !obligation.ScheduledHour.Equal(want) {
			t.Fatalf("obligation %d: got %s want %s", i, obligation.ScheduledHour, want)
		}
		if !HourAligned(obligation.ScheduledHour) {
			t.Fatalf("obligation %d not hour aligned", i)
		}
	}
}

func TestScheduleIntervalDoesNotCreateIdentities(t *testing.T) {
	cfg := baseConfig()
	cfg.IntervalMinutes = 15
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	obligations := Schedule(cfg, Contact{}, date, true, time.UTC)
	if len(obligations) != 10 {
		t.Fatalf("sub-hour interval must not add obligations: got %d", len(obligations))
	}
	if obligations[0].IntervalMinutes != 15 {
		t.Fatalf("interval hint lost: got %d", obligations[0].IntervalMinutes)
	}
}

func TestScheduleMidnightWrap(t *testing.T) {
	cfg := baseConfig()
	cfg.WindowStart = LocalTime{Hour: 22}
	cfg.WindowEnd = LocalTime{Hour: 6}
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	obligations := Schedule(cfg, Contact{}, date, true, time.UTC)
	if len(obligations) != 9 {
		t.Fatalf("expected 9 obligations (22..06), got %d", len(obligations))
	}
	if first := obligations[0].ScheduledHour; !first.Equal(time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)) {
		t.Fatalf("first obligation at %s", first)
	}
	if last := obligations[8].ScheduledHour; !last.Equal(time.Date(2025, 3, 11, 6, 0, 0, 0, time.UTC)) {
		t.Fatalf("last obligation at %s", last)
	}

	dayStart := OperationalDayStart(date.Add(12*time.Hour), time.UTC)
	for _, obligation := range obligations {
		if got := OperationalDayStart(obligation.ScheduledHour, time.UTC); !got.Equal(dayStart) {
			t.Fatalf("obligation %s attributed to %s, want %s", obligation.ScheduledHour, got, dayStart)
		}
	}
}

func TestScheduleEmptyCases(t *testing.T) {
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	disabled := baseConfig()
	disabled.Enabled = false
	if got := Schedule(disabled, Contact{}, date, true, time.UTC); len(got) != 0 {
		t.Fatalf("disabled config produced %d obligations", len(got))
	}

	if got := Schedule(baseConfig(), Contact{}, date, false, time.UTC); len(got) != 0 {
		t.Fatalf("no active shift produced %d obligations", len(got))
	}

	degenerate := baseConfig()
	degenerate.WindowEnd = degenerate.WindowStart
	if got := Schedule(degenerate, Contact{}, date, true, time.UTC); len(got) != 0 {
		t.Fatalf("degenerate window produced %d obligations", len(got))
	}
}

func TestOperationalDayStart(t *testing.T) {
	zone := time.UTC
	morning := time.Date(2025, 3, 11, 3, 0, 0, 0, zone)
	evening := time.Date(2025, 3, 10, 23, 0, 0, 0, zone)
	want := time.Date(2025, 3, 10, 12, 0, 0, 0, zone)

	if got := OperationalDayStart(morning, zone); !got.Equal(want) {
		t.Fatalf("morning: got %s want %s", got, want)
	}
	if got := OperationalDayStart(evening, zone); !got.Equal(want) {
		t.Fatalf("evening: got %s want %s", got, want)
	}
	noon := time.Date(2025, 3, 11, 12, 0, 0, 0, zone)
	if got := OperationalDayStart(noon, zone); !got.Equal(noon) {
		t.Fatalf("noon starts its own day: got %s", got)
	}
}

func TestParseLocalTime(t *testing.T) {
	parsed, err := ParseLocalTime("22:30")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Hour != 22 || parsed.Minute != 30 {
		t.Fatalf("got %+v", parsed)
	}
	if parsed.String() != "22:30" {
		t.Fatalf("round trip: %s", parsed.String())
	}
	if _, err := ParseLocalTime("24:99"); err == nil {
		t.Fatal("expected error for invalid time")
	}
}
