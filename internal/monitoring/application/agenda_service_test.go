package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"guardops/internal/monitoring/infrastructure/memory"

	monitoring "guardops/internal/monitoring/domain"
)

type stubConfigs struct {
	configs map[string]*monitoring.MonitoringConfig
	err     error
}

func (s stubConfigs) GetConfig(_ context.Context, siteID string) (*monitoring.MonitoringConfig, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.configs[siteID], nil
}

type stubShifts struct {
	siteIDs []string
	err     error
}

func (s stubShifts) HasActiveShift(_ context.Context, siteID string, _ time.Time) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, id := range s.siteIDs {
		if id == siteID {
			return true, nil
		}
	}
	return false, nil
}

func (s stubShifts) ActiveSiteIDs(_ context.Context, _ string, _ time.Time) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.siteIDs, nil
}

type stubContacts struct {
	contact monitoring.Contact
}

func (s stubContacts) GetContact(_ context.Context, _ string) (monitoring.Contact, error) {
	return s.contact, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func nightConfig(siteID string) *monitoring.MonitoringConfig {
	return &monitoring.MonitoringConfig{
		SiteID:          siteID,
		Enabled:         true,
		IntervalMinutes: 60,
		WindowStart:     monitoring.LocalTime{Hour: 22},
		WindowEnd:       monitoring.LocalTime{Hour: 6},
		Mode:            monitoring.ModeCalls,
	}
}

func TestClassifiedAgendaMergesOutcomes(t *testing.T) {
	outcomes := memory.NewOutcomeRepository()
	clock := fixedClock{now: time.Date(2025, 3, 10, 23, 35, 0, 0, time.UTC)}
	service, err := NewAgendaService(
		stubConfigs{configs: map[string]*monitoring.MonitoringConfig{"site-1": nightConfig("site-1")}},
		stubShifts{siteIDs: []string{"site-1"}},
		stubContacts{contact: monitoring.Contact{Name: "Night Desk", Phone: "555-0100"}},
		outcomes,
		WithClock(clock),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	recorded := &monitoring.CallOutcome{
		TenantID:      "tenant-1",
		SiteID:        "site-1",
		ScheduledHour: time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC),
		Status:        monitoring.StatusSuccessful,
	}
	if err := outcomes.Upsert(context.Background(), recorded); err != nil {
		t.Fatalf("seed outcome: %v", err)
	}

	dayStart := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	classified, err := service.ClassifiedAgenda(context.Background(), dayStart, "tenant-1")
	if err != nil {
		t.Fatalf("classified agenda: %v", err)
	}
	if len(classified) != 9 {
		t.Fatalf("expected 9 obligations (22..06), got %d", len(classified))
	}

	byHour := make(map[int]monitoring.ClassifiedObligation)
	for _, item := range classified {
		byHour[item.ScheduledHour.Hour()] = item
	}
	if got := byHour[22]; got.Status != monitoring.ClassCompleted {
		t.Fatalf("22:00 should be completed, got %s", got.Status)
	}
	if got := byHour[23]; got.Status != monitoring.ClassCurrent || !got.IsUrgent {
		t.Fatalf("23:00 should be current and urgent, got %+v", got)
	}
	if got := byHour[2]; got.Status != monitoring.ClassUpcoming {
		t.Fatalf("02:00 should be upcoming, got %s", got.Status)
	}

	kpis, err := service.Kpis(context.Background(), dayStart, "tenant-1")
	if err != nil {
		t.Fatalf("kpis: %v", err)
	}
	want := monitoring.Kpis{Total: 9, Completed: 1, Current: 1, Upcoming: 7, Missed: 0, Urgent: 1}
	if kpis != want {
		t.Fatalf("kpis %+v, want %+v", kpis, want)
	}
}

func TestClassifiedAgendaDeduplicatesSlots(t *testing.T) {
	service, err := NewAgendaService(
		stubConfigs{configs: map[string]*monitoring.MonitoringConfig{"site-1": nightConfig("site-1")}},
		stubShifts{siteIDs: []string{"site-1", "site-1"}},
		stubContacts{},
		memory.NewOutcomeRepository(),
		WithClock(fixedClock{now: time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dayStart := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	classified, err := service.ClassifiedAgenda(context.Background(), dayStart, "tenant-1")
	if err != nil {
		t.Fatalf("classified agenda: %v", err)
	}
	seen := make(map[monitoring.SlotKey]bool)
	for _, item := range classified {
		if seen[item.Key()] {
			t.Fatalf("duplicate obligation %s", item.Key())
		}
		seen[item.Key()] = true
	}
	if len(classified) != 9 {
		t.Fatalf("expected 9 deduplicated obligations, got %d", len(classified))
	}
}

func TestClassifiedAgendaSkipsUnmonitoredSites(t *testing.T) {
	disabled := nightConfig("site-2")
	disabled.Enabled = false
	degenerate := nightConfig("site-3")
	degenerate.WindowEnd = degenerate.WindowStart

	service, err := NewAgendaService(
		stubConfigs{configs: map[string]*monitoring.MonitoringConfig{
			"site-2": disabled,
			"site-3": degenerate,
		}},
		stubShifts{siteIDs: []string{"site-1", "site-2", "site-3"}},
		stubContacts{},
		memory.NewOutcomeRepository(),
		WithClock(fixedClock{now: time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dayStart := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	classified, err := service.ClassifiedAgenda(context.Background(), dayStart, "tenant-1")
	if err != nil {
		t.Fatalf("classified agenda: %v", err)
	}
	if len(classified) != 0 {
		t.Fatalf("unmonitored sites produced %d obligations", len(classified))
	}
}

func TestClassifiedAgendaPropagatesFeedFailure(t *testing.T) {
	feedErr := errors.New("roster unavailable")
	service, err := NewAgendaService(
		stubConfigs{},
		stubShifts{err: feedErr},
		stubContacts{},
		memory.NewOutcomeRepository(),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = service.ClassifiedAgenda(context.Background(), time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), "tenant-1")
	if !errors.Is(err, feedErr) {
		t.Fatalf("collaborator failure must propagate, got %v", err)
	}
}
