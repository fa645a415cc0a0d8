package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"guardops/internal/monitoring/application/events"
	"guardops/internal/monitoring/infrastructure/memory"

	monitoring "guardops/internal/monitoring/domain"
)

type capturePublisher struct {
	published []any
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, event any) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	return nil
}

func newTestRecorder(t *testing.T, outcomes monitoring.OutcomeRepository, publisher EventPublisher) *Recorder {
	t.Helper()
	recorder, err := NewRecorder(
		outcomes,
		stubConfigs{configs: map[string]*monitoring.MonitoringConfig{"site-1": nightConfig("site-1")}},
		stubShifts{siteIDs: []string{"site-1"}},
		stubContacts{contact: monitoring.Contact{Name: "Night Desk", Phone: "555-0100"}},
		WithRecorderClock(fixedClock{now: time.Date(2025, 3, 10, 23, 10, 0, 0, time.UTC)}),
		WithPublisher(publisher),
	)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	return recorder
}

func TestRecordOutcomeRejectsInvalidInput(t *testing.T) {
	outcomes := memory.NewOutcomeRepository()
	recorder := newTestRecorder(t, outcomes, nil)

	_, err := recorder.RecordOutcome(context.Background(), RecordOutcomeCommand{
		TenantID:      "tenant-1",
		SiteID:        "site-1",
		ScheduledHour: time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC),
		Status:        monitoring.StatusSuccessful,
	})
	if !errors.Is(err, monitoring.ErrHourNotAligned) {
		t.Fatalf("misaligned hour must be rejected, got %v", err)
	}

	_, err = recorder.RecordOutcome(context.Background(), RecordOutcomeCommand{
		TenantID:      "tenant-1",
		SiteID:        "site-1",
		ScheduledHour: time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC),
		Status:        monitoring.StatusPending,
	})
	if !errors.Is(err, monitoring.ErrInvalidStatus) {
		t.Fatalf("pending must not be recordable, got %v", err)
	}

	stored, err := outcomes.ListByPeriod(context.Background(), "tenant-1",
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("rejected commands must not write, found %d rows", len(stored))
	}
}

func TestRecordOutcomeCollapsesRetries(t *testing.T) {
	outcomes := memory.NewOutcomeRepository()
	publisher := &capturePublisher{}
	recorder := newTestRecorder(t, outcomes, publisher)

	hour := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	first, err := recorder.RecordOutcome(context.Background(), RecordOutcomeCommand{
		TenantID:      "tenant-1",
		SiteID:        "site-1",
		ScheduledHour: hour,
		Status:        monitoring.StatusNoAnswer,
		Actor:         "op-7",
	})
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	second, err := recorder.RecordOutcome(context.Background(), RecordOutcomeCommand{
		TenantID:      "tenant-1",
		SiteID:        "site-1",
		ScheduledHour: hour,
		Status:        monitoring.StatusSuccessful,
		Notes:         "reached on retry",
		Actor:         "op-7",
	})
	if err != nil {
		t.Fatalf("second record: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("retry must reuse the slot row, got ids %s and %s", first.ID, second.ID)
	}
	if second.Status != monitoring.StatusSuccessful {
		t.Fatalf("last writer must win, got status %s", second.Status)
	}
	if second.ContactName != "Night Desk" {
		t.Fatalf("contact snapshot missing, got %q", second.ContactName)
	}

	stored, err := outcomes.ListByPeriod(context.Background(), "tenant-1", hour, hour.Add(time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected a single row per slot, got %d", len(stored))
	}

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.published))
	}
	recordedEvent, ok := publisher.published[1].(events.OutcomeRecorded)
	if !ok {
		t.Fatalf("unexpected event %T", publisher.published[1])
	}
	if recordedEvent.Status != monitoring.StatusSuccessful || recordedEvent.OutcomeID != second.ID {
		t.Fatalf("event does not reflect the stored row: %+v", recordedEvent)
	}
}

func TestRecordOutcomeSurvivesPublishFailure(t *testing.T) {
	outcomes := memory.NewOutcomeRepository()
	recorder := newTestRecorder(t, outcomes, &capturePublisher{err: errors.New("outbox down")})

	hour := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	stored, err := recorder.RecordOutcome(context.Background(), RecordOutcomeCommand{
		TenantID:      "tenant-1",
		SiteID:        "site-1",
		ScheduledHour: hour,
		Status:        monitoring.StatusBusy,
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the request: %v", err)
	}
	if stored == nil || stored.Status != monitoring.StatusBusy {
		t.Fatalf("row missing after publish failure: %+v", stored)
	}
}

func TestMaterializeAgendaIsIdempotent(t *testing.T) {
	outcomes := memory.NewOutcomeRepository()
	publisher := &capturePublisher{}
	recorder := newTestRecorder(t, outcomes, publisher)

	date := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	created, err := recorder.MaterializeAgenda(context.Background(), "tenant-1", "site-1", date)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if created != 9 {
		t.Fatalf("expected 9 pending rows for a 22..06 window, got %d", created)
	}

	hour := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)
	if _, err := recorder.RecordOutcome(context.Background(), RecordOutcomeCommand{
		TenantID:      "tenant-1",
		SiteID:        "site-1",
		ScheduledHour: hour,
		Status:        monitoring.StatusSuccessful,
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	again, err := recorder.MaterializeAgenda(context.Background(), "tenant-1", "site-1", date)
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}
	if again != 0 {
		t.Fatalf("second materialize must create nothing, got %d", again)
	}

	row, err := outcomes.GetByKey(context.Background(), "tenant-1", "site-1", hour)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row == nil || row.Status != monitoring.StatusSuccessful {
		t.Fatalf("materialize must never touch recorded rows: %+v", row)
	}

	materializedEvent, ok := publisher.published[0].(events.AgendaMaterialized)
	if !ok {
		t.Fatalf("unexpected event %T", publisher.published[0])
	}
	if materializedEvent.Created != 9 {
		t.Fatalf("event carries wrong count: %+v", materializedEvent)
	}
}

func TestMaterializeAgendaSkipsUnmonitoredSite(t *testing.T) {
	recorder, err := NewRecorder(
		memory.NewOutcomeRepository(),
		stubConfigs{},
		stubShifts{siteIDs: []string{"site-9"}},
		stubContacts{},
	)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	created, err := recorder.MaterializeAgenda(context.Background(), "tenant-1", "site-9",
		time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if created != 0 {
		t.Fatalf("site without config must create nothing, got %d", created)
	}
}
