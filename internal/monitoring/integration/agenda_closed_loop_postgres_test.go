package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"guardops/internal/eventing"
	eventingrepo "guardops/internal/eventing/infrastructure/postgres"
	"guardops/internal/monitoring/adapters/sitedata"
	"guardops/internal/monitoring/application"
	"guardops/internal/monitoring/application/events"
	monitoringrepo "guardops/internal/monitoring/infrastructure/postgres"
	"guardops/internal/roster"
	sitesrepo "guardops/internal/sites/postgres"

	monitoring "guardops/internal/monitoring/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestAgendaClosedLoop_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if !tableExists(db, "sites") ||
		!tableExists(db, "shifts") ||
		!tableExists(db, "monitoring_configs") ||
		!tableExists(db, "call_outcomes") ||
		!tableExists(db, "event_outbox") ||
		!tableExists(db, "processed_events") ||
		!tableExists(db, "dead_letter_events") {
		t.Skip("missing tables; run migrations")
	}

	ctx := context.Background()
	tenantID := "tenant-it-agenda"
	siteID := "site-it-agenda"

	_, _ = db.ExecContext(ctx, "DELETE FROM call_outcomes WHERE tenant_id = $1", tenantID)
	_, _ = db.ExecContext(ctx, "DELETE FROM event_outbox")
	_, _ = db.ExecContext(ctx, "DELETE FROM processed_events")
	_, _ = db.ExecContext(ctx, "DELETE FROM dead_letter_events")
	_, _ = db.ExecContext(ctx, "DELETE FROM monitoring_configs WHERE site_id = $1", siteID)
	_, _ = db.ExecContext(ctx, "DELETE FROM shifts WHERE site_id = $1", siteID)
	_, _ = db.ExecContext(ctx, "DELETE FROM sites WHERE id = $1", siteID)

	if _, err := db.ExecContext(ctx, `
INSERT INTO sites (id, tenant_id, name, address, contact_name, contact_phone)
VALUES ($1, $2, $3, $4, $5, $6)`,
		siteID, tenantID, "Warehouse North", "12 Dock Rd", "Night Desk", "555-0100"); err != nil {
		t.Fatalf("insert site: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
INSERT INTO monitoring_configs (site_id, enabled, interval_minutes, window_start, window_end, mode, message_template, updated_at)
VALUES ($1, true, 60, '22:00', '02:00', 'calls', '', NOW())`, siteID); err != nil {
		t.Fatalf("insert config: %v", err)
	}

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if _, err := db.ExecContext(ctx, `
INSERT INTO shifts (id, tenant_id, site_id, status, monitored, starts_at, ends_at)
VALUES ($1, $2, $3, 'active', true, $4, $5)`,
		"shift-it-agenda", tenantID, siteID,
		day.Add(20*time.Hour), day.Add(32*time.Hour)); err != nil {
		t.Fatalf("insert shift: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
INSERT INTO shifts (id, tenant_id, site_id, status, monitored, starts_at, ends_at)
VALUES ($1, $2, $3, 'active', true, $4, $5)`,
		"shift-it-agenda-2", tenantID, siteID,
		day.Add(44*time.Hour), day.Add(56*time.Hour)); err != nil {
		t.Fatalf("insert shift 2: %v", err)
	}

	outcomeRepo := monitoringrepo.NewOutcomeRepository(db)
	configRepo := monitoringrepo.NewConfigRepository(db)
	shiftFeed := roster.NewShiftFeed(db)
	contacts, err := sitedata.NewContactReader(sitesrepo.NewSiteRepository(db))
	if err != nil {
		t.Fatalf("contact reader: %v", err)
	}

	registry := eventing.NewRegistry()
	registry.Register(events.OutcomeRecorded{})
	registry.Register(events.AgendaMaterialized{})
	bus := eventing.NewInMemoryBus()
	outbox := eventingrepo.NewOutboxStore(db)
	dlq := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(bus, outbox, registry, dlq)
	publisher := eventing.NewPublisher(outbox, dispatcher, tenantID, bus)

	processed := eventingrepo.NewProcessedStore(db)
	var consumed []string
	eventing.Subscribe(bus, eventing.EventTypeOf[events.OutcomeRecorded](), "it-consumer",
		func(_ context.Context, event any) error {
			recorded, ok := event.(events.OutcomeRecorded)
			if !ok {
				t.Fatalf("unexpected event %T", event)
			}
			consumed = append(consumed, recorded.OutcomeID)
			return nil
		}, processed)

	recorder, err := application.NewRecorder(outcomeRepo, configRepo, shiftFeed, contacts,
		application.WithPublisher(publisher))
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}

	created, err := recorder.MaterializeAgenda(ctx, tenantID, siteID, day)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if created != 5 {
		t.Fatalf("expected 5 pending rows (22..02), got %d", created)
	}
	again, err := recorder.MaterializeAgenda(ctx, tenantID, siteID, day)
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}
	if again != 0 {
		t.Fatalf("second materialize must be a no-op, got %d", again)
	}

	hour := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	stored, err := recorder.RecordOutcome(ctx, application.RecordOutcomeCommand{
		TenantID:      tenantID,
		SiteID:        siteID,
		ScheduledHour: hour,
		Status:        monitoring.StatusSuccessful,
		Actor:         "op-it",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if stored.ContactName != "Night Desk" {
		t.Fatalf("contact snapshot missing: %+v", stored)
	}
	if len(consumed) != 1 || consumed[0] != stored.ID {
		t.Fatalf("outcome event not consumed: %v", consumed)
	}

	agenda, err := application.NewAgendaService(configRepo, shiftFeed, contacts, outcomeRepo)
	if err != nil {
		t.Fatalf("agenda service: %v", err)
	}
	classified, err := agenda.ClassifiedAgenda(ctx, day.Add(12*time.Hour), tenantID)
	if err != nil {
		t.Fatalf("classified agenda: %v", err)
	}
	if len(classified) != 5 {
		t.Fatalf("expected 5 obligations, got %d", len(classified))
	}
	var completed int
	for _, item := range classified {
		if item.Status == monitoring.ClassCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed slot, got %d", completed)
	}

	var pendingOutbox int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_outbox WHERE status = 'pending'").Scan(&pendingOutbox); err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if pendingOutbox != 0 {
		t.Fatalf("outbox should be drained, %d pending", pendingOutbox)
	}
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
