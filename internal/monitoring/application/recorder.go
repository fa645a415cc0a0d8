package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"guardops/internal/monitoring/application/events"
	monitoring "guardops/internal/monitoring/domain"
)

// RecordOutcomeCommand carries one outcome recording request.
type RecordOutcomeCommand struct {
	TenantID      string
	SiteID        string
	ScheduledHour time.Time
	Status        string
	Notes         string
	Actor         string
}

// Recorder is the engine's only mutating surface: it records call
// outcomes and materializes pending agenda rows. Both operations are
// idempotent upserts keyed by (tenant, site, scheduled hour).
type Recorder struct {
	outcomes  monitoring.OutcomeRepository
	configs   ConfigProvider
	shifts    ShiftFeed
	contacts  ContactProvider
	publisher EventPublisher
	clock     Clock
	zone      *time.Location
	logger    *log.Logger
}

// RecorderOption customizes the recorder.
type RecorderOption func(*Recorder)

// WithRecorderClock assigns a clock.
func WithRecorderClock(clock Clock) RecorderOption {
	return func(r *Recorder) {
		r.clock = clock
	}
}

// WithRecorderZone assigns the engine's civil timezone.
func WithRecorderZone(zone *time.Location) RecorderOption {
	return func(r *Recorder) {
		if zone != nil {
			r.zone = zone
		}
	}
}

// WithPublisher assigns an event publisher.
func WithPublisher(publisher EventPublisher) RecorderOption {
	return func(r *Recorder) {
		r.publisher = publisher
	}
}

// WithRecorderLogger assigns a logger.
func WithRecorderLogger(logger *log.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder constructs a recorder.
func NewRecorder(outcomes monitoring.OutcomeRepository, configs ConfigProvider, shifts ShiftFeed, contacts ContactProvider, opts ...RecorderOption) (*Recorder, error) {
	if outcomes == nil {
		return nil, errors.New("recorder: nil outcome repository")
	}
	if configs == nil {
		return nil, errors.New("recorder: nil config provider")
	}
	if shifts == nil {
		return nil, errors.New("recorder: nil shift feed")
	}
	if contacts == nil {
		return nil, errors.New("recorder: nil contact provider")
	}
	recorder := &Recorder{
		outcomes: outcomes,
		configs:  configs,
		shifts:   shifts,
		contacts: contacts,
		clock:    systemClock{},
		zone:     time.UTC,
	}
	for _, opt := range opts {
		opt(recorder)
	}
	return recorder, nil
}

// RecordOutcome records or updates the outcome for one obligation.
// Invalid input is rejected before any write; retries and concurrent
// recordings for the same slot collapse to a single row, last writer
// wins.
func (r *Recorder) RecordOutcome(ctx context.Context, cmd RecordOutcomeCommand) (*monitoring.CallOutcome, error) {
	if r == nil {
		return nil, errors.New("recorder: nil recorder")
	}
	if cmd.TenantID == "" {
		return nil, errors.New("recorder: empty tenant id")
	}
	if cmd.SiteID == "" {
		return nil, errors.New("recorder: empty site id")
	}
	if cmd.ScheduledHour.IsZero() {
		return nil, errors.New("recorder: empty scheduled hour")
	}
	if !monitoring.HourAligned(cmd.ScheduledHour) {
		return nil, monitoring.ErrHourNotAligned
	}
	if !monitoring.RecordableStatus(cmd.Status) {
		return nil, monitoring.ErrInvalidStatus
	}

	contact, err := r.contacts.GetContact(ctx, cmd.SiteID)
	if err != nil {
		return nil, fmt.Errorf("recorder: contact for site %s: %w", cmd.SiteID, err)
	}

	now := r.clock.Now()
	outcome := &monitoring.CallOutcome{
		TenantID:      cmd.TenantID,
		SiteID:        cmd.SiteID,
		ScheduledHour: cmd.ScheduledHour,
		Status:        cmd.Status,
		ContactName:   contact.Name,
		ContactPhone:  contact.Phone,
		Notes:         cmd.Notes,
		RecordedBy:    cmd.Actor,
		RecordedAt:    now,
	}
	if err := r.outcomes.Upsert(ctx, outcome); err != nil {
		return nil, fmt.Errorf("recorder: upsert outcome: %w", err)
	}

	stored, err := r.outcomes.GetByKey(ctx, cmd.TenantID, cmd.SiteID, cmd.ScheduledHour)
	if err != nil {
		return nil, fmt.Errorf("recorder: load outcome: %w", err)
	}
	if stored == nil {
		return nil, monitoring.ErrOutcomeNotFound
	}

	r.publish(ctx, events.OutcomeRecorded{
		OutcomeID:     stored.ID,
		TenantID:      stored.TenantID,
		SiteID:        stored.SiteID,
		ScheduledHour: stored.ScheduledHour,
		Status:        stored.Status,
		RecordedBy:    stored.RecordedBy,
		OccurredAt:    now,
	})
	return stored, nil
}

// MaterializeAgenda pre-creates pending outcome rows for every
// obligation the site generates on the given date. Existing rows are
// never touched; the returned count covers only newly created rows, so
// running it twice for the same date is a no-op the second time.
func (r *Recorder) MaterializeAgenda(ctx context.Context, tenantID, siteID string, date time.Time) (int, error) {
	if r == nil {
		return 0, errors.New("recorder: nil recorder")
	}
	if tenantID == "" {
		return 0, errors.New("recorder: empty tenant id")
	}
	if siteID == "" {
		return 0, errors.New("recorder: empty site id")
	}
	if date.IsZero() {
		return 0, errors.New("recorder: empty date")
	}

	cfg, err := r.configs.GetConfig(ctx, siteID)
	if err != nil {
		return 0, fmt.Errorf("recorder: config for site %s: %w", siteID, err)
	}
	if cfg == nil || !cfg.Enabled {
		if r.logger != nil {
			r.logger.Printf("materialize: site %s not under monitoring, skipping", siteID)
		}
		return 0, nil
	}

	hasShift, err := r.shifts.HasActiveShift(ctx, siteID, date)
	if err != nil {
		return 0, fmt.Errorf("recorder: shift feed for site %s: %w", siteID, err)
	}
	if !hasShift {
		return 0, nil
	}

	contact, err := r.contacts.GetContact(ctx, siteID)
	if err != nil {
		return 0, fmt.Errorf("recorder: contact for site %s: %w", siteID, err)
	}

	obligations := monitoring.Schedule(*cfg, contact, date, true, r.zone)
	if len(obligations) == 0 {
		if cfg.Degenerate() && r.logger != nil {
			r.logger.Printf("materialize: site %s has zero-width call window, skipping", siteID)
		}
		return 0, nil
	}

	rows := make([]monitoring.CallOutcome, 0, len(obligations))
	for _, obligation := range obligations {
		rows = append(rows, monitoring.CallOutcome{
			TenantID:      tenantID,
			SiteID:        obligation.SiteID,
			ScheduledHour: obligation.ScheduledHour,
			Status:        monitoring.StatusPending,
			ContactName:   contact.Name,
			ContactPhone:  contact.Phone,
		})
	}
	created, err := r.outcomes.MaterializePending(ctx, rows)
	if err != nil {
		return created, fmt.Errorf("recorder: materialize: %w", err)
	}

	r.publish(ctx, events.AgendaMaterialized{
		TenantID:   tenantID,
		SiteID:     siteID,
		Date:       time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, r.zone),
		Created:    created,
		OccurredAt: r.clock.Now(),
	})
	return created, nil
}

// publish is best effort: the durable write already committed, so an
// outbox failure is logged rather than surfaced as a request failure.
func (r *Recorder) publish(ctx context.Context, event any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, event); err != nil && r.logger != nil {
		r.logger.Printf("recorder: publish %T: %v", event, err)
	}
}
