package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	monitoring "guardops/internal/monitoring/domain"
)

// AgendaService computes the classified call agenda for an operational
// day. The schedule is virtual: it is recomputed from the config store
// and shift feed on every read and merged with persisted outcomes, so
// there is no second copy of the schedule to drift.
type AgendaService struct {
	configs         ConfigProvider
	shifts          ShiftFeed
	contacts        ContactProvider
	outcomes        monitoring.OutcomeRepository
	clock           Clock
	zone            *time.Location
	urgentThreshold time.Duration
	logger          *log.Logger
}

// AgendaOption customizes the agenda service.
type AgendaOption func(*AgendaService)

// WithClock assigns a clock.
func WithClock(clock Clock) AgendaOption {
	return func(s *AgendaService) {
		s.clock = clock
	}
}

// WithZone assigns the engine's civil timezone.
func WithZone(zone *time.Location) AgendaOption {
	return func(s *AgendaService) {
		if zone != nil {
			s.zone = zone
		}
	}
}

// WithUrgentThreshold overrides the urgent overlay threshold.
func WithUrgentThreshold(threshold time.Duration) AgendaOption {
	return func(s *AgendaService) {
		if threshold > 0 {
			s.urgentThreshold = threshold
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) AgendaOption {
	return func(s *AgendaService) {
		s.logger = logger
	}
}

// NewAgendaService constructs an agenda service.
func NewAgendaService(configs ConfigProvider, shifts ShiftFeed, contacts ContactProvider, outcomes monitoring.OutcomeRepository, opts ...AgendaOption) (*AgendaService, error) {
	if configs == nil {
		return nil, errors.New("agenda: nil config provider")
	}
	if shifts == nil {
		return nil, errors.New("agenda: nil shift feed")
	}
	if contacts == nil {
		return nil, errors.New("agenda: nil contact provider")
	}
	if outcomes == nil {
		return nil, errors.New("agenda: nil outcome repository")
	}
	service := &AgendaService{
		configs:         configs,
		shifts:          shifts,
		contacts:        contacts,
		outcomes:        outcomes,
		clock:           systemClock{},
		zone:            time.UTC,
		urgentThreshold: monitoring.DefaultUrgentThreshold,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// ClassifiedAgenda returns every obligation of the operational day
// containing dayStart, classified against the current instant. Sites
// without config or without an active monitored shift are skipped;
// collaborator read failures propagate so an outage is never mistaken
// for an empty agenda.
func (s *AgendaService) ClassifiedAgenda(ctx context.Context, dayStart time.Time, tenantID string) ([]monitoring.ClassifiedObligation, error) {
	if s == nil {
		return nil, errors.New("agenda: nil service")
	}
	if tenantID == "" {
		return nil, errors.New("agenda: empty tenant id")
	}
	if dayStart.IsZero() {
		return nil, errors.New("agenda: empty day start")
	}

	start := monitoring.OperationalDayStart(dayStart.In(s.zone), s.zone)
	end := start.Add(24 * time.Hour)

	obligations, err := s.generateSlots(ctx, tenantID, start, end)
	if err != nil {
		return nil, err
	}

	recorded, err := s.outcomes.ListByPeriod(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("agenda: list outcomes: %w", err)
	}
	outcomeByKey := make(map[monitoring.SlotKey]*monitoring.CallOutcome, len(recorded))
	for i := range recorded {
		outcomeByKey[recorded[i].Key()] = &recorded[i]
	}

	now := s.clock.Now()
	classified := make([]monitoring.ClassifiedObligation, 0, len(obligations))
	for _, obligation := range obligations {
		classified = append(classified, monitoring.Classify(obligation, outcomeByKey[obligation.Key()], now, s.urgentThreshold))
	}
	return classified, nil
}

// Kpis folds the classified agenda into dashboard counts.
func (s *AgendaService) Kpis(ctx context.Context, dayStart time.Time, tenantID string) (monitoring.Kpis, error) {
	classified, err := s.ClassifiedAgenda(ctx, dayStart, tenantID)
	if err != nil {
		return monitoring.Kpis{}, err
	}
	return monitoring.Aggregate(classified), nil
}

// generateSlots expands the call windows of every active site across the
// two calendar dates overlapping [start, end) and keeps the obligations
// falling inside the operational day. The slot map enforces the
// one-obligation-per-site-per-hour invariant across date boundaries.
func (s *AgendaService) generateSlots(ctx context.Context, tenantID string, start, end time.Time) ([]monitoring.CallObligation, error) {
	seen := make(map[monitoring.SlotKey]struct{})
	var obligations []monitoring.CallObligation
	configCache := make(map[string]*monitoring.MonitoringConfig)
	contactCache := make(map[string]monitoring.Contact)

	for _, date := range []time.Time{start, start.AddDate(0, 0, 1)} {
		siteIDs, err := s.shifts.ActiveSiteIDs(ctx, tenantID, date)
		if err != nil {
			return nil, fmt.Errorf("agenda: shift feed: %w", err)
		}
		for _, siteID := range siteIDs {
			cfg, ok := configCache[siteID]
			if !ok {
				cfg, err = s.configs.GetConfig(ctx, siteID)
				if err != nil {
					return nil, fmt.Errorf("agenda: config for site %s: %w", siteID, err)
				}
				configCache[siteID] = cfg
			}
			if cfg == nil || !cfg.Enabled {
				continue
			}
			if cfg.Degenerate() {
				if s.logger != nil {
					s.logger.Printf("agenda: site %s has zero-width call window, skipping", siteID)
				}
				continue
			}

			contact, ok := contactCache[siteID]
			if !ok {
				contact, err = s.contacts.GetContact(ctx, siteID)
				if err != nil {
					return nil, fmt.Errorf("agenda: contact for site %s: %w", siteID, err)
				}
				contactCache[siteID] = contact
			}

			for _, obligation := range monitoring.Schedule(*cfg, contact, date, true, s.zone) {
				if obligation.ScheduledHour.Before(start) || !obligation.ScheduledHour.Before(end) {
					continue
				}
				if _, dup := seen[obligation.Key()]; dup {
					continue
				}
				seen[obligation.Key()] = struct{}{}
				obligations = append(obligations, obligation)
			}
		}
	}

	sort.Slice(obligations, func(i, j int) bool {
		if !obligations[i].ScheduledHour.Equal(obligations[j].ScheduledHour) {
			return obligations[i].ScheduledHour.Before(obligations[j].ScheduledHour)
		}
		return obligations[i].SiteID < obligations[j].SiteID
	})
	return obligations, nil
}
