package application

import (
	"context"
	"log"
	"time"

	"guardops/internal/observability/metrics"
)

// Scheduler materializes the agenda once a day for the configured
// sites, keeping an auditable persisted record alongside the virtual
// schedule. Materialization is conflict-do-nothing, so overlapping runs
// and retries after partial failure are harmless.
type Scheduler struct {
	recorder *Recorder
	shifts   ShiftFeed
	tenantID string
	sites    []string
	dailyAt  string
	logger   *log.Logger
}

// NewScheduler constructs a scheduler. When sites is empty, the active
// site list is taken from the shift feed at run time.
func NewScheduler(recorder *Recorder, shifts ShiftFeed, tenantID string, sites []string, dailyAt string, logger *log.Logger) *Scheduler {
	return &Scheduler{
		recorder: recorder,
		shifts:   shifts,
		tenantID: tenantID,
		sites:    sites,
		dailyAt:  dailyAt,
		logger:   logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.recorder == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !s.shouldRun(now.UTC()) {
				continue
			}
			s.runOnce(ctx, now.UTC())
		}
	}
}

func (s *Scheduler) shouldRun(now time.Time) bool {
	hour, minute, err := parseDailyAt(s.dailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

func (s *Scheduler) runOnce(ctx context.Context, now time.Time) {
	siteIDs := s.sites
	if len(siteIDs) == 0 && s.shifts != nil {
		active, err := s.shifts.ActiveSiteIDs(ctx, s.tenantID, now)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("materialize schedule: list active sites: %v", err)
			}
			metrics.IncSchedulerRun(metrics.ResultError)
			return
		}
		siteIDs = active
	}

	result := metrics.ResultSuccess
	for _, siteID := range siteIDs {
		if siteID == "" {
			continue
		}
		created, err := s.recorder.MaterializeAgenda(ctx, s.tenantID, siteID, now)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("materialize schedule: site=%s err=%v", siteID, err)
			}
			result = metrics.ResultError
			continue
		}
		if created > 0 && s.logger != nil {
			s.logger.Printf("materialize schedule: site=%s created=%d", siteID, created)
		}
	}
	metrics.IncSchedulerRun(result)
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}
