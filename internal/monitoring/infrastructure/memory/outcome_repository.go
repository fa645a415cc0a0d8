package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	monitoring "guardops/internal/monitoring/domain"
)

// OutcomeRepository is an in-memory outcome store for demo/testing.
type OutcomeRepository struct {
	mu   sync.RWMutex
	data map[string]*monitoring.CallOutcome
}

// NewOutcomeRepository constructs a repository.
func NewOutcomeRepository() *OutcomeRepository {
	return &OutcomeRepository{data: make(map[string]*monitoring.CallOutcome)}
}

func storageKey(tenantID string, key monitoring.SlotKey) string {
	return tenantID + "|" + key.String()
}

// GetByKey loads the outcome for a slot, or nil when absent.
func (r *OutcomeRepository) GetByKey(ctx context.Context, tenantID, siteID string, scheduledHour time.Time) (*monitoring.CallOutcome, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	outcome := r.data[storageKey(tenantID, monitoring.NewSlotKey(siteID, scheduledHour))]
	if outcome == nil {
		return nil, nil
	}
	copied := *outcome
	return &copied, nil
}

// ListByPeriod returns outcomes with scheduled hour in [start, end).
func (r *OutcomeRepository) ListByPeriod(ctx context.Context, tenantID string, startInclusive, endExclusive time.Time) ([]monitoring.CallOutcome, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []monitoring.CallOutcome
	for key, outcome := range r.data {
		if outcome == nil || key != storageKey(tenantID, outcome.Key()) {
			continue
		}
		hour := outcome.ScheduledHour
		if hour.Before(startInclusive) || !hour.Before(endExclusive) {
			continue
		}
		result = append(result, *outcome)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ScheduledHour.Equal(result[j].ScheduledHour) {
			return result[i].ScheduledHour.Before(result[j].ScheduledHour)
		}
		return result[i].SiteID < result[j].SiteID
	})
	return result, nil
}

// Upsert creates or replaces the outcome for its slot. Last writer wins.
func (r *OutcomeRepository) Upsert(ctx context.Context, outcome *monitoring.CallOutcome) error {
	_ = ctx
	if err := outcome.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := storageKey(outcome.TenantID, outcome.Key())
	now := time.Now().UTC()
	if existing := r.data[key]; existing != nil {
		updated := *outcome
		updated.ID = existing.ID
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now
		r.data[key] = &updated
		return nil
	}

	created := *outcome
	if created.ID == "" {
		created.ID = monitoring.NewOutcomeID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now
	r.data[key] = &created
	return nil
}

// MaterializePending inserts pending rows for absent slots and reports
// how many were created. Existing rows are left untouched.
func (r *OutcomeRepository) MaterializePending(ctx context.Context, outcomes []monitoring.CallOutcome) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	created := 0
	now := time.Now().UTC()
	for _, outcome := range outcomes {
		key := storageKey(outcome.TenantID, outcome.Key())
		if r.data[key] != nil {
			continue
		}
		row := outcome
		if row.ID == "" {
			row.ID = monitoring.NewOutcomeID()
		}
		row.Status = monitoring.StatusPending
		row.CreatedAt = now
		row.UpdatedAt = now
		r.data[key] = &row
		created++
	}
	return created, nil
}
