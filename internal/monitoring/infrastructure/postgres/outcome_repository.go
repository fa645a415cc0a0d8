package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	monitoring "guardops/internal/monitoring/domain"
)

// OutcomeRepository is a Postgres repository for call outcomes. The
// call_outcomes table carries a uniqueness constraint on
// (tenant_id, site_id, scheduled_hour); all writes go through ON CONFLICT
// so concurrent recordings race safely to a single row.
type OutcomeRepository struct {
	db *sql.DB
}

// NewOutcomeRepository constructs a repository.
func NewOutcomeRepository(db *sql.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// Upsert creates or updates the outcome for its slot. Last writer wins;
// the original row id and created_at survive updates.
func (r *OutcomeRepository) Upsert(ctx context.Context, outcome *monitoring.CallOutcome) error {
	if r == nil || r.db == nil {
		return errors.New("outcome repo: nil db")
	}
	if outcome == nil {
		return errors.New("outcome repo: nil outcome")
	}
	if err := outcome.Validate(); err != nil {
		return err
	}
	if outcome.ID == "" {
		outcome.ID = monitoring.NewOutcomeID()
	}
	now := time.Now().UTC()
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = now
	}
	outcome.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO call_outcomes (
	id, tenant_id, site_id, scheduled_hour, status,
	contact_name, contact_phone, notes, recorded_by, recorded_at,
	created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, $8, $9, $10,
	$11, $12
)
ON CONFLICT (tenant_id, site_id, scheduled_hour)
DO UPDATE SET
	status = EXCLUDED.status,
	contact_name = EXCLUDED.contact_name,
	contact_phone = EXCLUDED.contact_phone,
	notes = EXCLUDED.notes,
	recorded_by = EXCLUDED.recorded_by,
	recorded_at = EXCLUDED.recorded_at,
	updated_at = EXCLUDED.updated_at`,
		outcome.ID,
		outcome.TenantID,
		outcome.SiteID,
		outcome.ScheduledHour,
		outcome.Status,
		outcome.ContactName,
		outcome.ContactPhone,
		outcome.Notes,
		outcome.RecordedBy,
		nullableTime(outcome.RecordedAt),
		outcome.CreatedAt,
		outcome.UpdatedAt,
	)
	return err
}

// MaterializePending pre-creates pending rows for the given slots and
// returns how many were actually inserted. Each insert is an independent
// conflict-do-nothing write, so the whole batch is safe to retry.
func (r *OutcomeRepository) MaterializePending(ctx context.Context, outcomes []monitoring.CallOutcome) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("outcome repo: nil db")
	}
	created := 0
	for _, outcome := range outcomes {
		if outcome.TenantID == "" || outcome.SiteID == "" || outcome.ScheduledHour.IsZero() {
			return created, errors.New("outcome repo: missing fields")
		}
		now := time.Now().UTC()
		result, err := r.db.ExecContext(ctx, `
INSERT INTO call_outcomes (
	id, tenant_id, site_id, scheduled_hour, status,
	contact_name, contact_phone, notes, recorded_by, recorded_at,
	created_at, updated_at
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, '', '', NULL,
	$8, $8
)
ON CONFLICT (tenant_id, site_id, scheduled_hour)
DO NOTHING`,
			monitoring.NewOutcomeID(),
			outcome.TenantID,
			outcome.SiteID,
			outcome.ScheduledHour,
			monitoring.StatusPending,
			outcome.ContactName,
			outcome.ContactPhone,
			now,
		)
		if err != nil {
			return created, err
		}
		if affected, err := result.RowsAffected(); err == nil && affected > 0 {
			created++
		}
	}
	return created, nil
}

// GetByKey fetches the outcome for a slot, or nil when absent.
func (r *OutcomeRepository) GetByKey(ctx context.Context, tenantID, siteID string, scheduledHour time.Time) (*monitoring.CallOutcome, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("outcome repo: nil db")
	}
	if tenantID == "" || siteID == "" {
		return nil, errors.New("outcome repo: invalid query")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, site_id, scheduled_hour, status,
	contact_name, contact_phone, notes, recorded_by, recorded_at,
	created_at, updated_at
FROM call_outcomes
WHERE tenant_id = $1 AND site_id = $2 AND scheduled_hour = $3`,
		tenantID, siteID, scheduledHour)
	return scanOutcome(row)
}

// ListByPeriod returns outcomes with scheduled hour in [from, to).
func (r *OutcomeRepository) ListByPeriod(ctx context.Context, tenantID string, startInclusive, endExclusive time.Time) ([]monitoring.CallOutcome, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("outcome repo: nil db")
	}
	if tenantID == "" {
		return nil, errors.New("outcome repo: invalid query")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, site_id, scheduled_hour, status,
	contact_name, contact_phone, notes, recorded_by, recorded_at,
	created_at, updated_at
FROM call_outcomes
WHERE tenant_id = $1 AND scheduled_hour >= $2 AND scheduled_hour < $3
ORDER BY scheduled_hour, site_id`,
		tenantID, startInclusive, endExclusive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []monitoring.CallOutcome
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type outcomeScanner interface {
	Scan(dest ...any) error
}

func scanOutcome(row outcomeScanner) (*monitoring.CallOutcome, error) {
	var outcome monitoring.CallOutcome
	var recordedAt sql.NullTime
	if err := row.Scan(
		&outcome.ID,
		&outcome.TenantID,
		&outcome.SiteID,
		&outcome.ScheduledHour,
		&outcome.Status,
		&outcome.ContactName,
		&outcome.ContactPhone,
		&outcome.Notes,
		&outcome.RecordedBy,
		&recordedAt,
		&outcome.CreatedAt,
		&outcome.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	outcome.ScheduledHour = outcome.ScheduledHour.UTC()
	outcome.CreatedAt = outcome.CreatedAt.UTC()
	outcome.UpdatedAt = outcome.UpdatedAt.UTC()
	if recordedAt.Valid {
		outcome.RecordedAt = recordedAt.Time.UTC()
	}
	return &outcome, nil
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}
