package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ShiftFeed is a read-only view over the shift roster. The monitoring
// engine never writes roster data; it only asks whether a site has an
// active monitored post on a date and which sites do at all. Roster
// generation, substitutes and extra shifts are owned elsewhere.
type ShiftFeed struct {
	db *sql.DB
}

// NewShiftFeed constructs a feed over the roster tables.
func NewShiftFeed(db *sql.DB) *ShiftFeed {
	return &ShiftFeed{db: db}
}

// HasActiveShift reports whether the site has at least one active
// monitored post overlapping the given calendar date.
func (f *ShiftFeed) HasActiveShift(ctx context.Context, siteID string, date time.Time) (bool, error) {
	if f == nil || f.db == nil {
		return false, errors.New("shift feed: nil db")
	}
	if siteID == "" {
		return false, errors.New("shift feed: empty site id")
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var exists bool
	err := f.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM shifts
	WHERE site_id = $1
		AND status = 'active'
		AND monitored
		AND starts_at < $3
		AND ends_at > $2
)`, siteID, dayStart, dayEnd).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ActiveSiteIDs lists the tenant's sites with an active monitored post
// overlapping the given date.
func (f *ShiftFeed) ActiveSiteIDs(ctx context.Context, tenantID string, date time.Time) ([]string, error) {
	if f == nil || f.db == nil {
		return nil, errors.New("shift feed: nil db")
	}
	if tenantID == "" {
		return nil, errors.New("shift feed: empty tenant id")
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := f.db.QueryContext(ctx, `
SELECT DISTINCT site_id
FROM shifts
WHERE tenant_id = $1
	AND status = 'active'
	AND monitored
	AND starts_at < $3
	AND ends_at > $2
ORDER BY site_id`, tenantID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var siteID string
		if err := rows.Scan(&siteID); err != nil {
			return nil, err
		}
		result = append(result, siteID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
