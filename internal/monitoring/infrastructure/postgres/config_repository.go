package postgres

import (
	"context"
	"database/sql"
	"errors"

	monitoring "guardops/internal/monitoring/domain"
)

// ConfigRepository reads per-site monitoring settings. The engine only
// consumes these; administration of the settings lives elsewhere in the
// platform.
type ConfigRepository struct {
	db *sql.DB
}

// NewConfigRepository constructs a repository.
func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetConfig returns monitoring settings for a site, or nil when the site
// has none. Absence is not an error: most sites are unmonitored.
func (r *ConfigRepository) GetConfig(ctx context.Context, siteID string) (*monitoring.MonitoringConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("config repo: nil db")
	}
	if siteID == "" {
		return nil, errors.New("config repo: empty site id")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT site_id, enabled, interval_minutes, window_start, window_end, mode, message_template, updated_at
FROM monitoring_configs
WHERE site_id = $1`, siteID)

	var cfg monitoring.MonitoringConfig
	var windowStart, windowEnd string
	if err := row.Scan(
		&cfg.SiteID,
		&cfg.Enabled,
		&cfg.IntervalMinutes,
		&windowStart,
		&windowEnd,
		&cfg.Mode,
		&cfg.MessageTemplate,
		&cfg.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	start, err := monitoring.ParseLocalTime(windowStart)
	if err != nil {
		return nil, err
	}
	end, err := monitoring.ParseLocalTime(windowEnd)
	if err != nil {
		return nil, err
	}
	cfg.WindowStart = start
	cfg.WindowEnd = end
	cfg.UpdatedAt = cfg.UpdatedAt.UTC()
	return &cfg, nil
}
