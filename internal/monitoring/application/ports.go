package application

import (
	"context"
	"time"

	monitoring "guardops/internal/monitoring/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// ConfigProvider reads per-site monitoring settings. A nil config means
// the site is not under monitoring.
type ConfigProvider interface {
	GetConfig(ctx context.Context, siteID string) (*monitoring.MonitoringConfig, error)
}

// ShiftFeed is the read-only roster view the engine consumes.
type ShiftFeed interface {
	HasActiveShift(ctx context.Context, siteID string, date time.Time) (bool, error)
	ActiveSiteIDs(ctx context.Context, tenantID string, date time.Time) ([]string, error)
}

// ContactProvider returns the current call contact for a site.
type ContactProvider interface {
	GetContact(ctx context.Context, siteID string) (monitoring.Contact, error)
}

// EventPublisher publishes engine lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}
