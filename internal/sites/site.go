package sites

import (
	"context"
	"errors"
	"time"
)

// Site represents a physical installation under security coverage.
type Site struct {
	ID           string
	TenantID     string
	Name         string
	Address      string
	ContactName  string
	ContactPhone string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks site invariants.
func (s Site) Validate() error {
	if s.ID == "" {
		return errors.New("site: empty id")
	}
	if s.TenantID == "" {
		return errors.New("site: empty tenant id")
	}
	if s.Name == "" {
		return errors.New("site: empty name")
	}
	return nil
}

// Repository manages site master data reads.
type Repository interface {
	Get(ctx context.Context, id string) (*Site, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Site, error)
}

// ErrNotFound indicates a missing site.
var ErrNotFound = errors.New("site: not found")
