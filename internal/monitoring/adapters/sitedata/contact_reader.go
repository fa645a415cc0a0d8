package sitedata

import (
	"context"
	"errors"

	monitoring "guardops/internal/monitoring/domain"
	"guardops/internal/sites"
)

// ContactReader adapts site master data into the engine's contact port.
type ContactReader struct {
	repo sites.Repository
}

// NewContactReader constructs a reader.
func NewContactReader(repo sites.Repository) (*ContactReader, error) {
	if repo == nil {
		return nil, errors.New("contact reader: nil site repository")
	}
	return &ContactReader{repo: repo}, nil
}

// GetContact returns the current call contact for a site. A site the
// master data no longer knows yields an empty contact, not an error:
// the obligation still stands even if the phone book entry is gone.
func (r *ContactReader) GetContact(ctx context.Context, siteID string) (monitoring.Contact, error) {
	site, err := r.repo.Get(ctx, siteID)
	if err != nil {
		if errors.Is(err, sites.ErrNotFound) {
			return monitoring.Contact{}, nil
		}
		return monitoring.Contact{}, err
	}
	if site == nil {
		return monitoring.Contact{}, nil
	}
	return monitoring.Contact{Name: site.ContactName, Phone: site.ContactPhone}, nil
}
