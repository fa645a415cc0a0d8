package auth

import (
	"context"
	"errors"

	"guardops/internal/sites"
)

var (
	// ErrTenantMismatch indicates resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// SiteTenantChecker validates site tenant ownership.
type SiteTenantChecker interface {
	EnsureSiteTenant(ctx context.Context, tenantID, siteID string) error
}

// SiteChecker checks site ownership against the site registry.
type SiteChecker struct {
	repo sites.Repository
}

// NewSiteChecker constructs a SiteChecker.
func NewSiteChecker(repo sites.Repository) *SiteChecker {
	if repo == nil {
		return nil
	}
	return &SiteChecker{repo: repo}
}

// EnsureSiteTenant verifies the site belongs to the tenant.
func (c *SiteChecker) EnsureSiteTenant(ctx context.Context, tenantID, siteID string) error {
	if c == nil || c.repo == nil {
		return nil
	}
	if tenantID == "" || siteID == "" {
		return nil
	}
	site, err := c.repo.Get(ctx, siteID)
	if err != nil {
		if errors.Is(err, sites.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if site == nil {
		return ErrNotFound
	}
	if site.TenantID != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
