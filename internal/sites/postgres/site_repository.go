package postgres

import (
	"context"
	"database/sql"
	"errors"

	"guardops/internal/sites"
)

// SiteRepository is a Postgres repository for site master data.
type SiteRepository struct {
	db *sql.DB
}

// NewSiteRepository constructs a repository.
func NewSiteRepository(db *sql.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// Get fetches a site by id, or nil when absent.
func (r *SiteRepository) Get(ctx context.Context, id string) (*sites.Site, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("site repo: nil db")
	}
	if id == "" {
		return nil, errors.New("site repo: empty id")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, name, address, contact_name, contact_phone, created_at, updated_at
FROM sites
WHERE id = $1`, id)
	return scanSite(row)
}

// ListByTenant returns all sites for a tenant.
func (r *SiteRepository) ListByTenant(ctx context.Context, tenantID string) ([]sites.Site, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("site repo: nil db")
	}
	if tenantID == "" {
		return nil, errors.New("site repo: empty tenant id")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, name, address, contact_name, contact_phone, created_at, updated_at
FROM sites
WHERE tenant_id = $1
ORDER BY name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sites.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type siteScanner interface {
	Scan(dest ...any) error
}

func scanSite(row siteScanner) (*sites.Site, error) {
	var site sites.Site
	if err := row.Scan(
		&site.ID,
		&site.TenantID,
		&site.Name,
		&site.Address,
		&site.ContactName,
		&site.ContactPhone,
		&site.CreatedAt,
		&site.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	site.CreatedAt = site.CreatedAt.UTC()
	site.UpdatedAt = site.UpdatedAt.UTC()
	return &site, nil
}
