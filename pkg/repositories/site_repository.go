package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ekaya-inc/ekaya-content/pkg/database"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

// SiteRepository provides read access to the sites collection.
type SiteRepository interface {
	ListBlogEnabled(ctx context.Context) ([]*models.Site, error)
}

type siteRepository struct {
	db database.Querier
}

func NewSiteRepository(db database.Querier) SiteRepository {
	return &siteRepository{db: db}
}

var _ SiteRepository = (*siteRepository)(nil)

func (r *siteRepository) ListBlogEnabled(ctx context.Context) ([]*models.Site, error) {
	query, args, err := psql.Select("id", "site_id", "display_name", "blogs_enabled", "created_at", "updated_at").
		From("sites").
		Where(sq.Eq{"blogs_enabled": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build site query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*models.Site
	for rows.Next() {
		var s models.Site
		if err := rows.Scan(&s.ID, &s.SiteID, &s.DisplayName, &s.BlogsEnabled, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sites: %w", err)
	}

	return sites, nil
}
