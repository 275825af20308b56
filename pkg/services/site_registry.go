package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/repositories"
)

// SiteRegistry enumerates the sites that receive generated articles.
type SiteRegistry interface {
	// ListBlogEnabledSites returns the effective ID of every site with blogs enabled.
	// No sites is an empty slice, not an error.
	ListBlogEnabledSites(ctx context.Context) ([]string, error)
}

type siteRegistry struct {
	siteRepo repositories.SiteRepository
	logger   *zap.Logger
}

func NewSiteRegistry(siteRepo repositories.SiteRepository, logger *zap.Logger) SiteRegistry {
	return &siteRegistry{
		siteRepo: siteRepo,
		logger:   logger.Named("site-registry"),
	}
}

var _ SiteRegistry = (*siteRegistry)(nil)

func (r *siteRegistry) ListBlogEnabledSites(ctx context.Context) ([]string, error) {
	sites, err := r.siteRepo.ListBlogEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog-enabled sites: %w", err)
	}

	ids := make([]string, 0, len(sites))
	for _, site := range sites {
		id := site.EffectiveID()
		if id == "" {
			r.logger.Warn("Skipping site without identifier")
			continue
		}
		ids = append(ids, id)
	}

	r.logger.Debug("Listed blog-enabled sites", zap.Int("count", len(ids)))
	return ids, nil
}
