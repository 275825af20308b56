package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

// SiteConfigLoader reads the durable configuration of one site.
// It returns apperrors.ErrSiteConfigNotFound when the site has none.
type SiteConfigLoader interface {
	Load(ctx context.Context, siteID string) (*models.SiteConfig, error)
}

// siteConfigExtensions are tried in order. yaml.v3 parses JSON documents as well.
var siteConfigExtensions = []string{".yaml", ".yml", ".json"}

type fileSiteConfigLoader struct {
	dir string
}

// NewFileSiteConfigLoader loads <dir>/<siteID>.yaml, .yml or .json.
func NewFileSiteConfigLoader(dir string) SiteConfigLoader {
	return &fileSiteConfigLoader{dir: dir}
}

var _ SiteConfigLoader = (*fileSiteConfigLoader)(nil)

func (l *fileSiteConfigLoader) Load(ctx context.Context, siteID string) (*models.SiteConfig, error) {
	if siteID == "" || filepath.Base(siteID) != siteID || strings.HasPrefix(siteID, ".") {
		return nil, fmt.Errorf("invalid site id %q", siteID)
	}

	for _, ext := range siteConfigExtensions {
		path := filepath.Join(l.dir, siteID+ext)
		raw, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read site config %s: %w", path, err)
		}

		var cfg models.SiteConfig
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse site config %s: %w", path, err)
		}
		if cfg.SiteID == "" {
			cfg.SiteID = siteID
		}
		return &cfg, nil
	}

	return nil, apperrors.ErrSiteConfigNotFound
}

// SiteConfigCache is a read-through cache in front of a SiteConfigLoader.
// Entries, including "no config" results, live for the lifetime of the cache.
// Safe for concurrent use.
type SiteConfigCache struct {
	loader  SiteConfigLoader
	mu      sync.RWMutex
	entries map[string]*models.SiteConfig
	logger  *zap.Logger
}

func NewSiteConfigCache(loader SiteConfigLoader, logger *zap.Logger) *SiteConfigCache {
	return &SiteConfigCache{
		loader:  loader,
		entries: make(map[string]*models.SiteConfig),
		logger:  logger.Named("site-config-cache"),
	}
}

// Get returns the site's configuration, or nil when it has none.
// Load errors other than "not found" are returned and not cached.
func (c *SiteConfigCache) Get(ctx context.Context, siteID string) (*models.SiteConfig, error) {
	c.mu.RLock()
	cfg, ok := c.entries[siteID]
	c.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	cfg, err := c.loader.Load(ctx, siteID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrSiteConfigNotFound) {
			return nil, err
		}
		c.logger.Debug("No site config, using defaults", zap.String("site_id", siteID))
		cfg = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent caller may have filled the entry first; keep a single value per site.
	if existing, ok := c.entries[siteID]; ok {
		return existing, nil
	}
	c.entries[siteID] = cfg
	return cfg, nil
}

// Len returns the number of memoized sites.
func (c *SiteConfigCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
