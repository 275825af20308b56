package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

func writeSiteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestFileSiteConfigLoader_YAML(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "kariraku.yaml", `
siteId: kariraku
displayName: Kariraku（カリラク）
features:
  blogs: true
persona: 家電を借りるか迷っている人
pain: 料金比較
templateName: blogTemplate_kariraku_service.txt
timezone: Asia/Tokyo
`)

	cfg, err := NewFileSiteConfigLoader(dir).Load(context.Background(), "kariraku")
	require.NoError(t, err)
	assert.Equal(t, "Kariraku（カリラク）", cfg.DisplayName)
	assert.True(t, cfg.Features.Blogs)
	assert.Equal(t, "blogTemplate_kariraku_service.txt", cfg.TemplateName)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
}

func TestFileSiteConfigLoader_JSONAndDefaultSiteID(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "demo.json", `{"displayName": "Demo", "features": {"blogs": true}, "persona": "p", "pain": "q"}`)

	cfg, err := NewFileSiteConfigLoader(dir).Load(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.SiteID)
	assert.Equal(t, "Demo", cfg.DisplayName)
}

func TestFileSiteConfigLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "broken.yaml", "persona: [unterminated")
	loader := NewFileSiteConfigLoader(dir)

	_, err := loader.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrSiteConfigNotFound)

	_, err = loader.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse site config")

	for _, bad := range []string{"", "../etc/passwd", ".hidden", "a/b"} {
		_, err = loader.Load(context.Background(), bad)
		assert.Error(t, err, bad)
		assert.NotErrorIs(t, err, apperrors.ErrSiteConfigNotFound, bad)
	}
}

type countingLoader struct {
	calls atomic.Int32
	cfgs  map[string]*models.SiteConfig
	err   error
}

func (l *countingLoader) Load(ctx context.Context, siteID string) (*models.SiteConfig, error) {
	l.calls.Add(1)
	if l.err != nil {
		return nil, l.err
	}
	cfg, ok := l.cfgs[siteID]
	if !ok {
		return nil, apperrors.ErrSiteConfigNotFound
	}
	return cfg, nil
}

func TestSiteConfigCache_MemoizesHitsAndMisses(t *testing.T) {
	loader := &countingLoader{cfgs: map[string]*models.SiteConfig{
		"demo": {SiteID: "demo", DisplayName: "Demo"},
	}}
	cache := NewSiteConfigCache(loader, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cfg, err := cache.Get(ctx, "demo")
		require.NoError(t, err)
		assert.Equal(t, "Demo", cfg.DisplayName)

		cfg, err = cache.Get(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, cfg)
	}

	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestSiteConfigCache_LoadErrorIsNotCached(t *testing.T) {
	loader := &countingLoader{err: errors.New("permission denied")}
	cache := NewSiteConfigCache(loader, zap.NewNop())

	_, err := cache.Get(context.Background(), "demo")
	require.Error(t, err)
	_, err = cache.Get(context.Background(), "demo")
	require.Error(t, err)

	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, 0, cache.Len())
}

func TestSiteConfigCache_ConcurrentGet(t *testing.T) {
	loader := &countingLoader{cfgs: map[string]*models.SiteConfig{
		"demo": {SiteID: "demo"},
	}}
	cache := NewSiteConfigCache(loader, zap.NewNop())

	var wg sync.WaitGroup
	results := make([]*models.SiteConfig, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := cache.Get(context.Background(), "demo")
			assert.NoError(t, err)
			results[i] = cfg
		}(i)
	}
	wg.Wait()

	// Every caller sees the same memoized value even if several loaded concurrently.
	for _, cfg := range results {
		assert.Same(t, results[0], cfg)
	}
	assert.Equal(t, 1, cache.Len())
}
