package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

func TestSiteRegistry_ListBlogEnabledSites(t *testing.T) {
	repo := &mockSiteRepository{sites: []*models.Site{
		{ID: "doc-1", SiteID: strPtr("kariraku")},
		{ID: "demo"},
		{ID: "doc-3", SiteID: strPtr("")},
		{ID: ""},
	}}
	registry := NewSiteRegistry(repo, zap.NewNop())

	ids, err := registry.ListBlogEnabledSites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"kariraku", "demo", "doc-3"}, ids)
}

func TestSiteRegistry_NoSites(t *testing.T) {
	registry := NewSiteRegistry(&mockSiteRepository{}, zap.NewNop())

	ids, err := registry.ListBlogEnabledSites(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestSiteRegistry_StoreError(t *testing.T) {
	storeErr := errors.New("connection reset by peer")
	registry := NewSiteRegistry(&mockSiteRepository{err: storeErr}, zap.NewNop())

	_, err := registry.ListBlogEnabledSites(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
}
