package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/llm"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

type generateFixture struct {
	now      time.Time
	sites    *mockSiteRepository
	offers   *mockOfferRepository
	articles *mockArticleRepository
	gen      *mockContentGenerator
	svc      GenerateService
}

func newGenerateFixture(siteIDs ...string) *generateFixture {
	f := &generateFixture{
		now:      time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC),
		sites:    &mockSiteRepository{},
		offers:   &mockOfferRepository{},
		articles: newMockArticleRepository(),
	}
	for _, id := range siteIDs {
		f.sites.sites = append(f.sites.sites, &models.Site{ID: id, BlogsEnabled: true})
	}

	clock := func() time.Time { return f.now }
	f.gen = &mockContentGenerator{
		generateFunc: func(ctx context.Context, req GenerateRequest) (*models.Article, error) {
			offerID := req.OfferID
			return &models.Article{
				SiteID:    req.SiteID,
				Slug:      fmt.Sprintf("%s-%s-%d", req.SiteID, req.OfferID, f.now.Unix()),
				Title:     "title",
				Body:      "body",
				OfferID:   &offerID,
				Published: req.Publish,
				CreatedAt: f.now,
				UpdatedAt: f.now,
			}, nil
		},
	}

	logger := zap.NewNop()
	f.svc = NewGenerateService(
		NewSiteRegistry(f.sites, logger),
		NewOfferPicker(f.offers, &seqRand{values: []int{0}}, logger),
		NewDedupGuard(f.articles, clock, logger),
		f.gen,
		f.articles,
		llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: 2}, logger),
		DefaultDedupWindow,
		logger,
	)
	return f
}

func (f *generateFixture) addOffer(id string, siteIDs ...string) {
	f.offers.offers = append(f.offers.offers, &models.Offer{ID: id, Name: id, SiteIDs: siteIDs, UpdatedAt: f.now})
}

func TestGenerateService_DemoScenario(t *testing.T) {
	f := newGenerateFixture("demo")
	f.addOffer("off1", "demo")
	ctx := context.Background()

	first, err := f.svc.RunDaily(ctx)
	require.NoError(t, err)
	require.Len(t, first.Results, 1)
	created := first.Results[0]
	assert.Equal(t, "demo", created.SiteID)
	assert.Equal(t, models.GenerateStatusCreated, created.Status)
	require.NotNil(t, created.Slug)

	stored, err := f.articles.Get(ctx, "demo", *created.Slug)
	require.NoError(t, err)
	assert.Equal(t, "off1", *stored.OfferID)
	assert.True(t, stored.Published)
	assert.Equal(t, []GenerateRequest{{SiteID: "demo", OfferID: "off1", Publish: true}}, f.gen.generateCalls)

	// Three days later the offer is still covered.
	f.now = f.now.Add(3 * 24 * time.Hour)
	second, err := f.svc.RunDaily(ctx)
	require.NoError(t, err)
	require.Len(t, second.Results, 1)
	skipped := second.Results[0]
	assert.Equal(t, models.GenerateStatusSkipped, skipped.Status)
	assert.Equal(t, models.ReasonRecentDuplicate, skipped.Reason)
	require.NotNil(t, skipped.Slug)
	assert.Equal(t, *created.Slug, *skipped.Slug)
	assert.Len(t, f.gen.generateCalls, 1, "no generation for a covered offer")

	// Seven days after creation the window has passed.
	f.now = stored.CreatedAt.Add(7 * 24 * time.Hour)
	third, err := f.svc.RunDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.GenerateStatusCreated, third.Results[0].Status)
	assert.NotEqual(t, *created.Slug, *third.Results[0].Slug)
}

func TestGenerateService_NoOffer(t *testing.T) {
	f := newGenerateFixture("empty")

	summary, err := f.svc.RunDaily(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, models.GenerateOutcome{
		SiteID: "empty",
		Status: models.GenerateStatusNoOffer,
		Reason: models.ReasonNoOffer,
	}, summary.Results[0])
	assert.Empty(t, f.gen.generateCalls)
}

func TestGenerateService_IsolatesSiteFailures(t *testing.T) {
	f := newGenerateFixture("gamma", "alpha", "beta", "delta")
	f.addOffer("off-a", "alpha")
	f.addOffer("off-b", "beta")
	f.addOffer("off-g", "gamma")

	base := f.gen.generateFunc
	f.gen.generateFunc = func(ctx context.Context, req GenerateRequest) (*models.Article, error) {
		switch req.SiteID {
		case "beta":
			return nil, errors.New("llm unavailable: password=hunter2")
		case "gamma":
			panic("template exploded")
		}
		return base(ctx, req)
	}

	summary, err := f.svc.RunDaily(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Results, 4)

	var ids []string
	for _, r := range summary.Results {
		ids = append(ids, r.SiteID)
	}
	assert.Equal(t, []string{"alpha", "beta", "delta", "gamma"}, ids)

	assert.Equal(t, models.GenerateStatusCreated, summary.Results[0].Status)
	assert.Equal(t, models.GenerateStatusFailed, summary.Results[1].Status)
	assert.Contains(t, summary.Results[1].Error, "llm unavailable")
	assert.NotContains(t, summary.Results[1].Error, "hunter2")
	assert.Nil(t, summary.Results[1].Slug)
	assert.Equal(t, models.GenerateStatusNoOffer, summary.Results[2].Status)
	assert.Equal(t, models.GenerateStatusFailed, summary.Results[3].Status)
	assert.Contains(t, summary.Results[3].Error, "template exploded")

	assert.Equal(t, 1, summary.Count(models.GenerateStatusCreated))
	assert.Equal(t, 2, summary.Count(models.GenerateStatusFailed))
}

func TestGenerateService_CreateFailureIsPerSite(t *testing.T) {
	f := newGenerateFixture("demo")
	f.addOffer("off1", "demo")
	f.articles.createErr = errors.New("connection reset")

	summary, err := f.svc.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.GenerateStatusFailed, summary.Results[0].Status)
	assert.Contains(t, summary.Results[0].Error, "failed to save article")
}

func TestGenerateService_SiteListingFailureAbortsRun(t *testing.T) {
	f := newGenerateFixture()
	f.sites.err = errors.New("connection refused")

	summary, err := f.svc.RunDaily(context.Background())
	assert.ErrorIs(t, err, f.sites.err)
	assert.Nil(t, summary)
}

func TestGenerateService_NoSites(t *testing.T) {
	f := newGenerateFixture()

	summary, err := f.svc.RunDaily(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.Results)
}
