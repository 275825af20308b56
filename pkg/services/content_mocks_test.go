package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
	"github.com/ekaya-inc/ekaya-content/pkg/repositories"
	"github.com/ekaya-inc/ekaya-content/pkg/seo"
)

// mockArticleRepository is an in-memory ArticleRepository.
// List calls return articles in insertion order, which tests use as scan order.
type mockArticleRepository struct {
	mu       sync.Mutex
	articles []*models.Article

	createErr      error
	listErr        error
	updateErr      error
	analysisWrites int
	rewriteWrites  int

	lastOfferLimit  int
	lastSince       time.Time
	lastBetweenFrom time.Time
	lastBetweenTo   time.Time
	lastScanLimit   int
}

var _ repositories.ArticleRepository = (*mockArticleRepository)(nil)

func newMockArticleRepository(articles ...*models.Article) *mockArticleRepository {
	return &mockArticleRepository{articles: articles}
}

func (m *mockArticleRepository) find(siteID, slug string) *models.Article {
	for _, a := range m.articles {
		if a.SiteID == siteID && a.Slug == slug {
			return a
		}
	}
	return nil
}

func (m *mockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.find(article.SiteID, article.Slug) != nil {
		return apperrors.ErrConflict
	}
	copied := *article
	m.articles = append(m.articles, &copied)
	return nil
}

func (m *mockArticleRepository) Get(ctx context.Context, siteID, slug string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.find(siteID, slug)
	if a == nil {
		return nil, apperrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockArticleRepository) ListByOfferAndSite(ctx context.Context, offerID, siteID string, limit int) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastOfferLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Article
	for _, a := range m.articles {
		if a.SiteID == siteID && a.OfferID != nil && *a.OfferID == offerID {
			out = append(out, a)
		}
	}
	// same ordering as the SQL: created_at DESC, slug ASC
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Slug < out[j].Slug
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockArticleRepository) ListCreatedSince(ctx context.Context, since time.Time) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSince = since
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Article
	for _, a := range m.articles {
		if !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockArticleRepository) ListCreatedBetween(ctx context.Context, from, to time.Time, limit int) ([]*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastBetweenFrom, m.lastBetweenTo, m.lastScanLimit = from, to, limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Article
	for _, a := range m.articles {
		if !a.CreatedAt.Before(from) && !a.CreatedAt.After(to) {
			out = append(out, a)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockArticleRepository) UpdateAnalysis(ctx context.Context, siteID, slug string, update models.AnalysisUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	a := m.find(siteID, slug)
	if a == nil {
		return apperrors.ErrNotFound
	}
	a.AnalysisHistory = update.AnalysisHistory
	a.LatestScore = update.LatestScore
	at := update.AnalyzedAt
	a.LastAnalyzedAt = &at
	a.UpdatedAt = at
	m.analysisWrites++
	return nil
}

func (m *mockArticleRepository) ApplyRewrite(ctx context.Context, siteID, slug string, update models.RewriteUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	a := m.find(siteID, slug)
	if a == nil {
		return apperrors.ErrNotFound
	}
	a.Title = update.Title
	a.Body = update.Body
	a.Excerpt = update.Excerpt
	a.Tags = update.Tags
	a.AnalysisHistory = update.AnalysisHistory
	a.LatestScore = update.LatestScore
	at := update.RewrittenAt
	a.LastAnalyzedAt = &at
	a.UpdatedAt = at
	m.rewriteWrites++
	return nil
}

func (m *mockArticleRepository) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analysisWrites + m.rewriteWrites
}

type mockOfferRepository struct {
	mu        sync.Mutex
	offers    []*models.Offer
	err       error
	lastLimit int
}

var _ repositories.OfferRepository = (*mockOfferRepository)(nil)

func (m *mockOfferRepository) ListEligible(ctx context.Context, siteID string, limit int) ([]*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.Offer
	for _, o := range m.offers {
		if o.Archived {
			continue
		}
		for _, s := range o.SiteIDs {
			if s == siteID {
				out = append(out, o)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOfferRepository) Get(ctx context.Context, id string) (*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.offers {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type mockSiteRepository struct {
	sites []*models.Site
	err   error
}

var _ repositories.SiteRepository = (*mockSiteRepository)(nil)

func (m *mockSiteRepository) ListBlogEnabled(ctx context.Context) ([]*models.Site, error) {
	return m.sites, m.err
}

// seqRand returns values in order, cycling, and records the n it was asked for.
type seqRand struct {
	values []int
	calls  int
	lastN  int
}

func (r *seqRand) Intn(n int) int {
	r.lastN = n
	v := r.values[r.calls%len(r.values)]
	r.calls++
	return v
}

type mockContentGenerator struct {
	mu            sync.Mutex
	generateFunc  func(ctx context.Context, req GenerateRequest) (*models.Article, error)
	rewriteFunc   func(ctx context.Context, req RewriteRequest) (*GeneratedContent, error)
	generateCalls []GenerateRequest
	rewriteCalls  []RewriteRequest
}

var _ ContentGenerator = (*mockContentGenerator)(nil)

func (m *mockContentGenerator) GenerateFromOffer(ctx context.Context, req GenerateRequest) (*models.Article, error) {
	m.mu.Lock()
	m.generateCalls = append(m.generateCalls, req)
	m.mu.Unlock()
	return m.generateFunc(ctx, req)
}

func (m *mockContentGenerator) Rewrite(ctx context.Context, req RewriteRequest) (*GeneratedContent, error) {
	m.mu.Lock()
	m.rewriteCalls = append(m.rewriteCalls, req)
	m.mu.Unlock()
	return m.rewriteFunc(ctx, req)
}

// recordingScorer wraps the real analyzer and remembers its inputs.
type recordingScorer struct {
	analyzer *seo.Analyzer
	err      error
	inputs   []string
}

func newRecordingScorer() *recordingScorer {
	return &recordingScorer{analyzer: seo.NewAnalyzer()}
}

func (s *recordingScorer) Score(markdown string) (seo.Result, error) {
	s.inputs = append(s.inputs, markdown)
	if s.err != nil {
		return seo.Result{}, s.err
	}
	return s.analyzer.Score(markdown)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func strPtr(s string) *string {
	return &s
}
