package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/llm"
	"github.com/ekaya-inc/ekaya-content/pkg/logging"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
	"github.com/ekaya-inc/ekaya-content/pkg/repositories"
)

// GenerateService writes one new article per blog-enabled site.
type GenerateService interface {
	// RunDaily returns one outcome per site, sorted by site ID. A failing site
	// is reported in its outcome and never aborts the others; only failing to
	// list the sites is an error.
	RunDaily(ctx context.Context) (*models.GenerateSummary, error)
}

type generateService struct {
	registry    SiteRegistry
	picker      OfferPicker
	dedup       DedupGuard
	generator   ContentGenerator
	articleRepo repositories.ArticleRepository
	pool        *llm.WorkerPool
	dedupWindow time.Duration
	logger      *zap.Logger
}

func NewGenerateService(
	registry SiteRegistry,
	picker OfferPicker,
	dedup DedupGuard,
	generator ContentGenerator,
	articleRepo repositories.ArticleRepository,
	pool *llm.WorkerPool,
	dedupWindow time.Duration,
	logger *zap.Logger,
) GenerateService {
	return &generateService{
		registry:    registry,
		picker:      picker,
		dedup:       dedup,
		generator:   generator,
		articleRepo: articleRepo,
		pool:        pool,
		dedupWindow: dedupWindow,
		logger:      logger.Named("generate-service"),
	}
}

var _ GenerateService = (*generateService)(nil)

func (s *generateService) RunDaily(ctx context.Context) (*models.GenerateSummary, error) {
	siteIDs, err := s.registry.ListBlogEnabledSites(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]llm.WorkItem[models.GenerateOutcome], 0, len(siteIDs))
	for _, siteID := range siteIDs {
		siteID := siteID
		items = append(items, llm.WorkItem[models.GenerateOutcome]{
			ID: siteID,
			Execute: func(ctx context.Context) (models.GenerateOutcome, error) {
				return s.generateForSite(ctx, siteID)
			},
		})
	}

	results := llm.Process(ctx, s.pool, items, func(completed, total int) {
		s.logger.Debug("Generate progress", zap.Int("completed", completed), zap.Int("total", total))
	})

	summary := &models.GenerateSummary{Results: make([]models.GenerateOutcome, 0, len(results))}
	for _, r := range results {
		if r.Err != nil {
			s.logger.Error("Site generation failed",
				zap.String("site_id", r.ID),
				zap.String("error", logging.SanitizeError(r.Err)))
			summary.Results = append(summary.Results, models.GenerateOutcome{
				SiteID: r.ID,
				Status: models.GenerateStatusFailed,
				Error:  logging.SanitizeError(r.Err),
			})
			continue
		}
		summary.Results = append(summary.Results, r.Result)
	}
	sort.SliceStable(summary.Results, func(i, j int) bool {
		return summary.Results[i].SiteID < summary.Results[j].SiteID
	})

	s.logger.Info("Daily generation complete",
		zap.Int("sites", len(siteIDs)),
		zap.Int("created", summary.Count(models.GenerateStatusCreated)),
		zap.Int("skipped", summary.Count(models.GenerateStatusSkipped)),
		zap.Int("no_offer", summary.Count(models.GenerateStatusNoOffer)),
		zap.Int("failed", summary.Count(models.GenerateStatusFailed)))

	return summary, nil
}

func (s *generateService) generateForSite(ctx context.Context, siteID string) (models.GenerateOutcome, error) {
	offerID, ok, err := s.picker.PickOfferForSite(ctx, siteID)
	if err != nil {
		return models.GenerateOutcome{}, err
	}
	if !ok {
		return models.GenerateOutcome{
			SiteID: siteID,
			Status: models.GenerateStatusNoOffer,
			Reason: models.ReasonNoOffer,
		}, nil
	}

	dup, err := s.dedup.RecentlyCovered(ctx, siteID, offerID, s.dedupWindow)
	if err != nil {
		return models.GenerateOutcome{}, err
	}
	if dup.IsDuplicate {
		return models.GenerateOutcome{
			SiteID: siteID,
			Slug:   dup.MatchingSlug,
			Status: models.GenerateStatusSkipped,
			Reason: models.ReasonRecentDuplicate,
		}, nil
	}

	article, err := s.generator.GenerateFromOffer(ctx, GenerateRequest{
		SiteID:  siteID,
		OfferID: offerID,
		Publish: true,
	})
	if err != nil {
		return models.GenerateOutcome{}, err
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		return models.GenerateOutcome{}, fmt.Errorf("failed to save article %s: %w", article.Slug, err)
	}

	s.logger.Info("Article created",
		zap.String("site_id", siteID),
		zap.String("offer_id", offerID),
		zap.String("slug", article.Slug))

	slug := article.Slug
	return models.GenerateOutcome{
		SiteID: siteID,
		Slug:   &slug,
		Status: models.GenerateStatusCreated,
	}, nil
}
