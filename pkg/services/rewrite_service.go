package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/history"
	"github.com/ekaya-inc/ekaya-content/pkg/logging"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
	"github.com/ekaya-inc/ekaya-content/pkg/prompts"
	"github.com/ekaya-inc/ekaya-content/pkg/repositories"
)

// RewriteSettings are the fixed inputs of the nightly rewrite.
type RewriteSettings struct {
	SiteName     string
	Persona      string
	Pain         string
	TemplateName string
	// Window is how far back candidates are scanned. Zero means 7 days.
	Window time.Duration
	// ScanLimit bounds the candidate scan. Zero means 200.
	ScanLimit  int
	HistoryCap int
}

// RewriteService regenerates the first weak article found among recent ones.
// At most one article is rewritten per run.
type RewriteService interface {
	RunNightly(ctx context.Context) (*models.RewriteSummary, error)
}

type rewriteService struct {
	articleRepo repositories.ArticleRepository
	generator   ContentGenerator
	scorer      QualityScorer
	detector    *WeaknessDetector
	settings    RewriteSettings
	now         Clock
	logger      *zap.Logger
}

func NewRewriteService(
	articleRepo repositories.ArticleRepository,
	generator ContentGenerator,
	scorer QualityScorer,
	detector *WeaknessDetector,
	settings RewriteSettings,
	now Clock,
	logger *zap.Logger,
) RewriteService {
	if settings.Window <= 0 {
		settings.Window = 7 * 24 * time.Hour
	}
	if settings.ScanLimit <= 0 {
		settings.ScanLimit = 200
	}
	return &rewriteService{
		articleRepo: articleRepo,
		generator:   generator,
		scorer:      scorer,
		detector:    detector,
		settings:    settings,
		now:         now.orNow(),
		logger:      logger.Named("rewrite-service"),
	}
}

var _ RewriteService = (*rewriteService)(nil)

func (s *rewriteService) RunNightly(ctx context.Context) (*models.RewriteSummary, error) {
	now := s.now()
	articles, err := s.articleRepo.ListCreatedBetween(ctx, now.Add(-s.settings.Window), now, s.settings.ScanLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewrite candidates: %w", err)
	}

	candidate := s.detector.Detect(articles)
	if candidate == nil {
		s.logger.Info("No rewrite candidate", zap.Int("scanned", len(articles)))
		return &models.RewriteSummary{Rewritten: 0, Reason: models.ReasonNoCandidate}, nil
	}

	verdict := IsWeak(candidate, s.detector.Thresholds())
	s.logger.Info("Rewriting weak article",
		zap.String("site_id", candidate.SiteID),
		zap.String("slug", candidate.Slug),
		zap.Bool("weak_by_behavior", verdict.ByBehavior),
		zap.Bool("weak_by_score", verdict.ByScore),
		zap.Float64("ctr", verdict.CTR),
		zap.Float64("latest_score", candidate.LatestScore))

	offerID := ""
	if candidate.OfferID != nil {
		offerID = *candidate.OfferID
	}

	out, err := s.generator.Rewrite(ctx, RewriteRequest{
		SiteID:       candidate.SiteID,
		SiteName:     s.settings.SiteName,
		ProductName:  candidate.Title,
		OfferID:      offerID,
		Tags:         candidate.Tags,
		Persona:      s.settings.Persona,
		Pain:         s.settings.Pain,
		TemplateName: s.settings.TemplateName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite %s/%s: %w", candidate.SiteID, candidate.Slug, err)
	}

	body := prompts.StripPlaceholders(out.Body)
	if body == "" {
		s.logger.Warn("Rewrite produced no usable body, keeping original",
			zap.String("slug", candidate.Slug))
		body = candidate.Body
	}
	title := out.Title
	if title == "" {
		title = candidate.Title
	}
	tags := out.Tags
	if len(tags) == 0 {
		tags = candidate.Tags
	}

	result, err := s.scorer.Score(models.ScoringText(title, body))
	if err != nil {
		return nil, fmt.Errorf("failed to score rewrite of %s/%s: %w", candidate.SiteID, candidate.Slug, err)
	}

	at := s.now()
	event, err := models.NewScoreEvent(result.Total, result.Checks, SuggestionsFromChecks(result.Checks),
		models.ScoreSourceAutoRewrite, at)
	if err != nil {
		return nil, err
	}

	err = s.articleRepo.ApplyRewrite(ctx, candidate.SiteID, candidate.Slug, models.RewriteUpdate{
		Title:           title,
		Body:            body,
		Excerpt:         out.Excerpt,
		Tags:            tags,
		AnalysisHistory: history.AppendBounded(candidate.AnalysisHistory, event, s.settings.HistoryCap),
		LatestScore:     event.Score,
		RewrittenAt:     at,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save rewrite of %s/%s: %w", candidate.SiteID, candidate.Slug, err)
	}

	s.logger.Info("Rewrite saved",
		zap.String("slug", candidate.Slug),
		zap.String("title", logging.TruncateString(title, 40)),
		zap.Float64("before_score", candidate.LatestScore),
		zap.Float64("after_score", event.Score))

	return &models.RewriteSummary{
		Rewritten:  1,
		Slug:       candidate.Slug,
		AfterScore: event.Score,
	}, nil
}
