package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/history"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
	"github.com/ekaya-inc/ekaya-content/pkg/repositories"
)

// AnalyzeService scores the articles created today and records the result in their history.
type AnalyzeService interface {
	RunNightly(ctx context.Context) (*models.AnalyzeSummary, error)
}

type analyzeService struct {
	articleRepo repositories.ArticleRepository
	scorer      QualityScorer
	location    *time.Location
	historyCap  int
	now         Clock
	logger      *zap.Logger
}

// NewAnalyzeService creates the nightly analyzer. "Today" starts at midnight in location.
func NewAnalyzeService(
	articleRepo repositories.ArticleRepository,
	scorer QualityScorer,
	location *time.Location,
	historyCap int,
	now Clock,
	logger *zap.Logger,
) AnalyzeService {
	if location == nil {
		location = time.UTC
	}
	return &analyzeService{
		articleRepo: articleRepo,
		scorer:      scorer,
		location:    location,
		historyCap:  historyCap,
		now:         now.orNow(),
		logger:      logger.Named("analyze-service"),
	}
}

var _ AnalyzeService = (*analyzeService)(nil)

func (s *analyzeService) RunNightly(ctx context.Context) (*models.AnalyzeSummary, error) {
	since := startOfDay(s.now(), s.location)

	articles, err := s.articleRepo.ListCreatedSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles created since %s: %w", since.Format(time.RFC3339), err)
	}

	summary := &models.AnalyzeSummary{}
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.analyze(ctx, a); err != nil {
			return summary, err
		}
		summary.Analyzed++
	}

	s.logger.Info("Nightly analysis complete",
		zap.Time("since", since),
		zap.Int("analyzed", summary.Analyzed))
	return summary, nil
}

func (s *analyzeService) analyze(ctx context.Context, a *models.Article) error {
	result, err := s.scorer.Score(a.ScoringText())
	if err != nil {
		return fmt.Errorf("failed to score article %s/%s: %w", a.SiteID, a.Slug, err)
	}

	at := s.now()
	event, err := models.NewScoreEvent(result.Total, result.Checks, SuggestionsFromChecks(result.Checks),
		models.ScoreSourceAutoNight, at)
	if err != nil {
		return err
	}

	err = s.articleRepo.UpdateAnalysis(ctx, a.SiteID, a.Slug, models.AnalysisUpdate{
		AnalysisHistory: history.AppendBounded(a.AnalysisHistory, event, s.historyCap),
		LatestScore:     event.Score,
		AnalyzedAt:      at,
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis for %s/%s: %w", a.SiteID, a.Slug, err)
	}

	s.logger.Debug("Analyzed article",
		zap.String("site_id", a.SiteID),
		zap.String("slug", a.Slug),
		zap.Float64("score", event.Score),
		zap.Int("suggestions", len(event.Suggestions)))
	return nil
}

// startOfDay returns midnight of t's calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
