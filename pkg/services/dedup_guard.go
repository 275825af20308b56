package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/repositories"
)

const (
	// DefaultDedupWindow is how long an offer stays covered after an article is written about it.
	DefaultDedupWindow = 7 * 24 * time.Hour

	// dedupScanLimit bounds how many prior articles for a (site, offer) pair are inspected.
	dedupScanLimit = 5
)

// DedupResult reports whether an offer was written about recently.
type DedupResult struct {
	IsDuplicate bool
	// MatchingSlug is the first article returned for the pair, set only when IsDuplicate.
	MatchingSlug *string
}

// DedupGuard prevents writing about the same offer for the same site twice within a window.
type DedupGuard interface {
	RecentlyCovered(ctx context.Context, siteID, offerID string, window time.Duration) (DedupResult, error)
}

type dedupGuard struct {
	articleRepo repositories.ArticleRepository
	now         Clock
	logger      *zap.Logger
}

func NewDedupGuard(articleRepo repositories.ArticleRepository, now Clock, logger *zap.Logger) DedupGuard {
	return &dedupGuard{
		articleRepo: articleRepo,
		now:         now.orNow(),
		logger:      logger.Named("dedup-guard"),
	}
}

var _ DedupGuard = (*dedupGuard)(nil)

// RecentlyCovered looks at the newest few articles for the pair, so the first
// in-window article is the most recent one. An article created exactly at
// now-window is outside the window.
func (g *dedupGuard) RecentlyCovered(ctx context.Context, siteID, offerID string, window time.Duration) (DedupResult, error) {
	if window <= 0 {
		window = DefaultDedupWindow
	}

	articles, err := g.articleRepo.ListByOfferAndSite(ctx, offerID, siteID, dedupScanLimit)
	if err != nil {
		return DedupResult{}, fmt.Errorf("failed to list articles for offer %s: %w", offerID, err)
	}

	cutoff := g.now().Add(-window)
	for _, a := range articles {
		if a.CreatedAt.After(cutoff) {
			slug := a.Slug
			g.logger.Debug("Offer covered recently",
				zap.String("site_id", siteID),
				zap.String("offer_id", offerID),
				zap.String("recent_slug", slug))
			return DedupResult{IsDuplicate: true, MatchingSlug: &slug}, nil
		}
	}

	return DedupResult{}, nil
}
