package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/repositories"
)

// offerCandidateLimit is how many of the most recently updated offers are eligible for a pick.
const offerCandidateLimit = 20

// RandSource supplies the uniform pick among candidate offers.
// *math/rand.Rand satisfies it.
type RandSource interface {
	Intn(n int) int
}

// OfferPicker chooses the offer a site's next article is written about.
type OfferPicker interface {
	// PickOfferForSite returns ("", false, nil) when the site has no eligible offer.
	PickOfferForSite(ctx context.Context, siteID string) (string, bool, error)
}

type offerPicker struct {
	offerRepo repositories.OfferRepository
	logger    *zap.Logger

	// generate runs sites in parallel and math/rand sources are not goroutine-safe
	randMu sync.Mutex
	rnd    RandSource
}

func NewOfferPicker(offerRepo repositories.OfferRepository, rnd RandSource, logger *zap.Logger) OfferPicker {
	return &offerPicker{
		offerRepo: offerRepo,
		rnd:       rnd,
		logger:    logger.Named("offer-picker"),
	}
}

var _ OfferPicker = (*offerPicker)(nil)

func (p *offerPicker) PickOfferForSite(ctx context.Context, siteID string) (string, bool, error) {
	offers, err := p.offerRepo.ListEligible(ctx, siteID, offerCandidateLimit)
	if err != nil {
		return "", false, fmt.Errorf("failed to list offers for site %s: %w", siteID, err)
	}
	if len(offers) == 0 {
		return "", false, nil
	}

	p.randMu.Lock()
	idx := p.rnd.Intn(len(offers))
	p.randMu.Unlock()
	if idx < 0 || idx >= len(offers) {
		return "", false, fmt.Errorf("random source returned index %d for %d offers", idx, len(offers))
	}

	p.logger.Debug("Picked offer",
		zap.String("site_id", siteID),
		zap.String("offer_id", offers[idx].ID),
		zap.Int("candidates", len(offers)))
	return offers[idx].ID, true, nil
}
