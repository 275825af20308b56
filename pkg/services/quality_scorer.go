package services

import "github.com/ekaya-inc/ekaya-content/pkg/seo"

// QualityScorer scores article markdown. Implementations must be deterministic.
type QualityScorer interface {
	Score(markdown string) (seo.Result, error)
}

var _ QualityScorer = (*seo.Analyzer)(nil)
