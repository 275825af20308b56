package services

import (
	"github.com/ekaya-inc/ekaya-content/pkg/config"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

// WeaknessThresholds decide when an article is a rewrite candidate.
type WeaknessThresholds struct {
	MinViews   int64
	MaxCTR     float64
	MinAvgTime float64 // seconds
	MinScore   float64
}

// DefaultWeaknessThresholds flags articles with at least 20 views and a CTR of
// 2% or less or an average read time of 30s or less, or a quality score below 65.
func DefaultWeaknessThresholds() WeaknessThresholds {
	return WeaknessThresholds{
		MinViews:   20,
		MaxCTR:     0.02,
		MinAvgTime: 30,
		MinScore:   65,
	}
}

// ThresholdsFromConfig reads the rewrite section of the config. Fields that are
// unset (zero or negative) keep their DefaultWeaknessThresholds value.
func ThresholdsFromConfig(cfg *config.RewriteConfig) WeaknessThresholds {
	t := DefaultWeaknessThresholds()
	if cfg == nil {
		return t
	}

	if cfg.MinViews > 0 {
		t.MinViews = cfg.MinViews
	}
	if cfg.MaxCTR > 0 {
		t.MaxCTR = cfg.MaxCTR
	}
	if cfg.MinAvgTime > 0 {
		t.MinAvgTime = cfg.MinAvgTime
	}
	if cfg.MinScore > 0 {
		t.MinScore = cfg.MinScore
	}
	return t
}

// WeaknessVerdict explains why an article was or was not judged weak.
type WeaknessVerdict struct {
	Weak       bool
	ByBehavior bool
	ByScore    bool
	CTR        float64
}

// IsWeak judges an article weak when it has enough traffic but converts or holds
// readers poorly, or when it has been scored and the score is low.
// A latest score of 0 means "never scored" and never counts as weak.
func IsWeak(a *models.Article, t WeaknessThresholds) WeaknessVerdict {
	ctr := a.Metrics.CTR()
	byBehavior := a.Metrics.Views >= t.MinViews &&
		(ctr <= t.MaxCTR || a.Metrics.AvgReadTimeSec <= t.MinAvgTime)
	byScore := a.LatestScore > 0 && a.LatestScore < t.MinScore

	return WeaknessVerdict{
		Weak:       byBehavior || byScore,
		ByBehavior: byBehavior,
		ByScore:    byScore,
		CTR:        ctr,
	}
}

// WeaknessDetector picks the rewrite candidate from a scan.
type WeaknessDetector struct {
	thresholds WeaknessThresholds
}

func NewWeaknessDetector(thresholds WeaknessThresholds) *WeaknessDetector {
	return &WeaknessDetector{thresholds: thresholds}
}

// Thresholds returns the thresholds the detector applies.
func (d *WeaknessDetector) Thresholds() WeaknessThresholds {
	return d.thresholds
}

// Detect returns the first weak article in scan order, or nil.
// It does not rank candidates.
func (d *WeaknessDetector) Detect(articles []*models.Article) *models.Article {
	for _, a := range articles {
		if IsWeak(a, d.thresholds).Weak {
			return a
		}
	}
	return nil
}
