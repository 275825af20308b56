package models

import (
	"time"
)

// ArticleMetrics holds behavioral counters maintained by the click-tracking ingester.
// The content engine only reads them.
type ArticleMetrics struct {
	Views          int64   `json:"views"`
	OutboundClicks int64   `json:"outbound_clicks"`
	AvgReadTimeSec float64 `json:"avg_read_time_sec"`
}

// CTR returns outbound clicks per view, or 0 when the article has no views.
func (m ArticleMetrics) CTR() float64 {
	if m.Views <= 0 {
		return 0
	}
	return float64(m.OutboundClicks) / float64(m.Views)
}

// Article is a generated or rewritten blog post tied to a site and optionally an offer.
// The slug is unique per site.
type Article struct {
	SiteID    string   `json:"site_id"`
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Excerpt   string   `json:"excerpt"`
	Tags      []string `json:"tags"`
	OfferID   *string  `json:"offer_id,omitempty"`
	Published bool     `json:"published"`

	// LatestScore mirrors the score of the last AnalysisHistory entry.
	LatestScore     float64        `json:"latest_score"`
	AnalysisHistory []ScoreEvent   `json:"analysis_history"`
	Metrics         ArticleMetrics `json:"metrics"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastAnalyzedAt *time.Time `json:"last_analyzed_at,omitempty"`
}

// ScoringText returns the markdown handed to the quality scorer:
// a level-1 heading with the title followed by the body.
func (a *Article) ScoringText() string {
	return ScoringText(a.Title, a.Body)
}

// ScoringText builds the scorer input for an arbitrary title and body.
func ScoringText(title, body string) string {
	return "# " + title + "\n\n" + body
}

// AnalysisUpdate is the merge-write applied by the nightly analyze job.
// Only the named columns are overwritten.
type AnalysisUpdate struct {
	AnalysisHistory []ScoreEvent
	LatestScore     float64
	AnalyzedAt      time.Time
}

// RewriteUpdate is the merge-write applied by the nightly rewrite job.
type RewriteUpdate struct {
	Title           string
	Body            string
	Excerpt         string
	Tags            []string
	AnalysisHistory []ScoreEvent
	LatestScore     float64
	RewrittenAt     time.Time
}
