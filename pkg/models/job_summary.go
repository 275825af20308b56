package models

import "time"

// JobName identifies one of the scheduled content jobs.
type JobName string

const (
	JobGenerateDaily  JobName = "generate-daily"
	JobAnalyzeNightly JobName = "analyze-nightly"
	JobRewriteNightly JobName = "rewrite-nightly"
)

// AllJobs lists the scheduled jobs in trigger order.
var AllJobs = []JobName{JobGenerateDaily, JobAnalyzeNightly, JobRewriteNightly}

// GenerateStatus is the per-site outcome of the daily generate job.
type GenerateStatus string

const (
	GenerateStatusCreated GenerateStatus = "created"
	GenerateStatusSkipped GenerateStatus = "skipped"
	GenerateStatusNoOffer GenerateStatus = "no-offer"
	GenerateStatusFailed  GenerateStatus = "failed"
)

// Reasons reported by the jobs for non-error, no-data outcomes.
const (
	ReasonRecentDuplicate = "recent-duplicate"
	ReasonNoOffer         = "no-offer"
	ReasonNoCandidate     = "no-candidate"
)

// GenerateOutcome records what happened for one site during a generate run.
// Slug is the new article for created outcomes, the existing article (if any)
// for skipped outcomes, and nil otherwise.
type GenerateOutcome struct {
	SiteID string         `json:"site_id"`
	Slug   *string        `json:"slug"`
	Status GenerateStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// GenerateSummary is returned by the daily generate job: one outcome per site.
type GenerateSummary struct {
	Results []GenerateOutcome `json:"results"`
}

// Count returns how many outcomes have the given status.
func (s *GenerateSummary) Count(status GenerateStatus) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// AnalyzeSummary is returned by the nightly analyze job.
type AnalyzeSummary struct {
	Analyzed int `json:"analyzed"`
}

// RewriteSummary is returned by the nightly rewrite job.
type RewriteSummary struct {
	Rewritten  int     `json:"rewritten"`
	Reason     string  `json:"reason,omitempty"`
	Slug       string  `json:"slug,omitempty"`
	AfterScore float64 `json:"after_score,omitempty"`
}

// JobRun is the stored record of the last completed run of a job.
type JobRun struct {
	Job        JobName   `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Succeeded  bool      `json:"succeeded"`
	Error      string    `json:"error,omitempty"`
	Summary    any       `json:"summary,omitempty"`
}
