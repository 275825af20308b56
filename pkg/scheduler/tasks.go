// Package scheduler triggers the content jobs on a cron schedule through asynq
// and records the outcome of every run.
package scheduler

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/config"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

const taskPrefix = "content:"

// Task types, one per job.
const (
	TaskGenerateDaily  = taskPrefix + string(models.JobGenerateDaily)
	TaskAnalyzeNightly = taskPrefix + string(models.JobAnalyzeNightly)
	TaskRewriteNightly = taskPrefix + string(models.JobRewriteNightly)
)

// TaskType returns the asynq task type for job.
func TaskType(job models.JobName) string {
	return taskPrefix + string(job)
}

// ParseJob maps a job name or task type back to a known job.
func ParseJob(s string) (models.JobName, error) {
	name := models.JobName(strings.TrimPrefix(s, taskPrefix))
	for _, job := range models.AllJobs {
		if job == name {
			return job, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownJob, s)
}

// Entry is one cron registration.
type Entry struct {
	Job  models.JobName
	Cron string
}

// Entries returns the schedule in trigger order. Cron specs are evaluated in the scheduler's timezone.
func Entries(cfg *config.SchedulerConfig) []Entry {
	return []Entry{
		{Job: models.JobGenerateDaily, Cron: cfg.GenerateCron},
		{Job: models.JobAnalyzeNightly, Cron: cfg.AnalyzeCron},
		{Job: models.JobRewriteNightly, Cron: cfg.RewriteCron},
	}
}
