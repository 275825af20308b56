package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/jobstatus"
	"github.com/ekaya-inc/ekaya-content/pkg/logging"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
	"github.com/ekaya-inc/ekaya-content/pkg/services"
)

// Jobs bundles the three pipelines the scheduler triggers.
type Jobs struct {
	Generate services.GenerateService
	Analyze  services.AnalyzeService
	Rewrite  services.RewriteService
}

// Runner executes jobs and records each run in the status store.
type Runner struct {
	jobs   Jobs
	store  jobstatus.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewRunner creates a runner. store may be nil, in which case runs are only logged.
func NewRunner(jobs Jobs, store jobstatus.Store, logger *zap.Logger) *Runner {
	return &Runner{
		jobs:   jobs,
		store:  store,
		now:    time.Now,
		logger: logger.Named("job-runner"),
	}
}

// Run executes job once. The returned run is always non-nil for a known job,
// even when the job itself fails.
func (r *Runner) Run(ctx context.Context, job models.JobName) (*models.JobRun, error) {
	run := &models.JobRun{Job: job, StartedAt: r.now()}
	r.logger.Info("Job started", zap.String("job", string(job)))

	summary, err := r.execute(ctx, job)
	run.FinishedAt = r.now()
	run.Succeeded = err == nil
	if err != nil {
		run.Error = logging.SanitizeError(err)
	} else {
		run.Summary = summary
	}

	if r.store != nil {
		if saveErr := r.store.Save(ctx, run); saveErr != nil {
			r.logger.Warn("Failed to record job run",
				zap.String("job", string(job)),
				zap.String("error", logging.SanitizeError(saveErr)))
		}
	}

	if err != nil {
		return run, fmt.Errorf("job %s failed: %w", job, err)
	}

	r.logger.Info("Job finished",
		zap.String("job", string(job)),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
		zap.Any("summary", summary))
	return run, nil
}

func (r *Runner) execute(ctx context.Context, job models.JobName) (any, error) {
	switch job {
	case models.JobGenerateDaily:
		return r.jobs.Generate.RunDaily(ctx)
	case models.JobAnalyzeNightly:
		return r.jobs.Analyze.RunNightly(ctx)
	case models.JobRewriteNightly:
		return r.jobs.Rewrite.RunNightly(ctx)
	default:
		_, err := ParseJob(string(job))
		return nil, err
	}
}

// HandleTask is the asynq handler for all content tasks. The run record is
// written as the task result so it shows up in asynq tooling as well.
func (r *Runner) HandleTask(ctx context.Context, task *asynq.Task) error {
	job, err := ParseJob(task.Type())
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	run, runErr := r.Run(ctx, job)

	if w := task.ResultWriter(); w != nil {
		raw, err := json.Marshal(run)
		if err == nil {
			_, err = w.Write(raw)
		}
		if err != nil {
			r.logger.Warn("Failed to write task result", zap.String("job", string(job)), zap.Error(err))
		}
	}

	return runErr
}
