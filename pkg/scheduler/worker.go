package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/config"
	"github.com/ekaya-inc/ekaya-content/pkg/logging"
)

const (
	// uniqueTTL stops a second scheduler instance from enqueuing the same occurrence.
	uniqueTTL = time.Hour
	// resultRetention keeps finished tasks and their results inspectable for a day.
	resultRetention = 24 * time.Hour
	shutdownTimeout = 30 * time.Second
)

// RedisConnOpt converts the Redis config for asynq.
func RedisConnOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// TaskOptions are applied to every scheduled task. A failed run is not retried;
// the next scheduled occurrence is the retry.
func TaskOptions(cfg *config.SchedulerConfig) []asynq.Option {
	return []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Timeout(cfg.JobTimeout()),
		asynq.Unique(uniqueTTL),
		asynq.Retention(resultRetention),
	}
}

// NewScheduler registers the three cron entries. Call Start on the result.
func NewScheduler(redisOpt asynq.RedisConnOpt, cfg *config.Config, logger *zap.Logger) (*asynq.Scheduler, error) {
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}
	logger = logger.Named("scheduler")

	s := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: loc,
		Logger:   newAsynqLogger(logger),
		LogLevel: asynqLogLevel(cfg.LogLevel),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Warn("Failed to enqueue scheduled job", zap.Error(err))
				return
			}
			logger.Info("Scheduled job enqueued", zap.String("task", info.Type), zap.String("task_id", info.ID))
		},
	})

	for _, entry := range Entries(&cfg.Scheduler) {
		task := asynq.NewTask(TaskType(entry.Job), nil, TaskOptions(&cfg.Scheduler)...)
		entryID, err := s.Register(entry.Cron, task)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s schedule %q: %w", entry.Job, entry.Cron, err)
		}
		logger.Info("Registered job schedule",
			zap.String("job", string(entry.Job)),
			zap.String("cron", entry.Cron),
			zap.String("timezone", loc.String()),
			zap.String("entry_id", entryID))
	}

	return s, nil
}

// NewServer creates the task server and the mux that dispatches to runner.
// Call Start(mux) on the server.
func NewServer(redisOpt asynq.RedisConnOpt, cfg *config.Config, runner *Runner, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	logger = logger.Named("worker")

	concurrency := cfg.Scheduler.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     concurrency,
		ShutdownTimeout: shutdownTimeout,
		ErrorHandler:    asynq.ErrorHandlerFunc(errorHandler(logger)),
		Logger:          newAsynqLogger(logger),
		LogLevel:        asynqLogLevel(cfg.LogLevel),
	})

	mux := asynq.NewServeMux()
	for _, job := range []string{TaskGenerateDaily, TaskAnalyzeNightly, TaskRewriteNightly} {
		mux.HandleFunc(job, runner.HandleTask)
	}

	return srv, mux
}

func errorHandler(logger *zap.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		taskID, _ := asynq.GetTaskID(ctx)
		logger.Error("Job failed",
			zap.String("task", task.Type()),
			zap.String("task_id", taskID),
			zap.String("error", logging.SanitizeError(err)))
	}
}
