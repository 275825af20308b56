// Package jobstatus keeps the record of the last run of each scheduled job in Redis.
package jobstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

// DefaultTTL keeps a record around long enough to survive a missed night.
const DefaultTTL = 7 * 24 * time.Hour

// Key returns the Redis key holding the last run of job.
func Key(job models.JobName) string {
	return "content:jobs:" + string(job) + ":last"
}

// Store persists the last run of each job. Older runs are overwritten.
type Store interface {
	Save(ctx context.Context, run *models.JobRun) error
	// Last returns apperrors.ErrNotFound when the job has not run (or the record expired).
	Last(ctx context.Context, job models.JobName) (*models.JobRun, error)
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore stores runs as JSON strings. A ttl <= 0 means DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

var _ Store = (*redisStore)(nil)

func (s *redisStore) Save(ctx context.Context, run *models.JobRun) error {
	raw, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal job run: %w", err)
	}
	if err := s.client.Set(ctx, Key(run.Job), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save job run for %s: %w", run.Job, err)
	}
	return nil
}

func (s *redisStore) Last(ctx context.Context, job models.JobName) (*models.JobRun, error) {
	raw, err := s.client.Get(ctx, Key(job)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read job run for %s: %w", job, err)
	}

	var run models.JobRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job run for %s: %w", job, err)
	}
	return &run, nil
}
