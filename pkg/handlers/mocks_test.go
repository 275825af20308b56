package handlers

import (
	"context"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/jobstatus"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

type mockJobStore struct {
	runs    map[models.JobName]*models.JobRun
	lastErr error
}

var _ jobstatus.Store = (*mockJobStore)(nil)

func (m *mockJobStore) Save(ctx context.Context, run *models.JobRun) error {
	if m.runs == nil {
		m.runs = make(map[models.JobName]*models.JobRun)
	}
	m.runs[run.Job] = run
	return nil
}

func (m *mockJobStore) Last(ctx context.Context, job models.JobName) (*models.JobRun, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	run, ok := m.runs[job]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return run, nil
}
