package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/jobstatus"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
)

// JobsHandler exposes the last recorded run of each scheduled job.
type JobsHandler struct {
	store  jobstatus.Store
	logger *zap.Logger
}

func NewJobsHandler(store jobstatus.Store, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{store: store, logger: logger.Named("jobs-handler")}
}

func (h *JobsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/jobs/{job}/last", h.Last)
}

// Last handles GET /api/jobs/{job}/last.
func (h *JobsHandler) Last(w http.ResponseWriter, r *http.Request) {
	job, ok := parseJobName(r.PathValue("job"))
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "unknown_job", "Unknown job")
		return
	}

	run, err := h.store.Last(r.Context(), job)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "not_found", "Job has no recorded run")
			return
		}
		h.logger.Error("Failed to read job run", zap.String("job", string(job)), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "Failed to read job run")
		return
	}

	if err := WriteJSON(w, http.StatusOK, run); err != nil {
		h.logger.Error("Failed to encode job run", zap.Error(err))
	}
}

func parseJobName(s string) (models.JobName, bool) {
	for _, job := range models.AllJobs {
		if string(job) == s {
			return job, true
		}
	}
	return "", false
}
