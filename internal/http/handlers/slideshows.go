package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tokolink/internal/domain"
)

type slideshowGenerateRequest struct {
	AudioURL           string  `json:"audio_url"`
	SlideDuration      float64 `json:"slide_duration"`
	TransitionDuration float64 `json:"transition_duration"`
	Transition         string  `json:"transition"`
}

// SlideshowGenerate enqueues a slideshow video job for one store category
// and returns immediately; clients poll SlideshowStatus with the job id.
func (a *App) SlideshowGenerate(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "owner_id")
	categoryID := chi.URLParam(r, "category_id")
	if ownerID == "" || categoryID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "owner_id and category_id required")
		return
	}

	var req slideshowGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	jobID := a.Jobs.Add(ownerID, categoryID, domain.RenderOptions{
		SlideDuration:      req.SlideDuration,
		TransitionDuration: req.TransitionDuration,
		Transition:         domain.TransitionType(req.Transition),
		AudioURL:           req.AudioURL,
	})

	a.json(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": domain.JobStatusPending,
	})
}

// SlideshowStatus returns a snapshot of one job. Pollers must branch on
// status; video_url and error are null until the matching terminal state.
func (a *App) SlideshowStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}

	job, ok := a.Jobs.Get(jobID)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", domain.ErrJobNotFound.Error())
		return
	}

	var videoURL, jobErr any
	if job.VideoURL != "" {
		videoURL = job.VideoURL
	}
	if job.Error != "" {
		jobErr = job.Error
	}

	a.json(w, http.StatusOK, map[string]any{
		"id":         job.ID,
		"status":     job.Status,
		"progress":   job.Progress,
		"video_url":  videoURL,
		"error":      jobErr,
		"transition": job.Options.Transition.DisplayName(),
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	})
}
