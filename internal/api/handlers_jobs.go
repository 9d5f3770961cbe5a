package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dgallion1/jobfmt/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

const maxBatchURLs = 50

type jobRequest struct {
	URL string `json:"url"`
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	postingURL, err := validateURL(req.URL)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(postingURL, "")
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"url":      job.URL,
		"status":   pipeline.StatusQueued,
		"poll_url": pollURL(job.ID),
	})
}

func (s *Server) handleBatchJobs(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1024*1024)

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.URLs) == 0 {
		jsonError(w, "at least one url is required", http.StatusBadRequest)
		return
	}
	if len(req.URLs) > maxBatchURLs {
		jsonError(w, fmt.Sprintf("at most %d urls per batch", maxBatchURLs), http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(req.URLs))
	for _, raw := range req.URLs {
		postingURL, err := validateURL(raw)
		if err != nil {
			results = append(results, map[string]any{
				"url":   raw,
				"error": err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(postingURL, "")
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"url":   postingURL,
				"error": err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"url":      postingURL,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": pollURL(job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("url must be an absolute http(s) url: %s", raw)
	}
	return u.String(), nil
}

func pollURL(jobID string) string {
	return fmt.Sprintf("/api/jobs/%s/status", jobID)
}
