package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/jobfmt/internal/pipeline"
)

type pendingPage struct {
	PageID string `json:"page_id"`
	URL    string `json:"url"`
	JobURL string `json:"job_url"`
}

// handleListPending lists job database rows not yet processed.
func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	pages, err := s.orchestrator.PendingPages(r.Context())
	if errors.Is(err, pipeline.ErrNoStore) {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		jsonError(w, "failed to list pending pages: "+err.Error(), http.StatusBadGateway)
		return
	}

	out := make([]pendingPage, 0, len(pages))
	for _, p := range pages {
		out = append(out, pendingPage{PageID: p.ID, URL: p.URL, JobURL: p.JobURL()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": out})
}

// handlePoll queues every pending row now instead of waiting for the poller.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	n, err := s.orchestrator.PollOnce(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrNoStore):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, pipeline.ErrStopped):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"queued": n, "error": err.Error()})
		return
	case err != nil:
		jsonError(w, "poll failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"queued": n})
}
