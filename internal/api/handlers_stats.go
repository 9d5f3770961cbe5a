package api

import (
	"net/http"

	"github.com/dgallion1/jobfmt/internal/extract"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	stats := llmStats(s.extractor)
	if stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.extractor.Model(),
		"stats": stats.Snapshot(),
	})
}

func llmStats(e extract.Extractor) *extract.LLMStats {
	switch c := e.(type) {
	case *extract.ClaudeClient:
		return c.Stats
	case *extract.OpenAIClient:
		return c.Stats
	}
	return nil
}
