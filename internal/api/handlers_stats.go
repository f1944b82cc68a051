package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/hlzconv/internal/archive"
)

func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	if s.renderStats == nil {
		jsonError(w, "render stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"renderer_url": s.cfg.MathRendererURL,
		"queue_depth":  s.orchestrator.QueueDepth(),
		"stats":        s.renderStats.Snapshot(),
	})
}

func (s *Server) handleListConversions(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		jsonError(w, "conversion archive disabled", http.StatusServiceUnavailable)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.archive.List(r.Context(), r.URL.Query().Get("content_hash"), limit)
	if err != nil {
		jsonError(w, "failed to list conversions: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"conversions": list})
}

func (s *Server) handleGetConversion(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		jsonError(w, "conversion archive disabled", http.StatusServiceUnavailable)
		return
	}
	sm, err := s.archive.Get(r.Context(), chi.URLParam(r, "jobID"))
	if errors.Is(err, archive.ErrNotFound) {
		jsonError(w, "conversion not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load conversion: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sm)
}
