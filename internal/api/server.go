package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/hlzconv/internal/archive"
	"github.com/dgallion1/hlzconv/internal/config"
	"github.com/dgallion1/hlzconv/internal/mathrender"
	"github.com/dgallion1/hlzconv/internal/pipeline"
)

// Archive is the read side of the conversion archive.
type Archive interface {
	List(ctx context.Context, contentHash string, limit int) ([]archive.Summary, error)
	Get(ctx context.Context, jobID string) (*archive.Summary, error)
}

// Server is the HTTP API server for hlzconv.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	renderStats  *mathrender.Stats
	archive      Archive
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. renderStats and arch
// may be nil.
func NewServer(orch *pipeline.Orchestrator, renderStats *mathrender.Stats, arch Archive, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		renderStats:  renderStats,
		archive:      arch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/convert/batch", s.handleBatchConvert)
		r.Post("/api/convert/sync", s.handleConvertSync)
		r.Get("/api/convert/{jobID}/status", s.handleConvertStatus)
		r.Get("/api/convert/{jobID}/bundle", s.handleBundle)
		r.Get("/api/convert/{jobID}/reports", s.handleReports)
		r.Get("/api/convert/{jobID}/report.html", s.handleReportHTML)
		r.Get("/api/stats/render", s.handleRenderStats)

		r.Get("/api/conversions", s.handleListConversions)
		r.Get("/api/conversions/{jobID}", s.handleGetConversion)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
