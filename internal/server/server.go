package server

import (
	"log/slog"
	"net/http"

	"profit-dashboard/internal/handlers"
	"profit-dashboard/internal/kpi"
	"profit-dashboard/internal/observability"
	"profit-dashboard/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(analytics *services.Analytics, metrics *observability.Metrics, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	renderer := kpi.TextRenderer{}
	s := &Server{
		analytics:   analytics,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(analytics, renderer, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, renderer, logger),
	}
	s.setupRoutes(templateHandlers, metrics)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers, metrics *observability.Metrics) {
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", metrics.Handler())

	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/dashboard", s.apiHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /api/products", s.apiHandlers.HandleProducts)
	s.mux.HandleFunc("GET /api/divisions", s.apiHandlers.HandleDivisions)
	s.mux.HandleFunc("GET /api/concentration", s.apiHandlers.HandleConcentration)
	s.mux.HandleFunc("GET /api/insights", s.apiHandlers.HandleInsights)
	s.mux.HandleFunc("GET /api/at-risk", s.apiHandlers.HandleAtRisk)
	s.mux.HandleFunc("GET /api/export.csv", s.apiHandlers.HandleExportCSV)
	s.mux.HandleFunc("GET /api/export.xlsx", s.apiHandlers.HandleExportXLSX)

	s.mux.HandleFunc("GET /sse/refresh", s.sseHandlers.HandleRefresh)
}

// Mux exposes the route table so middleware can label requests by pattern.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
