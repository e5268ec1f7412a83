package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"profit-dashboard/internal/dataset"
	"profit-dashboard/internal/errors"
	"profit-dashboard/internal/kpi"
	"profit-dashboard/internal/models"
	"profit-dashboard/internal/observability"
	"profit-dashboard/internal/services"
)

const (
	noStore      = "no-store"
	shortCache   = "private, max-age=30"
	exportPrefix = "filtered_data"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type APIHandlers struct {
	analytics *services.Analytics
	renderer  kpi.Renderer
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, renderer kpi.Renderer, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		renderer:  renderer,
		logger:    logger,
	}
}

// parseFilter validates the query string into a filter carrying the
// policy's default threshold when none is given.
func (h *APIHandlers) parseFilter(r *http.Request) (kpi.Filter, error) {
	p, err := paramsFromQuery(r.URL.Query())
	if err != nil {
		return kpi.Filter{}, errors.BadRequestWrap(err, "Invalid filter")
	}
	f, err := p.filter(h.analytics.Policy().MarginThreshold)
	if err != nil {
		return kpi.Filter{}, errors.BadRequestWrap(err, "Invalid filter")
	}
	return f, nil
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	errors.WriteError(ctx, w, h.logger, err, observability.GetRequestID(ctx), domainErrors...)
}

var domainErrors = []errors.Mapping{
	{Target: services.ErrNoData, Build: func(error) *errors.AppError {
		return errors.ServiceUnavailable("Dataset not loaded")
	}},
	{Target: kpi.ErrInvalidFilter, Build: func(err error) *errors.AppError {
		return errors.BadRequestWrap(err, "Invalid filter")
	}},
	{Target: kpi.ErrInvalidPolicy, Build: func(err error) *errors.AppError {
		return errors.BadRequestWrap(err, "Invalid filter")
	}},
	{Target: dataset.ErrSchema, Build: func(err error) *errors.AppError {
		return errors.SchemaWrap(err, "Dataset does not match the expected schema")
	}},
}

func (h *APIHandlers) state(w http.ResponseWriter, r *http.Request) (kpi.DashboardState, bool) {
	f, err := h.parseFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return kpi.DashboardState{}, false
	}
	s, err := h.analytics.Dashboard(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return kpi.DashboardState{}, false
	}
	return s, true
}

func (h *APIHandlers) ok(w http.ResponseWriter, r *http.Request, data any) {
	headers := map[string]string{"Cache-Control": shortCache}
	if err := errors.WriteSuccessWithHeaders(w, data, headers); err != nil {
		h.logger.WarnContext(r.Context(), "write response", "error", err)
	}
}

func (h *APIHandlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.analytics.Options()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, opts)
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.state(w, r); ok {
		h.ok(w, r, s)
	}
}

func (h *APIHandlers) HandleProducts(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.state(w, r); ok {
		h.ok(w, r, s.Products)
	}
}

func (h *APIHandlers) HandleDivisions(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.state(w, r); ok {
		h.ok(w, r, s.Divisions)
	}
}

func (h *APIHandlers) HandleConcentration(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.state(w, r); ok {
		h.ok(w, r, map[string]any{
			"concentration": s.Concentration,
			"cost_risk":     kpi.CostRiskProducts(s.Products),
			"high_risk":     kpi.HighRiskProducts(s.Products),
		})
	}
}

type insightResponse struct {
	models.Finding
	Text string `json:"text"`
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	out := make([]insightResponse, 0, len(s.Findings))
	for _, f := range s.Findings {
		out = append(out, insightResponse{Finding: f, Text: h.renderer.Render(f)})
	}
	h.ok(w, r, out)
}

func (h *APIHandlers) HandleAtRisk(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.state(w, r); ok {
		h.ok(w, r, s.AtRisk)
	}
}

func (h *APIHandlers) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, services.FormatCSV, "text/csv; charset=utf-8")
}

func (h *APIHandlers) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, services.FormatXLSX, xlsxMIME)
}

// export buffers the file so a failure can still be reported as an error
// envelope instead of a truncated download.
func (h *APIHandlers) export(w http.ResponseWriter, r *http.Request, format services.ExportFormat, contentType string) {
	f, err := h.parseFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if _, err := h.analytics.Export(r.Context(), f, format, &buf); err != nil {
		h.fail(w, r, err)
		return
	}

	name := fmt.Sprintf("%s_%s.%s", exportPrefix, time.Now().UTC().Format("20060102"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Cache-Control", noStore)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "write export", "error", err, "format", format)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.analytics.Ready() {
		h.fail(w, r, services.ErrNoData)
		return
	}
	errors.WriteSuccessWithHeaders(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}, map[string]string{"Cache-Control": noStore})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Stats(), map[string]string{"Cache-Control": noStore})
}
