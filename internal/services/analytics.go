package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"profit-dashboard/internal/dataset"
	"profit-dashboard/internal/kpi"
	"profit-dashboard/internal/observability"
)

// ErrNoData is returned before a dataset has been loaded.
var ErrNoData = errors.New("no dataset loaded")

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

type FilterOptions struct {
	Divisions       []string `json:"divisions"`
	Products        []string `json:"products"`
	MinDate         string   `json:"min_date,omitempty"`
	MaxDate         string   `json:"max_date,omitempty"`
	MarginThreshold float64  `json:"margin_threshold"`
}

// Analytics serves dashboard states over one immutable table. The
// unfiltered state is computed once per table and shared; callers must
// treat returned states as read-only.
type Analytics struct {
	mu           sync.RWMutex
	table        *dataset.Table
	generation   uint64
	defaultState *kpi.DashboardState

	policy       kpi.Policy
	group        singleflight.Group
	computations atomic.Int64
	metrics      *observability.Metrics
	logger       *slog.Logger
}

func NewAnalytics(policy kpi.Policy, metrics *observability.Metrics, logger *slog.Logger) *Analytics {
	return &Analytics{
		policy:  policy,
		metrics: metrics,
		logger:  logger,
	}
}

// SetTable swaps in a new dataset and drops the memoised state.
func (a *Analytics) SetTable(t *dataset.Table) {
	a.mu.Lock()
	a.table = t
	a.generation++
	a.defaultState = nil
	a.mu.Unlock()

	a.metrics.SetDatasetRows(t.Len())
}

func (a *Analytics) LoadFromFile(ctx context.Context, path, sheet string) error {
	t, err := dataset.Load(ctx, path, dataset.WithSheet(sheet), dataset.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.SetTable(t)
	return nil
}

func (a *Analytics) Ready() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table != nil
}

func (a *Analytics) Policy() kpi.Policy {
	return a.policy
}

func (a *Analytics) DefaultFilter() kpi.Filter {
	return a.policy.DefaultFilter()
}

func (a *Analytics) snapshot() (*dataset.Table, uint64, *kpi.DashboardState) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table, a.generation, a.defaultState
}

// Dashboard computes the state for f. Requests equivalent to the default
// filter share one memoised computation.
func (a *Analytics) Dashboard(ctx context.Context, f kpi.Filter) (kpi.DashboardState, error) {
	table, gen, cached := a.snapshot()
	if table == nil {
		return kpi.DashboardState{}, ErrNoData
	}

	if !a.isDefault(f) {
		return a.compute(ctx, table, f)
	}
	if cached != nil {
		a.metrics.ObserveCacheHit()
		return *cached, nil
	}

	key := "default:" + strconv.FormatUint(gen, 10)
	v, err, _ := a.group.Do(key, func() (any, error) {
		s, err := a.compute(context.WithoutCancel(ctx), table, a.DefaultFilter())
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		if a.generation == gen {
			a.defaultState = &s
		}
		a.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return kpi.DashboardState{}, err
	}
	return v.(kpi.DashboardState), nil
}

func (a *Analytics) compute(ctx context.Context, table *dataset.Table, f kpi.Filter) (kpi.DashboardState, error) {
	_, span := observability.Tracer().Start(ctx, "analytics.compute")
	defer span.End()

	start := time.Now()
	s, err := kpi.Compute(table.Rows(), f, a.policy)
	elapsed := time.Since(start)
	a.metrics.ObserveCompute(elapsed, err)
	a.computations.Add(1)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return kpi.DashboardState{}, err
	}

	span.SetAttributes(
		attribute.Int("dashboard.rows", s.Totals.Rows),
		attribute.Int("dashboard.products", len(s.Products)),
		attribute.Int("dashboard.findings", len(s.Findings)),
	)
	a.logger.DebugContext(ctx, "dashboard computed",
		"rows", s.Totals.Rows,
		"products", len(s.Products),
		"duration", elapsed,
	)
	return s, nil
}

func (a *Analytics) isDefault(f kpi.Filter) bool {
	if !f.Start.IsZero() || !f.End.IsZero() || f.EnforceMargin || f.ProductQuery != "" {
		return false
	}
	if f.MarginThreshold != a.policy.MarginThreshold {
		return false
	}
	for _, d := range f.Divisions {
		if strings.EqualFold(strings.TrimSpace(d), kpi.AllDivisions) {
			return true
		}
	}
	return len(f.Divisions) == 0
}

func (a *Analytics) Options() (FilterOptions, error) {
	table, _, _ := a.snapshot()
	if table == nil {
		return FilterOptions{}, ErrNoData
	}

	opts := FilterOptions{
		Divisions:       table.Divisions(),
		Products:        table.Products(),
		MarginThreshold: a.policy.MarginThreshold,
	}
	if lo, hi, ok := table.DateBounds(); ok {
		opts.MinDate = lo.Format(time.DateOnly)
		opts.MaxDate = hi.Format(time.DateOnly)
	}
	return opts, nil
}

// Export writes the filtered, derived rows of f to w and returns how many
// were written.
func (a *Analytics) Export(ctx context.Context, f kpi.Filter, format ExportFormat, w io.Writer) (int, error) {
	s, err := a.Dashboard(ctx, f)
	if err != nil {
		return 0, err
	}

	switch format {
	case FormatCSV:
		err = dataset.WriteCSV(w, s.Rows)
	case FormatXLSX:
		err = dataset.WriteXLSX(w, s.Rows)
	default:
		return 0, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return 0, fmt.Errorf("export %s: %w", format, err)
	}

	a.metrics.ObserveExport(string(format))
	a.logger.InfoContext(ctx, "data exported", "format", format, "rows", len(s.Rows))
	return len(s.Rows), nil
}

// Stats is a monitoring snapshot for the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	table, gen, cached := a.snapshot()

	stats := map[string]any{
		"loaded":       table != nil,
		"generation":   gen,
		"computations": a.computations.Load(),
		"memoised":     cached != nil,
		"policy":       a.policy,
	}
	if table != nil {
		stats["record_count"] = table.Len()
		stats["dropped_rows"] = table.Dropped()
		stats["source"] = table.Source()
		stats["loaded_at"] = table.LoadedAt()
		stats["divisions"] = len(table.Divisions())
		stats["products"] = len(table.Products())
	}
	return stats
}
