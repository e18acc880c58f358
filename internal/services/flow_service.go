package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"figflow/internal/config"
	"figflow/internal/figaro"
	"figflow/internal/flow"
	"figflow/internal/infrastructure"
	"figflow/internal/nace"
	"figflow/pkg/contracts/domain"
)

// GraphRequest carries the per-request filter parameters supplied by the
// routing layer.
type GraphRequest struct {
	Year           int      `json:"year" validate:"required"`
	Level          int      `json:"level" validate:"min=1,max=4"`
	MinValue       float64  `json:"min_value"`
	Regions        []string `json:"regions,omitempty"`
	IncludeImports bool     `json:"include_imports"`
	IncludeExports bool     `json:"include_exports"`
}

// GraphResult is a built graph plus build metadata.
type GraphResult struct {
	Graph          *domain.FlowGraph `json:"graph"`
	SnapshotID     string            `json:"snapshot_id"`
	DroppedRecords int               `json:"dropped_records"`
	Elapsed        time.Duration     `json:"-"`
}

// snapshot couples a record set with the report from the load that produced
// it; the two are always swapped together.
type snapshot struct {
	recordSet *domain.RecordSet
	report    *figaro.Report
}

// FlowService owns the record set snapshot and runs the request pipeline.
type FlowService struct {
	loader    *figaro.Loader
	hierarchy *nace.Hierarchy
	data      config.DataConfig
	policy    flow.Policy
	logger    *slog.Logger
	tracer    trace.Tracer

	current atomic.Pointer[snapshot]
}

// NewFlowService creates the flow service. The service starts without a
// snapshot; call Reload once at startup before serving requests.
func NewFlowService(cfg *config.Config, hierarchy *nace.Hierarchy, logger *slog.Logger) *FlowService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlowService{
		loader:    figaro.NewLoader(hierarchy, logger),
		hierarchy: hierarchy,
		data:      cfg.Data,
		policy: flow.Policy{
			DropZeroEdges:     cfg.Graph.DropZeroEdges,
			SuppressSelfLoops: cfg.Graph.SuppressSelfLoops,
		},
		logger: logger.With(slog.String("component", "flow_service")),
		tracer: otel.Tracer(infrastructure.MeterName),
	}
}

// Reload loads both FIGARO sources and atomically installs the new snapshot.
// In-flight requests keep reading the previous snapshot; there is no window
// in which a partially loaded set is visible.
func (s *FlowService) Reload(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "flowservice.reload")
	defer span.End()

	rs, report, err := s.loader.Load(ctx, s.data.ExportsPath(), s.data.ImportsPath())
	if err != nil {
		return fmt.Errorf("reload record set: %w", err)
	}

	s.current.Store(&snapshot{recordSet: rs, report: report})
	snapshotRecords.Set(float64(len(rs.Records)))
	snapshotReloadsTotal.Inc()

	s.logger.InfoContext(ctx, "snapshot installed",
		slog.String("snapshot_id", rs.SnapshotID),
		slog.Int("records", len(rs.Records)),
		slog.Int("rows_excluded", report.TotalExcluded()))

	return nil
}

// BuildGraph validates the request against the current snapshot and runs the
// filter, aggregate and build stages with the request context.
func (s *FlowService) BuildGraph(ctx context.Context, req GraphRequest) (*GraphResult, error) {
	ctx, span := s.tracer.Start(ctx, "flowservice.build_graph",
		trace.WithAttributes(
			attribute.Int("flow.year", req.Year),
			attribute.Int("flow.level", req.Level),
		))
	defer span.End()

	start := time.Now()

	snap := s.current.Load()
	if snap == nil {
		graphBuildsTotal.WithLabelValues("unavailable").Inc()
		return nil, ErrDataNotLoaded
	}
	rs := snap.recordSet

	if req.Level < nace.MinLevel || req.Level > nace.MaxLevel {
		graphBuildsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, req.Level)
	}
	if !rs.HasYear(req.Year) {
		graphBuildsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %d", ErrYearNotFound, req.Year)
	}

	spec := flow.FilterSpec{
		Year:           req.Year,
		Level:          req.Level,
		MinValue:       req.MinValue,
		Regions:        req.Regions,
		IncludeImports: req.IncludeImports,
		IncludeExports: req.IncludeExports,
	}

	agg, err := flow.Aggregate(ctx, flow.Filter(rs, spec), s.hierarchy, req.Level, s.policy)
	if err != nil {
		graphBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	graph := flow.BuildGraph(agg, s.policy)
	elapsed := time.Since(start)

	graphBuildsTotal.WithLabelValues("success").Inc()
	graphBuildDuration.Observe(elapsed.Seconds())

	s.logger.DebugContext(ctx, "graph built",
		slog.String("snapshot_id", rs.SnapshotID),
		slog.Int("year", req.Year),
		slog.Int("level", req.Level),
		slog.Int("nodes", len(graph.Nodes)),
		slog.Int("links", len(graph.Links)),
		slog.Bool("empty", graph.Empty),
		slog.Duration("elapsed", elapsed))

	return &GraphResult{
		Graph:          graph,
		SnapshotID:     rs.SnapshotID,
		DroppedRecords: agg.DroppedRecords,
		Elapsed:        elapsed,
	}, nil
}

// AvailableYears returns the sorted years present in the current snapshot.
func (s *FlowService) AvailableYears(ctx context.Context) ([]int, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrDataNotLoaded
	}
	return snap.recordSet.Years, nil
}

// Regions returns the sorted region codes present in the current snapshot.
func (s *FlowService) Regions(ctx context.Context) ([]string, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrDataNotLoaded
	}
	return snap.recordSet.Regions, nil
}

// LoadReport returns the row-level quality report of the load that produced
// the current snapshot.
func (s *FlowService) LoadReport(ctx context.Context) (*figaro.Report, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrDataNotLoaded
	}
	return snap.report, nil
}

// SnapshotID returns the identifier of the current snapshot, or empty when
// no snapshot is loaded.
func (s *FlowService) SnapshotID() string {
	if snap := s.current.Load(); snap != nil {
		return snap.recordSet.SnapshotID
	}
	return ""
}
