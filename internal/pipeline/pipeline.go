package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/indicacoes-heatmap/internal/domain"
	"github.com/couchcryptid/indicacoes-heatmap/internal/observability"
)

// ErrExportDisabled is returned by Export when no exporter is configured.
var ErrExportDisabled = errors.New("export is disabled")

// DatasetLoader reads both sources into an immutable dataset.
type DatasetLoader interface {
	Load(ctx context.Context) (domain.Dataset, error)
}

// Exporter publishes the joined rows of one render downstream.
type Exporter interface {
	Export(ctx context.Context, meta domain.ExportMeta, rows []domain.JoinedCity) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopCities sets the size of the top-cities series.
func WithTopCities(n int) Option {
	return func(p *Pipeline) { p.topCities = n }
}

// WithReloadOnRender re-reads the sources before every render.
func WithReloadOnRender(reload bool) Option {
	return func(p *Pipeline) { p.reloadOnRender = reload }
}

// WithGeocodeRegion sets the region appended to geocoding lookups.
func WithGeocodeRegion(region string) Option {
	return func(p *Pipeline) { p.region = region }
}

// Pipeline serves dashboard renders over the most recently loaded dataset.
// Renders never mutate the dataset; a reload swaps it atomically.
type Pipeline struct {
	loader   DatasetLoader
	geocoder domain.Geocoder
	exporter Exporter
	logger   *slog.Logger
	metrics  *observability.Metrics

	dataset atomic.Pointer[domain.Dataset]
	loadMu  sync.Mutex
	ready   atomic.Bool

	topCities      int
	reloadOnRender bool
	region         string
}

// New creates a Pipeline. geocoder and exporter may be nil to disable
// coordinate suggestions and export respectively.
func New(loader DatasetLoader, geocoder domain.Geocoder, exporter Exporter, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		loader:    loader,
		geocoder:  geocoder,
		exporter:  exporter,
		logger:    logger,
		metrics:   metrics,
		topCities: domain.DefaultTopCities,
		region:    "Brasil",
	}
	for _, opt := range opts {
		opt(p)
	}
	if geocoder != nil {
		metrics.GeocodeEnabled.Set(1)
	}
	return p
}

// CheckReadiness returns nil once a dataset has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// Load reads both sources and swaps in the new dataset. On failure the
// previously loaded dataset, if any, keeps serving.
func (p *Pipeline) Load(ctx context.Context) (domain.Dataset, error) {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	ds, err := p.loader.Load(ctx)
	if err != nil {
		p.metrics.DatasetLoads.WithLabelValues("error").Inc()
		return domain.Dataset{}, fmt.Errorf("load dataset: %w", err)
	}

	p.dataset.Store(&ds)
	p.ready.Store(true)

	p.metrics.DatasetLoads.WithLabelValues("success").Inc()
	p.metrics.DatasetMeasurementRows.Set(float64(ds.MeasurementReport.Rows))
	p.metrics.DatasetCoordinateRows.Set(float64(ds.CoordinateReport.Rows))
	p.metrics.DatasetMissingAges.Set(float64(ds.MeasurementReport.MissingAges))
	p.metrics.DatasetSkippedRows.Set(float64(ds.MeasurementReport.SkippedRows + ds.CoordinateReport.SkippedRows))
	p.metrics.DatasetInvalidQuantities.Set(float64(ds.MeasurementReport.InvalidQuantities))

	p.logger.Info("dataset loaded",
		"measurement_rows", ds.MeasurementReport.Rows,
		"coordinate_rows", ds.CoordinateReport.Rows,
		"missing_ages", ds.MeasurementReport.MissingAges,
		"invalid_quantities", ds.MeasurementReport.InvalidQuantities,
		"invalid_coordinates", ds.CoordinateReport.InvalidCoordinates,
	)
	return ds, nil
}

// current returns the dataset to render from, loading it first when none is
// loaded yet or when reload-on-render is set.
func (p *Pipeline) current(ctx context.Context) (domain.Dataset, error) {
	if !p.reloadOnRender {
		if ds := p.dataset.Load(); ds != nil {
			return *ds, nil
		}
	}
	return p.Load(ctx)
}

// Render builds the dashboard for a filter label ("" or "Todas" selects every bracket).
func (p *Pipeline) Render(ctx context.Context, label string) (Result, error) {
	start := time.Now()

	f, err := domain.ParseFilter(label)
	if err != nil {
		p.metrics.RenderErrors.Inc()
		return Result{}, err
	}

	ds, err := p.current(ctx)
	if err != nil {
		p.metrics.RenderErrors.Inc()
		return Result{}, err
	}

	res := newResult(ds, domain.Build(ds, f, p.topCities))
	if n := res.Joined.MissingCoordinates; n > 0 {
		p.logger.Warn("cities without coordinates left off the map",
			"filter", res.Filter,
			"count", n,
			"cities", res.Joined.Unmatched,
			"render_id", res.RenderID,
		)
	}

	p.metrics.RendersTotal.WithLabelValues(res.Filter).Inc()
	p.metrics.MissingCoordinates.Set(float64(res.Joined.MissingCoordinates))
	p.metrics.RenderDuration.Observe(time.Since(start).Seconds())

	p.logger.Debug("dashboard rendered",
		"filter", res.Filter,
		"render_id", res.RenderID,
		"cities", len(res.Joined.Rows),
		"heat_points", len(res.HeatMap),
	)
	return res, nil
}

// Options returns the filter labels offered by the control surface.
func (p *Pipeline) Options(ctx context.Context) ([]string, error) {
	ds, err := p.current(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterOptions(ds.Measurements), nil
}

// Unmatched lists the cities of a render that have no coordinates, each
// with a geocoded suggestion when a geocoder is configured.
func (p *Pipeline) Unmatched(ctx context.Context, label string) ([]domain.UnmatchedCity, error) {
	res, err := p.Render(ctx, label)
	if err != nil {
		return nil, err
	}
	return domain.SuggestCoordinates(ctx, res.Joined, p.geocoder, p.region, p.logger), nil
}

// Export renders a filter and publishes every joined row, with or without
// coordinates. It returns the number of rows published.
func (p *Pipeline) Export(ctx context.Context, label string) (int, error) {
	if p.exporter == nil {
		return 0, ErrExportDisabled
	}

	res, err := p.Render(ctx, label)
	if err != nil {
		return 0, err
	}

	meta := domain.ExportMeta{
		Filter:      res.Filter,
		RenderID:    res.RenderID,
		GeneratedAt: res.GeneratedAt,
	}
	if err := p.exporter.Export(ctx, meta, res.Joined.Rows); err != nil {
		return 0, fmt.Errorf("export render %s: %w", res.RenderID, err)
	}

	p.metrics.ExportedRows.Add(float64(len(res.Joined.Rows)))
	p.logger.Info("render exported", "filter", res.Filter, "render_id", res.RenderID, "rows", len(res.Joined.Rows))
	return len(res.Joined.Rows), nil
}
