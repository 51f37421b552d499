package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"gdpwaterfall/internal/dataprocessing"
	apperrors "gdpwaterfall/internal/errors"
	"gdpwaterfall/internal/files"
	"gdpwaterfall/internal/infrastructure"
	"gdpwaterfall/pkg/contracts/domain"
)

// LoaderFunc fetches and parses the GDP table once
type LoaderFunc func(ctx context.Context) (*files.LoadResult, error)

// DatasetInfo describes the dataset currently served
type DatasetInfo struct {
	Source    string                    `json:"source"`
	State     domain.DatasetState       `json:"state"`
	Countries int                       `json:"countries"`
	Records   int                       `json:"records"`
	LoadedAt  time.Time                 `json:"loaded_at"`
	Stats     dataprocessing.ParseStats `json:"stats"`
}

type snapshot struct {
	result *files.LoadResult
	info   DatasetInfo
}

// ChartService serves country lists and waterfall charts from one immutable
// dataset snapshot. Reloads swap the snapshot; readers never lock.
type ChartService struct {
	loader  LoaderFunc
	logger  *slog.Logger
	metrics *infrastructure.ChartMetrics
	tracer  trace.Tracer

	current atomic.Pointer[snapshot]

	loadMu      sync.Mutex
	subMu       sync.RWMutex
	subscribers []func(DatasetInfo)
}

// ChartServiceOption configures a ChartService
type ChartServiceOption func(*ChartService)

// WithMetrics sets the instruments used by the service
func WithMetrics(m *infrastructure.ChartMetrics) ChartServiceOption {
	return func(s *ChartService) { s.metrics = m }
}

// WithTracer sets the tracer used for chart spans
func WithTracer(t trace.Tracer) ChartServiceOption {
	return func(s *ChartService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewChartService creates a chart service. Nothing is loaded until Load.
func NewChartService(loader LoaderFunc, logger *slog.Logger, opts ...ChartServiceOption) *ChartService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ChartService{
		loader: loader,
		logger: infrastructure.WithComponent(logger, "chart_service"),
		tracer: noop.NewTracerProvider().Tracer("gdpwaterfall"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the dataset and publishes it.
//
// An empty table is published (the service then answers in the empty-dataset
// state) and its EMPTY_DATASET error is still returned. Any other failure
// keeps the previous snapshot in place.
func (s *ChartService) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "ChartService.Load")
	defer span.End()

	result, err := s.loader(ctx)
	if result == nil {
		if err == nil {
			err = apperrors.NewFileLoadError("dataset", ErrDatasetNotLoaded)
		}
		infrastructure.RecordError(ctx, err)
		return err
	}
	if err != nil && !apperrors.IsType(err, apperrors.ErrTypeEmptyDataset) {
		infrastructure.RecordError(ctx, err)
		return err
	}

	snap := newSnapshot(result)
	s.current.Store(snap)
	span.SetAttributes(
		attribute.String("dataset.source", snap.info.Source),
		attribute.Int("dataset.countries", snap.info.Countries),
	)
	s.logger.InfoContext(ctx, "Dataset published",
		slog.String("source", snap.info.Source),
		slog.String("state", string(snap.info.State)),
		slog.Int("countries", snap.info.Countries))

	s.notify(snap.info)
	return err
}

// Reload is Load for callers that only log the outcome, such as the file watcher
func (s *ChartService) Reload(ctx context.Context) {
	err := s.Load(ctx)
	switch {
	case err == nil:
	case apperrors.IsType(err, apperrors.ErrTypeEmptyDataset):
		s.logger.WarnContext(ctx, "Dataset reloaded without usable rows",
			slog.String("error", err.Error()))
	default:
		s.logger.WarnContext(ctx, "Dataset reload failed, keeping previous snapshot",
			slog.String("error", err.Error()))
	}
}

// OnReload registers fn to be called after every published snapshot
func (s *ChartService) OnReload(fn func(DatasetInfo)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *ChartService) notify(info DatasetInfo) {
	s.subMu.RLock()
	subs := make([]func(DatasetInfo), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(info)
	}
}

// Info returns the current dataset description and whether one is loaded
func (s *ChartService) Info() (DatasetInfo, bool) {
	snap := s.current.Load()
	if snap == nil {
		return DatasetInfo{}, false
	}
	return snap.info, true
}

// Countries returns the sorted country list, empty for an empty dataset
func (s *ChartService) Countries(ctx context.Context) (domain.CountryList, error) {
	snap, err := s.loaded()
	if err != nil {
		return domain.CountryList{}, err
	}

	countries := snap.result.Dataset.Countries()
	s.logger.DebugContext(ctx, "Countries listed", slog.Int("count", len(countries)))
	return domain.CountryList{
		Countries: countries,
		Count:     len(countries),
		State:     snap.info.State,
	}, nil
}

// Waterfall builds the chart for one country.
//
// A country with no valid GDP value yields a chart in the no_data state,
// not an error. Lookups accept any letter case.
func (s *ChartService) Waterfall(ctx context.Context, country string) (*domain.WaterfallChart, error) {
	ctx, span := s.tracer.Start(ctx, "ChartService.Waterfall",
		trace.WithAttributes(attribute.String("country.query", country)))
	defer span.End()

	snap, err := s.loaded()
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	if snap.info.State == domain.DatasetStateEmpty {
		err := apperrors.NewEmptyDatasetError(snap.info.Source, ErrEmptyDataset)
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	name, ok := snap.result.Dataset.Resolve(country)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("country %q", country), ErrCountryNotFound)
	}
	series, _ := snap.result.Dataset.Series(name)

	start := time.Now()
	items := dataprocessing.BuildWaterfall(series)
	chart := &domain.WaterfallChart{
		Country: name,
		State:   domain.ChartStateOK,
		Items:   items,
		Summary: dataprocessing.Summarize(items),
	}
	if len(items) == 0 {
		chart.State = domain.ChartStateNoData
		chart.Message = fmt.Sprintf("No valid GDP data for %s", name)
	}
	s.metrics.RecordWaterfallBuild(ctx, string(chart.State), time.Since(start))
	span.SetAttributes(
		attribute.String("country", name),
		attribute.String("chart.state", string(chart.State)),
		attribute.Int("chart.items", len(items)),
	)

	s.logger.DebugContext(ctx, "Waterfall built",
		slog.String("country", name),
		slog.String("state", string(chart.State)),
		slog.Int("items", len(items)))
	return chart, nil
}

// ExportableWaterfall is Waterfall for download paths: a chart without bars
// is reported as a NO_DATA error because there is nothing to write.
func (s *ChartService) ExportableWaterfall(ctx context.Context, country string) (*domain.WaterfallChart, error) {
	chart, err := s.Waterfall(ctx, country)
	if err != nil {
		return nil, err
	}
	if chart.Empty() {
		return nil, apperrors.NewNoDataError(chart.Country, nil)
	}
	return chart, nil
}

// RecordExport counts one download of the given format
func (s *ChartService) RecordExport(ctx context.Context, format string) {
	s.metrics.RecordExport(ctx, format)
}

func (s *ChartService) loaded() (*snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeFileLoad, "no dataset has been loaded", ErrDatasetNotLoaded)
	}
	return snap, nil
}

func newSnapshot(result *files.LoadResult) *snapshot {
	state := domain.DatasetStateOK
	if result.Dataset.Empty() {
		state = domain.DatasetStateEmpty
	}
	return &snapshot{
		result: result,
		info: DatasetInfo{
			Source:    result.Source,
			State:     state,
			Countries: result.Dataset.Len(),
			Records:   result.Dataset.RecordCount(),
			LoadedAt:  result.LoadedAt,
			Stats:     result.Stats,
		},
	}
}

// IsDatasetError reports whether err means the dataset itself is unusable,
// as opposed to a bad request against a healthy dataset
func IsDatasetError(err error) bool {
	return errors.Is(err, ErrDatasetNotLoaded) ||
		errors.Is(err, ErrEmptyDataset) ||
		apperrors.IsType(err, apperrors.ErrTypeFileLoad) ||
		apperrors.IsType(err, apperrors.ErrTypeEmptyDataset)
}
