// Package insights runs the analysis pipeline around the pure core:
// load records, collect every table, count the findings and cache the
// result for re-display.
package insights

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-insights/internal/analysis"
	"github.com/radiusdt/vector-insights/internal/ingest"
	"github.com/radiusdt/vector-insights/internal/metrics"
	"github.com/radiusdt/vector-insights/internal/models"
	"github.com/radiusdt/vector-insights/internal/storage"
)

// ErrNoSource is returned by AnalyzeSource when no database source is configured.
var ErrNoSource = errors.New("insights: no record source configured")

// Options override per-run settings. Zero values keep the service defaults.
type Options struct {
	ConversionColumn string
	TopN             int
}

// Service orchestrates analyses. It is safe for concurrent use.
type Service struct {
	thresholds       analysis.Thresholds
	levels           analysis.Options
	conversionColumn string

	cache   storage.ResultCache
	source  storage.RecordSource
	metrics *metrics.Metrics
	logger  *zap.Logger

	newID func() string
	now   func() time.Time
}

// Config wires a Service. Source and Metrics may be nil.
type Config struct {
	Thresholds       analysis.Thresholds
	Levels           analysis.Options
	ConversionColumn string
	Cache            storage.ResultCache
	Source           storage.RecordSource
	Metrics          *metrics.Metrics
	Logger           *zap.Logger
}

// NewService creates a service. A nil cache gets a small in-memory one and
// a nil logger a no-op logger.
func NewService(cfg Config) *Service {
	if cfg.Cache == nil {
		cfg.Cache = storage.NewInMemoryResultCache(8)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		thresholds:       cfg.Thresholds,
		levels:           cfg.Levels,
		conversionColumn: cfg.ConversionColumn,
		cache:            cfg.Cache,
		source:           cfg.Source,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		newID:            uuid.NewString,
		now:              time.Now,
	}
}

// Thresholds returns the default rule set.
func (s *Service) Thresholds() analysis.Thresholds { return s.thresholds }

// HasSource reports whether AnalyzeSource can run.
func (s *Service) HasSource() bool { return s.source != nil }

// AnalyzeCSV parses an uploaded export and analyzes it.
func (s *Service) AnalyzeCSV(ctx context.Context, name string, r io.Reader, opts Options) (*models.Result, error) {
	start := s.now()

	column := opts.ConversionColumn
	if column == "" {
		column = s.conversionColumn
	}
	batch, err := ingest.NewSchema(column).ReadCSV(name, r)
	if err != nil {
		s.fail(start, name, err)
		return nil, err
	}
	s.metrics.RecordIngest("csv", batch.Stats.Accepted, batch.Stats.BadDate, batch.Stats.BadNumber, batch.Stats.Clamped)

	return s.run(ctx, start, batch, opts)
}

// AnalyzeSource loads records from the configured database source.
func (s *Service) AnalyzeSource(ctx context.Context, filter storage.RecordFilter, opts Options) (*models.Result, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	start := s.now()

	batch, err := s.source.LoadRecords(ctx, filter)
	if err != nil {
		err = fmt.Errorf("load records from %s: %w", s.source.Name(), err)
		s.fail(start, s.source.Name(), err)
		return nil, err
	}
	s.metrics.RecordIngest(s.source.Name(), batch.Stats.Accepted, batch.Stats.BadDate, batch.Stats.BadNumber, batch.Stats.Clamped)

	return s.run(ctx, start, batch, opts)
}

// Analyze runs the pipeline on an already normalized batch.
func (s *Service) Analyze(ctx context.Context, batch *models.Batch, opts Options) (*models.Result, error) {
	return s.run(ctx, s.now(), batch, opts)
}

func (s *Service) run(ctx context.Context, start time.Time, batch *models.Batch, opts Options) (*models.Result, error) {
	if batch == nil || len(batch.Records) == 0 {
		source := ""
		if batch != nil {
			source = batch.Source
		}
		err := fmt.Errorf("%s: %w", source, ingest.ErrEmptyDataset)
		s.fail(start, source, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	th := s.thresholds
	if opts.TopN > 0 {
		th.Sample.TopN = opts.TopN
	}

	res, err := analysis.NewCollector(th, s.levels).Collect(batch.Records)
	if err != nil {
		s.fail(start, batch.Source, err)
		return nil, err
	}
	res.ID = s.newID()
	res.CreatedAt = s.now().UTC()
	res.Source = batch.Source
	res.Input = batch.Stats

	s.count(res)

	putErr := s.cache.Put(ctx, res)
	s.metrics.RecordCache("put", putErr)
	if putErr != nil {
		s.logger.Warn("failed to cache result",
			zap.String("analysis_id", res.ID),
			zap.Error(putErr),
		)
	}

	duration := s.now().Sub(start)
	s.metrics.RecordAnalysis("ok", duration)
	s.logger.Info("analysis completed",
		zap.String("analysis_id", res.ID),
		zap.String("source", res.Source),
		zap.String("anchor", res.Anchor.Format("2006-01-02")),
		zap.Int("records", batch.Stats.Accepted),
		zap.Int("dropped", batch.Stats.BadDate),
		zap.Int("alerts", len(res.Alerts)),
		zap.Int("trends", len(res.Trends)),
		zap.Duration("duration", duration),
	)
	return res, nil
}

func (s *Service) count(res *models.Result) {
	for _, a := range res.Alerts {
		s.metrics.RecordAlert(string(a.Kind))
	}
	for _, t := range res.Trends {
		s.metrics.RecordTrend(string(t.Kind))
	}
	var creatives, adsets int
	for _, c := range res.NewCreatives {
		if c.IsNew {
			creatives++
		}
	}
	for _, a := range res.NewAdSets {
		if a.IsNew {
			adsets++
		}
	}
	s.metrics.RecordNewEntities("creative", creatives)
	s.metrics.RecordNewEntities("adset", adsets)
}

func (s *Service) fail(start time.Time, source string, err error) {
	status := "error"
	var se *ingest.SchemaError
	if errors.As(err, &se) || errors.Is(err, ingest.ErrEmptyDataset) {
		status = "rejected"
	}
	s.metrics.RecordAnalysis(status, s.now().Sub(start))
	s.logger.Warn("analysis failed",
		zap.String("source", source),
		zap.String("status", status),
		zap.Error(err),
	)
}

// Get returns a cached result.
func (s *Service) Get(ctx context.Context, id string) (*models.Result, error) {
	res, err := s.cache.Get(ctx, id)
	s.recordLookup("get", err)
	return res, err
}

// Latest returns the most recently cached result.
func (s *Service) Latest(ctx context.Context) (*models.Result, error) {
	res, err := s.cache.Latest(ctx)
	s.recordLookup("latest", err)
	return res, err
}

func (s *Service) recordLookup(op string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.metrics.RecordCacheMiss(op)
		return
	}
	s.metrics.RecordCache(op, err)
}
