// Package analysis is the computational core: weighted metric rollups,
// cross-window anomaly and trend detection, CPM correlation and new-entity
// classification. Every function is a pure transformation of its inputs.
package analysis

import (
	"errors"

	"github.com/radiusdt/vector-insights/internal/models"
	"github.com/radiusdt/vector-insights/internal/window"
)

// ErrNoRecords is returned when a dataset has nothing to analyze.
var ErrNoRecords = errors.New("analysis: no records")

// Options choose the granularities the detectors run at.
type Options struct {
	DetectLevels     []models.Level
	CorrelationLevel models.Level
}

// DefaultOptions runs detectors at campaign and ad-set level and the CPM
// correlation at ad-set level.
func DefaultOptions() Options {
	return Options{
		DetectLevels:     []models.Level{models.LevelCampaign, models.LevelAdSet},
		CorrelationLevel: models.LevelAdSet,
	}
}

// Collector orchestrates the aggregator and detectors over every window
// and hierarchy level of one dataset.
type Collector struct {
	th   Thresholds
	opts Options
}

// NewCollector returns a collector bound to an immutable rule set.
func NewCollector(th Thresholds, opts Options) *Collector {
	if len(opts.DetectLevels) == 0 {
		opts.DetectLevels = DefaultOptions().DetectLevels
	}
	if !opts.CorrelationLevel.Valid() {
		opts.CorrelationLevel = DefaultOptions().CorrelationLevel
	}
	return &Collector{th: th, opts: opts}
}

// Thresholds returns the rule set the collector runs with.
func (c *Collector) Thresholds() Thresholds { return c.th }

// Collect computes every output table for records. The anchor is the latest
// day in the dataset. The returned result has no ID; callers assign one.
func (c *Collector) Collect(records []models.Record) (*models.Result, error) {
	anchor, ok := window.Anchor(records)
	if !ok {
		return nil, ErrNoRecords
	}
	set := window.Build(anchor)
	parts := set.Split(records)

	res := &models.Result{
		Anchor:  anchor,
		Windows: set.All(),
	}

	tables := make(map[string]map[models.Level][]models.MetricsRow, len(res.Windows))
	for _, w := range res.Windows {
		tables[w.Code] = make(map[models.Level][]models.MetricsRow, len(models.Levels))
		for _, lvl := range models.Levels {
			rows := Aggregate(parts[w.Code], lvl)
			tables[w.Code][lvl] = rows
			res.Metrics = append(res.Metrics, models.MetricsTable{Window: w, Level: lvl, Rows: rows})
		}
	}

	res.Alerts = make([]models.AlertRecord, 0)
	res.Trends = make([]models.TrendRecord, 0)
	for _, lvl := range c.opts.DetectLevels {
		res.Alerts = append(res.Alerts, DetectAnomalies(
			tables[window.Yesterday][lvl], tables[window.Past7][lvl],
			c.th.Anomaly, window.Yesterday+" vs "+window.Past7)...)
		res.Trends = append(res.Trends, DetectTrends(
			tables[window.Past7][lvl], tables[window.Prior7][lvl],
			c.th.Trend, window.Past7+" vs "+window.Prior7)...)
	}

	cl := c.opts.CorrelationLevel
	res.CPMCorrelation = BuildCPMCorrelation(
		tables[window.Past7][cl], tables[window.Prior7][cl], tables[window.Past30][cl])

	res.NewCreatives = ClassifyNewCreatives(parts[window.Past7], anchor, c.th.NewCreative, c.th.Sample)
	res.NewAdSets = ClassifyNewAdSets(parts[window.Past7], parts[window.Prior7], c.th.NewAdSet, c.th.Sample)
	res.DailyTrend = DailyTrend(parts[window.Past30])

	return res, nil
}
