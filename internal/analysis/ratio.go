package analysis

import (
	"math"

	"github.com/radiusdt/vector-insights/internal/models"
)

// measures holds the summable part of a metrics row.
type measures struct {
	spend       float64
	impressions int64
	clicks      int64
	conversions float64
}

func (m *measures) add(r models.Record) {
	m.spend += r.Spend
	m.impressions += r.Impressions
	m.clicks += r.Clicks
	m.conversions += r.Conversions
}

func (m *measures) merge(o measures) {
	m.spend += o.spend
	m.impressions += o.impressions
	m.clicks += o.clicks
	m.conversions += o.conversions
}

// ratios holds the derived efficiency metrics, rounded.
type ratios struct {
	cpa, ctr, cvr, cpc, cpm float64
}

// derive computes every ratio from unrounded sums. Zero denominators yield 0.
func (m measures) derive() ratios {
	return ratios{
		cpa: round2(safeDiv(m.spend, m.conversions)),
		ctr: round2(safeDiv(float64(m.clicks), float64(m.impressions)) * 100),
		cvr: round2(safeDiv(m.conversions, float64(m.clicks)) * 100),
		cpc: round2(safeDiv(m.spend, float64(m.clicks))),
		cpm: round2(safeDiv(m.spend, float64(m.impressions)) * 1000),
	}
}

func (m measures) row(level models.Level, key models.GroupKey) models.MetricsRow {
	r := m.derive()
	return models.MetricsRow{
		Level:       level,
		Key:         key,
		Spend:       round2(m.spend),
		Impressions: m.impressions,
		Clicks:      m.clicks,
		Conversions: round2(m.conversions),
		CPA:         r.cpa,
		CTR:         r.ctr,
		CVR:         r.cvr,
		CPC:         r.cpc,
		CPM:         r.cpm,
	}
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

// pctChange is (newV - oldV) / oldV * 100. With no baseline the direction is
// unknown, so it returns nil rather than 0.
func pctChange(newV, oldV float64) *float64 {
	if oldV == 0 {
		return nil
	}
	v := round2((newV - oldV) / oldV * 100)
	return &v
}

// share is part / total * 100, 0 when total is 0.
func share(part, total float64) float64 {
	return round2(safeDiv(part, total) * 100)
}
