package analysis

import "fmt"

// AnomalyThresholds drive the latest-day vs trailing-week detector.
type AnomalyThresholds struct {
	MinSpend               float64 `yaml:"min_spend" json:"min_spend"`
	ZeroConversionMinSpend float64 `yaml:"zero_conversion_min_spend" json:"zero_conversion_min_spend"`
	CPASpikeRatio          float64 `yaml:"cpa_spike_ratio" json:"cpa_spike_ratio"`
	CTRDropRatio           float64 `yaml:"ctr_drop_ratio" json:"ctr_drop_ratio"`
}

// TrendThresholds drive the week-over-week detector.
type TrendThresholds struct {
	MinSpend        float64 `yaml:"min_spend" json:"min_spend"`
	CPARiseRatio    float64 `yaml:"cpa_rise_ratio" json:"cpa_rise_ratio"`
	CTRDecayRatio   float64 `yaml:"ctr_decay_ratio" json:"ctr_decay_ratio"`
	ScaleSpendRatio float64 `yaml:"scale_spend_ratio" json:"scale_spend_ratio"`
	ScaleCPARatio   float64 `yaml:"scale_cpa_ratio" json:"scale_cpa_ratio"`
}

// NewCreativeThresholds configure the name-date recency classifier.
type NewCreativeThresholds struct {
	RecencyDays int `yaml:"recency_days" json:"recency_days"`
}

// NewAdSetThresholds configure the spend-shift classifier.
type NewAdSetThresholds struct {
	PriorMaxSpend   float64 `yaml:"prior_max_spend" json:"prior_max_spend"`
	CurrentMinSpend float64 `yaml:"current_min_spend" json:"current_min_spend"`
}

// SampleThresholds bound every ranked top-N table.
type SampleThresholds struct {
	TopN     int     `yaml:"top_n" json:"top_n"`
	MinSpend float64 `yaml:"min_spend" json:"min_spend"`
}

// Thresholds enumerates every tunable rule. It is passed by value so a
// detector can never change what another one sees.
type Thresholds struct {
	Anomaly     AnomalyThresholds     `yaml:"anomaly" json:"anomaly"`
	Trend       TrendThresholds       `yaml:"trend" json:"trend"`
	NewCreative NewCreativeThresholds `yaml:"new_creative" json:"new_creative"`
	NewAdSet    NewAdSetThresholds    `yaml:"new_adset" json:"new_adset"`
	Sample      SampleThresholds      `yaml:"sample" json:"sample"`
}

// DefaultThresholds returns the built-in rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Anomaly: AnomalyThresholds{
			MinSpend:               100,
			ZeroConversionMinSpend: 300,
			CPASpikeRatio:          1.3,
			CTRDropRatio:           0.8,
		},
		Trend: TrendThresholds{
			MinSpend:        500,
			CPARiseRatio:    1.2,
			CTRDecayRatio:   0.85,
			ScaleSpendRatio: 1.2,
			ScaleCPARatio:   1.1,
		},
		NewCreative: NewCreativeThresholds{RecencyDays: 14},
		NewAdSet: NewAdSetThresholds{
			PriorMaxSpend:   100,
			CurrentMinSpend: 1000,
		},
		Sample: SampleThresholds{TopN: 20},
	}
}

// Validate rejects rule sets that cannot produce meaningful output.
func (t Thresholds) Validate() error {
	nonNeg := map[string]float64{
		"anomaly.min_spend":                 t.Anomaly.MinSpend,
		"anomaly.zero_conversion_min_spend": t.Anomaly.ZeroConversionMinSpend,
		"trend.min_spend":                   t.Trend.MinSpend,
		"new_adset.prior_max_spend":         t.NewAdSet.PriorMaxSpend,
		"new_adset.current_min_spend":       t.NewAdSet.CurrentMinSpend,
		"sample.min_spend":                  t.Sample.MinSpend,
	}
	for name, v := range nonNeg {
		if v < 0 {
			return fmt.Errorf("threshold %s must be >= 0, got %v", name, v)
		}
	}
	positive := map[string]float64{
		"anomaly.cpa_spike_ratio": t.Anomaly.CPASpikeRatio,
		"anomaly.ctr_drop_ratio":  t.Anomaly.CTRDropRatio,
		"trend.cpa_rise_ratio":    t.Trend.CPARiseRatio,
		"trend.ctr_decay_ratio":   t.Trend.CTRDecayRatio,
		"trend.scale_spend_ratio": t.Trend.ScaleSpendRatio,
		"trend.scale_cpa_ratio":   t.Trend.ScaleCPARatio,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("threshold %s must be > 0, got %v", name, v)
		}
	}
	if t.NewCreative.RecencyDays < 0 {
		return fmt.Errorf("threshold new_creative.recency_days must be >= 0, got %d", t.NewCreative.RecencyDays)
	}
	if t.NewAdSet.CurrentMinSpend < t.NewAdSet.PriorMaxSpend {
		return fmt.Errorf("threshold new_adset.current_min_spend (%v) is below prior_max_spend (%v)",
			t.NewAdSet.CurrentMinSpend, t.NewAdSet.PriorMaxSpend)
	}
	if t.Sample.TopN < 0 {
		return fmt.Errorf("threshold sample.top_n must be >= 0, got %d", t.Sample.TopN)
	}
	return nil
}
