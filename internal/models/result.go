package models

import "time"

// Result is the full table set produced for one dataset.
type Result struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Source    string     `json:"source"`
	Anchor    time.Time  `json:"anchor_date"`
	Input     InputStats `json:"input"`
	Windows   []Window   `json:"windows"`

	Metrics        []MetricsTable      `json:"metrics"`
	Alerts         []AlertRecord       `json:"alerts"`
	Trends         []TrendRecord       `json:"trends"`
	CPMCorrelation []CPMCorrelationRow `json:"cpm_correlation"`
	NewCreatives   []NewCreativeRow    `json:"new_creatives"`
	NewAdSets      []NewAdSetRow       `json:"new_adsets"`
	DailyTrend     []DailyPoint        `json:"daily_trend"`
}

// Table looks up a metrics table by window code and level.
func (r *Result) Table(code string, level Level) (MetricsTable, bool) {
	for _, t := range r.Metrics {
		if t.Window.Code == code && t.Level == level {
			return t, true
		}
	}
	return MetricsTable{}, false
}

// ReportName is the base file name used by exporters.
func (r *Result) ReportName() string {
	return "Ad_Analysis_Report_" + r.Anchor.Format("20060102")
}
