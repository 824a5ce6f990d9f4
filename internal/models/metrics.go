package models

// SummaryLabel is the entity label of the weighted-average row appended to
// every metrics table.
const SummaryLabel = "ALL (weighted average)"

// ===========================================
// METRICS ROW
// ===========================================

// MetricsRow is the aggregation of the records sharing one grouping key.
// Ratios are derived from the summed measures; a zero denominator yields 0.
type MetricsRow struct {
	Level   Level    `json:"level"`
	Key     GroupKey `json:"key"`
	Summary bool     `json:"summary,omitempty"`

	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions float64 `json:"conversions"`

	CPA float64 `json:"cpa"` // spend / conversions
	CTR float64 `json:"ctr"` // clicks / impressions * 100
	CVR float64 `json:"cvr"` // conversions / clicks * 100
	CPC float64 `json:"cpc"` // spend / clicks
	CPM float64 `json:"cpm"` // spend / impressions * 1000
}

// Entity returns the display label of the row.
func (m MetricsRow) Entity() string {
	if m.Summary {
		return SummaryLabel
	}
	return m.Key.Label()
}

// SpendAmount is the ranking value used by ranked samples.
func (m MetricsRow) SpendAmount() float64 { return m.Spend }

// IsSummary reports whether the row is the synthetic weighted-average row.
func (m MetricsRow) IsSummary() bool { return m.Summary }

// MetricsTable is one aggregated table for a (window, level) pair.
type MetricsTable struct {
	Window Window       `json:"window"`
	Level  Level        `json:"level"`
	Rows   []MetricsRow `json:"rows"`
}

// Name is the export name of the table, e.g. "P7D_campaign".
func (t MetricsTable) Name() string {
	return t.Window.Code + "_" + string(t.Level)
}

// Entities returns the rows without the summary row.
func (t MetricsTable) Entities() []MetricsRow {
	out := make([]MetricsRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !r.Summary {
			out = append(out, r)
		}
	}
	return out
}

// SummaryRow returns the weighted-average row if the table has one.
func (t MetricsTable) SummaryRow() (MetricsRow, bool) {
	if n := len(t.Rows); n > 0 && t.Rows[n-1].Summary {
		return t.Rows[n-1], true
	}
	return MetricsRow{}, false
}

// ===========================================
// DAILY TREND
// ===========================================

// DailyPoint is the account-wide total for one calendar day.
type DailyPoint struct {
	Date        string  `json:"date"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions float64 `json:"conversions"`
	CPA         float64 `json:"cpa"`
	CTR         float64 `json:"ctr"`
	CVR         float64 `json:"cvr"`
	CPC         float64 `json:"cpc"`
	CPM         float64 `json:"cpm"`
}
