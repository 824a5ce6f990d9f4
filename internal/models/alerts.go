package models

// ===========================================
// ALERTS
// ===========================================

// AlertKind categorizes a short-horizon anomaly.
type AlertKind string

const (
	AlertCostSpike           AlertKind = "cost_spike"
	AlertEngagementCollapse  AlertKind = "engagement_collapse"
	AlertZeroConversionSpend AlertKind = "zero_conversion_spend"
)

// TrendKind categorizes a week-over-week deterioration.
type TrendKind string

const (
	TrendCostDeterioration   TrendKind = "cost_deterioration"
	TrendEngagementDecay     TrendKind = "engagement_decay"
	TrendScaleUpInefficiency TrendKind = "scale_up_inefficiency"
)

// Suggested action tags attached to alerts and trends.
const (
	ActionCheckBidAudience = "check_bid_and_audience"
	ActionRefreshCreative  = "refresh_creative"
	ActionVerifyTracking   = "pause_or_verify_tracking"
	ActionReduceBudget     = "reduce_budget"
	ActionRotateCreative   = "rotate_creative"
	ActionRollBackScaling  = "roll_back_scaling"
)

// AlertRecord flags an entity whose latest day deviates from its trailing week.
type AlertRecord struct {
	Level    Level     `json:"level"`
	Entity   string    `json:"entity"`
	Key      GroupKey  `json:"key"`
	Windows  string    `json:"windows"` // e.g. "Y1D vs P7D"
	Kind     AlertKind `json:"kind"`
	Current  float64   `json:"current"`
	Baseline float64   `json:"baseline"`
	DeltaPct *float64  `json:"delta_pct"`
	Delta    string    `json:"delta"`
	Action   string    `json:"action"`
	Spend    float64   `json:"spend"`
}

// TrendRecord flags an entity whose trailing week deteriorated against the prior week.
type TrendRecord struct {
	Level        Level     `json:"level"`
	Entity       string    `json:"entity"`
	Key          GroupKey  `json:"key"`
	Windows      string    `json:"windows"` // e.g. "P7D vs PP7D"
	Kind         TrendKind `json:"kind"`
	Current      float64   `json:"current"`
	Baseline     float64   `json:"baseline"`
	DeltaPct     *float64  `json:"delta_pct"`
	Delta        string    `json:"delta"`
	Action       string    `json:"action"`
	CurrentSpend float64   `json:"current_spend"`
	PriorSpend   float64   `json:"prior_spend"`
}

// ===========================================
// CPM CORRELATION
// ===========================================

// WindowCPM is the auction-price slice of a metrics row for one window.
type WindowCPM struct {
	CPM         float64 `json:"cpm"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
}

// CPMCorrelationRow joins one entity's CPM across the current week, prior
// week and trailing month. A nil change means there was no baseline.
type CPMCorrelationRow struct {
	Level   Level     `json:"level"`
	Entity  string    `json:"entity"`
	Key     GroupKey  `json:"key"`
	Current WindowCPM `json:"current"`
	Prior   WindowCPM `json:"prior"`
	Month   WindowCPM `json:"month"`

	WoWChangePct *float64 `json:"wow_cpm_change_pct"`
	MoMChangePct *float64 `json:"mom_cpm_change_pct"`
}

// SpendAmount ranks correlation rows by current-week spend.
func (c CPMCorrelationRow) SpendAmount() float64 { return c.Current.Spend }

// ===========================================
// NEW ENTITIES
// ===========================================

// NewCreativeRow is one creative classified by the date token in its name.
type NewCreativeRow struct {
	Ad           string `json:"ad"`
	IsNew        bool   `json:"is_new"`
	CreativeDate string `json:"creative_date,omitempty"`

	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions float64 `json:"conversions"`
	CPA         float64 `json:"cpa"`
	CTR         float64 `json:"ctr"`
	CVR         float64 `json:"cvr"`
	CPC         float64 `json:"cpc"`
	CPM         float64 `json:"cpm"`

	SpendShare      float64 `json:"spend_share_pct"`
	ConversionShare float64 `json:"conversion_share_pct"`
}

// SpendAmount ranks creatives by spend.
func (n NewCreativeRow) SpendAmount() float64 { return n.Spend }

// NewAdSetRow is one ad set classified by the shift of spend between windows.
type NewAdSetRow struct {
	Key    GroupKey `json:"key"`
	Entity string   `json:"entity"`
	IsNew  bool     `json:"is_new"`

	CurrentSpend float64 `json:"current_spend"`
	PriorSpend   float64 `json:"prior_spend"`
	Conversions  float64 `json:"conversions"`
	CPA          float64 `json:"cpa"`

	SpendShare      float64 `json:"spend_share_pct"`
	ConversionShare float64 `json:"conversion_share_pct"`
}

// SpendAmount ranks ad sets by current-window spend.
func (n NewAdSetRow) SpendAmount() float64 { return n.CurrentSpend }
