package analysis

import (
	"time"

	"github.com/radiusdt/vector-insights/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// campaignRow builds a campaign-level row through the same derivation the
// aggregator uses.
func campaignRow(name string, spend float64, impressions, clicks int64, conversions float64) models.MetricsRow {
	m := measures{spend: spend, impressions: impressions, clicks: clicks, conversions: conversions}
	return m.row(models.LevelCampaign, models.GroupKey{Campaign: name})
}

func rec(date, campaign, adset, ad string, spend float64, impressions, clicks int64, conversions float64) models.Record {
	return models.Record{
		Date:        day(date),
		Campaign:    campaign,
		AdSet:       adset,
		Ad:          ad,
		Spend:       spend,
		Impressions: impressions,
		Clicks:      clicks,
		Conversions: conversions,
	}
}
