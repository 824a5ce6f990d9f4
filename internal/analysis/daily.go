package analysis

import (
	"sort"
	"time"

	"github.com/radiusdt/vector-insights/internal/models"
)

// DailyTrend totals records per calendar day, oldest first.
func DailyTrend(records []models.Record) []models.DailyPoint {
	days := make(map[time.Time]*measures)
	for _, r := range records {
		d := models.Day(r.Date)
		m, ok := days[d]
		if !ok {
			m = &measures{}
			days[d] = m
		}
		m.add(r)
	}

	keys := make([]time.Time, 0, len(days))
	for d := range days {
		keys = append(keys, d)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]models.DailyPoint, 0, len(keys))
	for _, d := range keys {
		m := days[d]
		r := m.derive()
		out = append(out, models.DailyPoint{
			Date:        d.Format("2006-01-02"),
			Spend:       round2(m.spend),
			Impressions: m.impressions,
			Clicks:      m.clicks,
			Conversions: round2(m.conversions),
			CPA:         r.cpa,
			CTR:         r.ctr,
			CVR:         r.cvr,
			CPC:         r.cpc,
			CPM:         r.cpm,
		})
	}
	return out
}
