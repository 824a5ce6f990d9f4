package analysis

import (
	"sort"

	"github.com/radiusdt/vector-insights/internal/models"
)

// BuildCPMCorrelation outer-joins the CPM, spend and impressions of the
// current week, prior week and trailing month per entity. Missing windows
// are filled with zeros. Percent changes are nil when the baseline CPM is
// 0: no baseline means an unknown direction, not "no change". Rows are
// sorted by current-week spend descending.
func BuildCPMCorrelation(current, prior, month []models.MetricsRow) []models.CPMCorrelationRow {
	cur, pri, mon := index(current), index(prior), index(month)

	var level models.Level
	keys := make([]models.GroupKey, 0, len(cur))
	seen := make(map[models.GroupKey]struct{})
	for _, rows := range [][]models.MetricsRow{current, prior, month} {
		for _, r := range rows {
			if r.Summary {
				continue
			}
			level = r.Level
			if _, ok := seen[r.Key]; !ok {
				seen[r.Key] = struct{}{}
				keys = append(keys, r.Key)
			}
		}
	}

	out := make([]models.CPMCorrelationRow, 0, len(keys))
	for _, k := range keys {
		c, p, m := cpmOf(cur[k]), cpmOf(pri[k]), cpmOf(mon[k])
		out = append(out, models.CPMCorrelationRow{
			Level:        level,
			Entity:       k.Label(),
			Key:          k,
			Current:      c,
			Prior:        p,
			Month:        m,
			WoWChangePct: pctChange(c.CPM, p.CPM),
			MoMChangePct: pctChange(c.CPM, m.CPM),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Current.Spend != out[j].Current.Spend {
			return out[i].Current.Spend > out[j].Current.Spend
		}
		return out[i].Entity < out[j].Entity
	})
	return out
}

func cpmOf(r models.MetricsRow) models.WindowCPM {
	return models.WindowCPM{CPM: r.CPM, Spend: r.Spend, Impressions: r.Impressions}
}
