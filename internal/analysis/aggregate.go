package analysis

import (
	"sort"

	"github.com/radiusdt/vector-insights/internal/models"
)

// KeyFunc maps a record to its grouping key.
type KeyFunc func(models.Record) models.GroupKey

// KeyFor returns the grouping function of a hierarchy level. Ad-level keys
// use the cleaned creative name so duplicated variants roll up together.
func KeyFor(level models.Level) KeyFunc {
	switch level {
	case models.LevelAd:
		return func(r models.Record) models.GroupKey {
			return models.GroupKey{Ad: CleanAdName(r.Ad)}
		}
	case models.LevelAdSet:
		return func(r models.Record) models.GroupKey {
			return models.GroupKey{Campaign: r.Campaign, AdSet: r.AdSet}
		}
	case models.LevelCampaign:
		return func(r models.Record) models.GroupKey {
			return models.GroupKey{Campaign: r.Campaign}
		}
	default:
		return func(r models.Record) models.GroupKey {
			return models.GroupKey{Campaign: r.Campaign, AdSet: r.AdSet, Ad: r.Ad}
		}
	}
}

// Aggregate groups records at level and returns one row per group with
// spend > 0, sorted by spend descending, followed by a single weighted
// summary row. The summary is derived from the summed measures of the
// surviving groups, never from their per-row ratios. When no group
// survives the table is empty.
func Aggregate(records []models.Record, level models.Level) []models.MetricsRow {
	groups, order := group(records, KeyFor(level))

	rows := make([]models.MetricsRow, 0, len(order)+1)
	var total measures
	for _, k := range order {
		m := groups[k]
		if m.spend <= 0 {
			continue
		}
		total.merge(*m)
		rows = append(rows, m.row(level, k))
	}
	if len(rows) == 0 {
		return rows
	}

	sortBySpend(rows)

	summary := total.row(level, models.GroupKey{})
	summary.Summary = true
	return append(rows, summary)
}

// group sums measures per key, remembering first-seen order.
func group(records []models.Record, key KeyFunc) (map[models.GroupKey]*measures, []models.GroupKey) {
	groups := make(map[models.GroupKey]*measures)
	order := make([]models.GroupKey, 0)
	for _, r := range records {
		k := key(r)
		m, ok := groups[k]
		if !ok {
			m = &measures{}
			groups[k] = m
			order = append(order, k)
		}
		m.add(r)
	}
	return groups, order
}

// sortBySpend orders rows by spend descending with the entity label as a
// tie-breaker so repeated runs produce identical tables.
func sortBySpend(rows []models.MetricsRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Spend != rows[j].Spend {
			return rows[i].Spend > rows[j].Spend
		}
		return rows[i].Key.Label() < rows[j].Key.Label()
	})
}

// withoutSummary drops synthetic rows before a join.
func withoutSummary(rows []models.MetricsRow) []models.MetricsRow {
	out := make([]models.MetricsRow, 0, len(rows))
	for _, r := range rows {
		if !r.Summary {
			out = append(out, r)
		}
	}
	return out
}

// index keys entity rows for an inner or outer join.
func index(rows []models.MetricsRow) map[models.GroupKey]models.MetricsRow {
	idx := make(map[models.GroupKey]models.MetricsRow, len(rows))
	for _, r := range rows {
		if !r.Summary {
			idx[r.Key] = r
		}
	}
	return idx
}
