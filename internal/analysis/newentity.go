package analysis

import (
	"sort"
	"time"

	"github.com/radiusdt/vector-insights/internal/models"
)

type creativeKey struct {
	ad    string
	isNew bool
}

// ClassifyNewCreatives marks creatives whose name carries a YYYYMMDD token
// no older than th.RecencyDays before anchor. Names without a token are
// never new. Measures are summed per (creative, is-new), zero-spend rows are
// dropped, and spend/conversion shares are taken against the remaining
// totals. Returns the ranked sample of sample.TopN rows spending at least
// sample.MinSpend.
func ClassifyNewCreatives(records []models.Record, anchor time.Time, th NewCreativeThresholds, sample SampleThresholds) []models.NewCreativeRow {
	type entry struct {
		date string
		m    measures
	}
	groups := make(map[creativeKey]*entry)
	order := make([]creativeKey, 0)
	for _, r := range records {
		name := CleanAdName(r.Ad)
		d, ok := NameDate(name)
		k := creativeKey{ad: name, isNew: ok && IsRecent(d, anchor, th.RecencyDays)}
		e, found := groups[k]
		if !found {
			e = &entry{}
			if ok {
				e.date = d.Format("2006-01-02")
			}
			groups[k] = e
			order = append(order, k)
		}
		e.m.add(r)
	}

	var total measures
	for _, k := range order {
		if groups[k].m.spend > 0 {
			total.merge(groups[k].m)
		}
	}

	out := make([]models.NewCreativeRow, 0, len(order))
	for _, k := range order {
		e := groups[k]
		if e.m.spend <= 0 {
			continue
		}
		r := e.m.derive()
		out = append(out, models.NewCreativeRow{
			Ad:              k.ad,
			IsNew:           k.isNew,
			CreativeDate:    e.date,
			Spend:           round2(e.m.spend),
			Impressions:     e.m.impressions,
			Clicks:          e.m.clicks,
			Conversions:     round2(e.m.conversions),
			CPA:             r.cpa,
			CTR:             r.ctr,
			CVR:             r.cvr,
			CPC:             r.cpc,
			CPM:             r.cpm,
			SpendShare:      share(e.m.spend, total.spend),
			ConversionShare: share(e.m.conversions, total.conversions),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Spend != out[j].Spend {
			return out[i].Spend > out[j].Spend
		}
		return out[i].Ad < out[j].Ad
	})
	return RankedSample(out, sample.TopN, sample.MinSpend)
}

// ClassifyNewAdSets marks ad sets that barely existed in the prior window:
// prior spend below th.PriorMaxSpend and current spend above
// th.CurrentMinSpend. Every ad set spending in the current window is listed
// with its flag, then ranked by current spend and cut to sample.
func ClassifyNewAdSets(current, prior []models.Record, th NewAdSetThresholds, sample SampleThresholds) []models.NewAdSetRow {
	key := KeyFor(models.LevelAdSet)
	cur, order := group(current, key)
	pri, _ := group(prior, key)

	var total measures
	for _, k := range order {
		if cur[k].spend > 0 {
			total.merge(*cur[k])
		}
	}

	out := make([]models.NewAdSetRow, 0, len(order))
	for _, k := range order {
		c := cur[k]
		if c.spend <= 0 {
			continue
		}
		var priorSpend float64
		if p, ok := pri[k]; ok {
			priorSpend = p.spend
		}
		out = append(out, models.NewAdSetRow{
			Key:             k,
			Entity:          k.Label(),
			IsNew:           priorSpend < th.PriorMaxSpend && c.spend > th.CurrentMinSpend,
			CurrentSpend:    round2(c.spend),
			PriorSpend:      round2(priorSpend),
			Conversions:     round2(c.conversions),
			CPA:             round2(safeDiv(c.spend, c.conversions)),
			SpendShare:      share(c.spend, total.spend),
			ConversionShare: share(c.conversions, total.conversions),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentSpend != out[j].CurrentSpend {
			return out[i].CurrentSpend > out[j].CurrentSpend
		}
		return out[i].Entity < out[j].Entity
	})
	return RankedSample(out, sample.TopN, sample.MinSpend)
}
