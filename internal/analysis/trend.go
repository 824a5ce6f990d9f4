package analysis

import (
	"fmt"

	"github.com/radiusdt/vector-insights/internal/models"
)

// DetectTrends compares the trailing week against the prior week for every
// entity present in both, skipping entities whose current spend is below
// th.MinSpend. Every percentage uses the prior value as divisor, the same
// divisor as the threshold test.
//
// Scale-up inefficiency is an independent flag: it fires whenever spend grew
// by more than ScaleSpendRatio and CPA by more than ScaleCPARatio, even if
// cost deterioration fired for the same entity.
func DetectTrends(current, prior []models.MetricsRow, th TrendThresholds, windows string) []models.TrendRecord {
	trends := make([]models.TrendRecord, 0)
	if len(current) == 0 || len(prior) == 0 {
		return trends
	}

	base := index(prior)
	for _, c := range withoutSummary(current) {
		p, ok := base[c.Key]
		if !ok || c.Spend < th.MinSpend {
			continue
		}

		newTrend := func(kind models.TrendKind, cur, baseline float64, delta *float64, desc, action string) models.TrendRecord {
			return models.TrendRecord{
				Level:        c.Level,
				Entity:       c.Entity(),
				Key:          c.Key,
				Windows:      windows,
				Kind:         kind,
				Current:      cur,
				Baseline:     baseline,
				DeltaPct:     delta,
				Delta:        desc,
				Action:       action,
				CurrentSpend: c.Spend,
				PriorSpend:   p.Spend,
			}
		}

		if p.CPA > 0 && c.CPA > th.CPARiseRatio*p.CPA {
			d := pctChange(c.CPA, p.CPA)
			trends = append(trends, newTrend(models.TrendCostDeterioration, c.CPA, p.CPA, d,
				fmt.Sprintf("CPA %.2f vs %.2f (%s)", c.CPA, p.CPA, formatPct(d)),
				models.ActionReduceBudget))
		}

		if p.CTR > 0 && c.CTR < th.CTRDecayRatio*p.CTR {
			d := pctChange(c.CTR, p.CTR)
			trends = append(trends, newTrend(models.TrendEngagementDecay, c.CTR, p.CTR, d,
				fmt.Sprintf("CTR %.2f%% vs %.2f%% (%s)", c.CTR, p.CTR, formatPct(d)),
				models.ActionRotateCreative))
		}

		if p.Spend > 0 && p.CPA > 0 &&
			c.Spend > th.ScaleSpendRatio*p.Spend && c.CPA > th.ScaleCPARatio*p.CPA {
			spendDelta := pctChange(c.Spend, p.Spend)
			cpaDelta := pctChange(c.CPA, p.CPA)
			trends = append(trends, newTrend(models.TrendScaleUpInefficiency, c.CPA, p.CPA, cpaDelta,
				fmt.Sprintf("spend %s with CPA %s", formatPct(spendDelta), formatPct(cpaDelta)),
				models.ActionRollBackScaling))
		}
	}
	return trends
}
