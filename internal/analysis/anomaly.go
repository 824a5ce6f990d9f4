package analysis

import (
	"fmt"

	"github.com/radiusdt/vector-insights/internal/models"
)

// DetectAnomalies compares each entity's latest day against its trailing
// week. Only entities present in both tables and spending at least
// th.MinSpend on the latest day are evaluated; one entity can raise several
// alerts. Empty inputs yield no alerts.
//
// CPA and CTR are ratios of sums, so comparing against the trailing-week
// table is the same as comparing against its per-day average.
func DetectAnomalies(latest, week []models.MetricsRow, th AnomalyThresholds, windows string) []models.AlertRecord {
	alerts := make([]models.AlertRecord, 0)
	if len(latest) == 0 || len(week) == 0 {
		return alerts
	}

	base := index(week)
	for _, y := range withoutSummary(latest) {
		w, ok := base[y.Key]
		if !ok || y.Spend < th.MinSpend {
			continue
		}

		newAlert := func(kind models.AlertKind, current, baseline float64, delta *float64, desc, action string) models.AlertRecord {
			return models.AlertRecord{
				Level:    y.Level,
				Entity:   y.Entity(),
				Key:      y.Key,
				Windows:  windows,
				Kind:     kind,
				Current:  current,
				Baseline: baseline,
				DeltaPct: delta,
				Delta:    desc,
				Action:   action,
				Spend:    y.Spend,
			}
		}

		if w.CPA > 0 && y.CPA > th.CPASpikeRatio*w.CPA {
			d := pctChange(y.CPA, w.CPA)
			alerts = append(alerts, newAlert(models.AlertCostSpike, y.CPA, w.CPA, d,
				fmt.Sprintf("CPA %.2f vs %.2f (%s)", y.CPA, w.CPA, formatPct(d)),
				models.ActionCheckBidAudience))
		}

		if w.CTR > 0 && y.CTR < th.CTRDropRatio*w.CTR {
			d := pctChange(y.CTR, w.CTR)
			alerts = append(alerts, newAlert(models.AlertEngagementCollapse, y.CTR, w.CTR, d,
				fmt.Sprintf("CTR %.2f%% vs %.2f%% (%s)", y.CTR, w.CTR, formatPct(d)),
				models.ActionRefreshCreative))
		}

		if y.CPA == 0 && y.Spend > th.ZeroConversionMinSpend {
			alerts = append(alerts, newAlert(models.AlertZeroConversionSpend, y.Spend, w.CPA, nil,
				fmt.Sprintf("spent %.2f with 0 conversions", y.Spend),
				models.ActionVerifyTracking))
		}
	}
	return alerts
}

func formatPct(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *p)
}
