// Package report turns a typed analysis result into exportable tables and
// the markdown brief handed to analysts.
package report

import (
	"strconv"

	"github.com/radiusdt/vector-insights/internal/models"
)

// Fixed table names next to the "<WINDOW>_<level>" metrics tables.
const (
	TableWindows        = "windows"
	TableAlerts         = "alerts"
	TableTrends         = "trends"
	TableCPMCorrelation = "cpm_correlation"
	TableNewCreatives   = "new_creatives"
	TableNewAdSets      = "new_adsets"
	TableDailyTrend     = "daily_trend"
)

// Table is a flat, string-valued table ready for CSV or spreadsheet export.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

var metricsColumns = []string{
	"entity", "campaign", "adset", "ad",
	"spend", "impressions", "clicks", "conversions",
	"cpa", "ctr_pct", "cvr_pct", "cpc", "cpm",
}

// Flatten renders every table of res in a stable order: windows, the
// metrics tables, then the findings.
func Flatten(res *models.Result) []Table {
	tables := make([]Table, 0, len(res.Metrics)+7)
	tables = append(tables, windowsTable(res.Windows))
	for _, mt := range res.Metrics {
		tables = append(tables, metricsTable(mt))
	}
	return append(tables,
		alertsTable(res.Alerts),
		trendsTable(res.Trends),
		cpmTable(res.CPMCorrelation),
		newCreativesTable(res.NewCreatives),
		newAdSetsTable(res.NewAdSets),
		dailyTable(res.DailyTrend),
	)
}

// Find returns the flat table called name.
func Find(res *models.Result, name string) (Table, bool) {
	for _, t := range Flatten(res) {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Counts maps every table name to its row count.
func Counts(res *models.Result) map[string]int {
	tables := Flatten(res)
	out := make(map[string]int, len(tables))
	for _, t := range tables {
		out[t.Name] = len(t.Rows)
	}
	return out
}

func windowsTable(ws []models.Window) Table {
	t := Table{Name: TableWindows, Columns: []string{"code", "label", "start", "end", "days"}}
	for _, w := range ws {
		t.Rows = append(t.Rows, []string{
			w.Code, w.Label, w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), strconv.Itoa(w.Days()),
		})
	}
	return t
}

func metricsTable(mt models.MetricsTable) Table {
	t := Table{Name: mt.Name(), Columns: metricsColumns}
	for _, r := range mt.Rows {
		t.Rows = append(t.Rows, []string{
			r.Entity(), r.Key.Campaign, r.Key.AdSet, r.Key.Ad,
			num(r.Spend), integer(r.Impressions), integer(r.Clicks), num(r.Conversions),
			num(r.CPA), num(r.CTR), num(r.CVR), num(r.CPC), num(r.CPM),
		})
	}
	return t
}

func alertsTable(alerts []models.AlertRecord) Table {
	t := Table{Name: TableAlerts, Columns: []string{
		"level", "entity", "windows", "kind", "current", "baseline", "delta_pct", "delta", "action", "spend",
	}}
	for _, a := range alerts {
		t.Rows = append(t.Rows, []string{
			string(a.Level), a.Entity, a.Windows, string(a.Kind),
			num(a.Current), num(a.Baseline), pct(a.DeltaPct), a.Delta, a.Action, num(a.Spend),
		})
	}
	return t
}

func trendsTable(trends []models.TrendRecord) Table {
	t := Table{Name: TableTrends, Columns: []string{
		"level", "entity", "windows", "kind", "current", "baseline", "delta_pct", "delta", "action",
		"current_spend", "prior_spend",
	}}
	for _, tr := range trends {
		t.Rows = append(t.Rows, []string{
			string(tr.Level), tr.Entity, tr.Windows, string(tr.Kind),
			num(tr.Current), num(tr.Baseline), pct(tr.DeltaPct), tr.Delta, tr.Action,
			num(tr.CurrentSpend), num(tr.PriorSpend),
		})
	}
	return t
}

func cpmTable(rows []models.CPMCorrelationRow) Table {
	t := Table{Name: TableCPMCorrelation, Columns: []string{
		"level", "entity",
		"cpm_current", "spend_current", "impressions_current",
		"cpm_prior", "spend_prior", "impressions_prior",
		"cpm_month", "spend_month", "impressions_month",
		"wow_cpm_change_pct", "mom_cpm_change_pct",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			string(r.Level), r.Entity,
			num(r.Current.CPM), num(r.Current.Spend), integer(r.Current.Impressions),
			num(r.Prior.CPM), num(r.Prior.Spend), integer(r.Prior.Impressions),
			num(r.Month.CPM), num(r.Month.Spend), integer(r.Month.Impressions),
			pct(r.WoWChangePct), pct(r.MoMChangePct),
		})
	}
	return t
}

func newCreativesTable(rows []models.NewCreativeRow) Table {
	t := Table{Name: TableNewCreatives, Columns: []string{
		"ad", "is_new", "creative_date", "spend", "impressions", "clicks", "conversions",
		"cpa", "ctr_pct", "cvr_pct", "cpc", "cpm", "spend_share_pct", "conversion_share_pct",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Ad, strconv.FormatBool(r.IsNew), r.CreativeDate,
			num(r.Spend), integer(r.Impressions), integer(r.Clicks), num(r.Conversions),
			num(r.CPA), num(r.CTR), num(r.CVR), num(r.CPC), num(r.CPM),
			num(r.SpendShare), num(r.ConversionShare),
		})
	}
	return t
}

func newAdSetsTable(rows []models.NewAdSetRow) Table {
	t := Table{Name: TableNewAdSets, Columns: []string{
		"entity", "campaign", "adset", "is_new", "current_spend", "prior_spend", "conversions", "cpa",
		"spend_share_pct", "conversion_share_pct",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Entity, r.Key.Campaign, r.Key.AdSet, strconv.FormatBool(r.IsNew),
			num(r.CurrentSpend), num(r.PriorSpend), num(r.Conversions), num(r.CPA),
			num(r.SpendShare), num(r.ConversionShare),
		})
	}
	return t
}

func dailyTable(points []models.DailyPoint) Table {
	t := Table{Name: TableDailyTrend, Columns: []string{
		"date", "spend", "impressions", "clicks", "conversions", "cpa", "ctr_pct", "cvr_pct", "cpc", "cpm",
	}}
	for _, p := range points {
		t.Rows = append(t.Rows, []string{
			p.Date, num(p.Spend), integer(p.Impressions), integer(p.Clicks), num(p.Conversions),
			num(p.CPA), num(p.CTR), num(p.CVR), num(p.CPC), num(p.CPM),
		})
	}
	return t
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func integer(i int64) string { return strconv.FormatInt(i, 10) }

// pct renders a percent change; an unknown change is an empty cell.
func pct(p *float64) string {
	if p == nil {
		return ""
	}
	return num(*p)
}
