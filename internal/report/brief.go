package report

import (
	"fmt"
	"strings"

	"github.com/radiusdt/vector-insights/internal/analysis"
	"github.com/radiusdt/vector-insights/internal/models"
	"github.com/radiusdt/vector-insights/internal/window"
)

var briefWindows = []string{window.Past7, window.Prior7, window.Past30}

var briefLevels = []models.Level{models.LevelCampaign, models.LevelAdSet}

// BriefOptions shapes the ranked sections of a brief.
type BriefOptions struct {
	// TopN caps every ranked section; <= 0 keeps every row.
	TopN int
	// MinSpend drops ranked rows that spent less.
	MinSpend float64
	// Preamble prepends the assistant instructions.
	Preamble bool
}

// RenderBrief renders the analyst brief of res as markdown, small enough to
// hand to a text-generation assistant together with the exported tables.
func RenderBrief(res *models.Result, opts BriefOptions) string {
	var b strings.Builder

	if opts.Preamble {
		b.WriteString(briefPreamble)
	}

	fmt.Fprintf(&b, "# %s\n\n", res.ReportName())
	fmt.Fprintf(&b, "Source: %s. Latest day in data: %s. Rows used: %d of %d.\n\n",
		res.Source, res.Anchor.Format("2006-01-02"), res.Input.Accepted, res.Input.Rows)

	b.WriteString("## Windows\n\n")
	for _, w := range res.Windows {
		fmt.Fprintf(&b, "- **%s**: %s\n", w.Code, w.Label)
	}
	b.WriteString("\n")

	b.WriteString("## Account summary\n\n")
	var summary [][]string
	for _, w := range res.Windows {
		t, ok := res.Table(w.Code, models.LevelCampaign)
		if !ok {
			continue
		}
		if s, ok := t.SummaryRow(); ok {
			summary = append(summary, append([]string{w.Code}, ratioCells(s)...))
		}
	}
	writeMarkdown(&b, append([]string{"window"}, ratioColumns...), summary)

	for _, code := range briefWindows {
		for _, lvl := range briefLevels {
			t, ok := res.Table(code, lvl)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "## Top %s by spend, %s\n\n", levelTitle(lvl), t.Window.Label)
			var rows [][]string
			for _, r := range analysis.RankedSample(t.Rows, opts.TopN, opts.MinSpend) {
				rows = append(rows, append([]string{r.Entity()}, ratioCells(r)...))
			}
			writeMarkdown(&b, append([]string{"entity"}, ratioColumns...), rows)
		}
	}

	b.WriteString("## Alerts (latest day vs past 7 days)\n\n")
	var alerts [][]string
	for _, a := range res.Alerts {
		alerts = append(alerts, []string{string(a.Level), a.Entity, string(a.Kind), a.Delta, a.Action})
	}
	writeMarkdown(&b, []string{"level", "entity", "kind", "detail", "action"}, alerts)

	b.WriteString("## Trends (past 7 days vs prior 7 days)\n\n")
	var trends [][]string
	for _, t := range res.Trends {
		trends = append(trends, []string{string(t.Level), t.Entity, string(t.Kind), t.Delta, t.Action})
	}
	writeMarkdown(&b, []string{"level", "entity", "kind", "detail", "action"}, trends)

	b.WriteString("## CPM movement\n\n")
	var cpm [][]string
	for _, r := range analysis.RankedSample(res.CPMCorrelation, opts.TopN, opts.MinSpend) {
		cpm = append(cpm, []string{
			r.Entity, num(r.Current.CPM), num(r.Prior.CPM), num(r.Month.CPM),
			pctCell(r.WoWChangePct), pctCell(r.MoMChangePct),
		})
	}
	writeMarkdown(&b, []string{"entity", "cpm_p7d", "cpm_pp7d", "cpm_p30d", "wow", "mom"}, cpm)

	b.WriteString("## New creatives (past 7 days)\n\n")
	var creatives [][]string
	for _, r := range analysis.RankedSample(res.NewCreatives, opts.TopN, opts.MinSpend) {
		creatives = append(creatives, []string{
			r.Ad, yesNo(r.IsNew), r.CreativeDate, num(r.Spend), num(r.CPA),
			num(r.SpendShare) + "%", num(r.ConversionShare) + "%",
		})
	}
	writeMarkdown(&b, []string{"ad", "new", "date", "spend", "cpa", "spend_share", "conversion_share"}, creatives)

	b.WriteString("## New ad sets (past 7 days vs prior 7 days)\n\n")
	var adsets [][]string
	for _, r := range analysis.RankedSample(res.NewAdSets, opts.TopN, opts.MinSpend) {
		adsets = append(adsets, []string{
			r.Entity, yesNo(r.IsNew), num(r.CurrentSpend), num(r.PriorSpend), num(r.CPA),
			num(r.SpendShare) + "%",
		})
	}
	writeMarkdown(&b, []string{"ad set", "new", "spend_p7d", "spend_pp7d", "cpa", "spend_share"}, adsets)

	b.WriteString("## Daily trend (past 30 days)\n\n")
	var daily [][]string
	for _, p := range res.DailyTrend {
		daily = append(daily, []string{p.Date, num(p.Spend), num(p.Conversions), num(p.CPA), num(p.CTR), num(p.CPM)})
	}
	writeMarkdown(&b, []string{"date", "spend", "conversions", "cpa", "ctr", "cpm"}, daily)

	return b.String()
}

const briefPreamble = `# Instructions

Act as a senior performance-advertising analyst. The brief below and the
exported tables cover campaigns, ad sets and ads over three windows: P7D
(past 7 days), PP7D (the 7 days before that, for week-over-week comparison)
and P30D (past 30 days, for the longer trend). Daily totals are in the daily
trend table. Key metrics are CPA, CTR, CPC, spend and conversions.

Work through these tasks in order:

1. Fluctuations. Compare P7D with PP7D at campaign and ad set level. Flag
   items whose CPA rose more than 30% or whose conversions fell sharply, and
   items whose CPA fell or conversions jumped. Say what got better and what
   got worse, not only the numbers.
2. Scaling. Name the campaigns, ad sets and ads that deserve more budget:
   P7D CPA below the account average with real conversion volume, CTR well
   above average on low impressions, or ad sets with low spend and very low
   CPA. Give the reason for each.
3. Cost cutting. Name what to pause and what to scale down: high P7D or
   P30D spend with zero conversions, CPA above 1.5x the average with weak
   CTR, and creatives whose P30D results were fine but whose P7D CPA rose
   while CTR fell.
4. Creative insight. Read the names of the best 3 to 5 ads together with
   their CTR, infer which hooks and audience angles work, compare how
   different ad sets respond to the same kind of creative, and suggest what
   the next batch of creatives should try.

---

`

var ratioColumns = []string{"spend", "conversions", "cpa", "ctr", "cvr", "cpc", "cpm"}

func ratioCells(r models.MetricsRow) []string {
	return []string{
		num(r.Spend), num(r.Conversions), num(r.CPA),
		num(r.CTR) + "%", num(r.CVR) + "%", num(r.CPC), num(r.CPM),
	}
}

func writeMarkdown(b *strings.Builder, columns []string, rows [][]string) {
	if len(rows) == 0 {
		b.WriteString("_None._\n\n")
		return
	}
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func levelTitle(l models.Level) string {
	switch l {
	case models.LevelCampaign:
		return "campaigns"
	case models.LevelAdSet:
		return "ad sets"
	case models.LevelAd:
		return "ads"
	}
	return string(l)
}

func pctCell(p *float64) string {
	if p == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", *p)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
