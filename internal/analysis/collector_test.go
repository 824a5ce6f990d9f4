package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiusdt/vector-insights/internal/models"
	"github.com/radiusdt/vector-insights/internal/window"
)

// collectorFixture spans 2024-03-02..2024-03-15. Alpha/S1 runs at a steady
// CPA of 50 until the last day, which costs 200 per conversion. Beta/S2
// launches inside the current week with no prior history.
func collectorFixture() []models.Record {
	var records []models.Record
	start := day("2024-03-02")
	for i := 0; i < 13; i++ {
		d := start.AddDate(0, 0, i).Format("2006-01-02")
		records = append(records, rec(d, "Alpha", "S1", "Hook_20240310", 100, 1000, 10, 2))
	}
	records = append(records,
		rec("2024-03-15", "Alpha", "S1", "Hook_20240310 - Copy", 200, 1000, 10, 1),
		rec("2024-03-14", "Beta", "S2", "Launch", 1500, 10000, 100, 10),
	)
	return records
}

func TestCollector_Empty(t *testing.T) {
	c := NewCollector(DefaultThresholds(), DefaultOptions())
	res, err := c.Collect(nil)
	assert.ErrorIs(t, err, ErrNoRecords)
	assert.Nil(t, res)
}

func TestCollector_Collect(t *testing.T) {
	c := NewCollector(DefaultThresholds(), DefaultOptions())
	res, err := c.Collect(collectorFixture())
	require.NoError(t, err)

	assert.Equal(t, day("2024-03-15"), res.Anchor)
	assert.Empty(t, res.ID)
	require.Len(t, res.Windows, 4)
	assert.Len(t, res.Metrics, len(res.Windows)*len(models.Levels))
	assert.Equal(t, "Ad_Analysis_Report_20240315", res.ReportName())

	week, ok := res.Table(window.Past7, models.LevelCampaign)
	require.True(t, ok)
	assert.Equal(t, "P7D_campaign", week.Name())
	summary, ok := week.SummaryRow()
	require.True(t, ok)
	assert.Equal(t, 2300.0, summary.Spend) // 6*100 + 200 + 1500
	assert.Equal(t, 23.0, summary.Conversions)
	assert.Equal(t, 100.0, summary.CPA)

	ads, ok := res.Table(window.Past7, models.LevelAd)
	require.True(t, ok)
	assert.Len(t, ads.Entities(), 2, "copy variants roll up")

	require.Len(t, res.Alerts, 2)
	for i, lvl := range []models.Level{models.LevelCampaign, models.LevelAdSet} {
		a := res.Alerts[i]
		assert.Equal(t, lvl, a.Level)
		assert.Equal(t, models.AlertCostSpike, a.Kind)
		assert.Equal(t, "Y1D vs P7D", a.Windows)
		assert.Equal(t, 200.0, a.Current)
		assert.Equal(t, 61.54, a.Baseline)
	}

	require.Len(t, res.Trends, 2)
	for _, tr := range res.Trends {
		assert.Equal(t, models.TrendCostDeterioration, tr.Kind)
		assert.Equal(t, "P7D vs PP7D", tr.Windows)
		assert.Equal(t, "Alpha", tr.Key.Campaign)
	}

	require.Len(t, res.CPMCorrelation, 2)
	assert.Equal(t, models.LevelAdSet, res.CPMCorrelation[0].Level)
	assert.Equal(t, "Beta / S2", res.CPMCorrelation[0].Entity)
	assert.Nil(t, res.CPMCorrelation[0].WoWChangePct)

	newSets := map[string]bool{}
	for _, r := range res.NewAdSets {
		newSets[r.Entity] = r.IsNew
	}
	assert.Equal(t, map[string]bool{"Beta / S2": true, "Alpha / S1": false}, newSets)

	newAds := map[string]bool{}
	for _, r := range res.NewCreatives {
		newAds[r.Ad] = r.IsNew
	}
	assert.Equal(t, map[string]bool{"Hook_20240310": true, "Launch": false}, newAds)

	require.Len(t, res.DailyTrend, 14)
	assert.Equal(t, "2024-03-02", res.DailyTrend[0].Date)
	assert.Equal(t, "2024-03-15", res.DailyTrend[13].Date)
	assert.Equal(t, 1600.0, res.DailyTrend[12].Spend)
}

func TestCollector_CustomThresholds(t *testing.T) {
	th := DefaultThresholds()
	th.Anomaly.CPASpikeRatio = 10
	th.Trend.CPARiseRatio = 10

	c := NewCollector(th, Options{})
	assert.Equal(t, th, c.Thresholds())

	res, err := c.Collect(collectorFixture())
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)
	assert.Empty(t, res.Trends)
	assert.NotNil(t, res.Alerts)
}

func TestCollector_AnchorIgnoresTimeOfDay(t *testing.T) {
	records := collectorFixture()
	records[len(records)-2].Date = records[len(records)-2].Date.Add(15 * time.Hour)

	res, err := NewCollector(DefaultThresholds(), DefaultOptions()).Collect(records)
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-15"), res.Anchor)
}

func TestCollector_SampleFloor(t *testing.T) {
	th := DefaultThresholds()
	th.Sample.MinSpend = 1000
	res, err := NewCollector(th, DefaultOptions()).Collect(collectorFixture())
	require.NoError(t, err)

	require.Len(t, res.NewCreatives, 1)
	assert.Equal(t, "Launch", res.NewCreatives[0].Ad)
	require.Len(t, res.NewAdSets, 1)
	assert.Equal(t, "S2", res.NewAdSets[0].Key.AdSet)

	th.Sample.MinSpend = 1_000_000
	res, err = NewCollector(th, DefaultOptions()).Collect(collectorFixture())
	require.NoError(t, err)
	assert.Empty(t, res.NewCreatives)
	assert.Empty(t, res.NewAdSets)
}
