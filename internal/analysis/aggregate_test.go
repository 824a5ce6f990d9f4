package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiusdt/vector-insights/internal/models"
)

func TestAggregate_SummaryIsWeighted(t *testing.T) {
	records := []models.Record{
		rec("2024-03-15", "Expensive", "s1", "a1", 1000, 10000, 100, 1), // CPA 1000
		rec("2024-03-15", "Cheap", "s2", "a2", 100, 10000, 100, 99),     // CPA ~1.01
	}

	rows := Aggregate(records, models.LevelCampaign)
	require.Len(t, rows, 3)

	summary := rows[2]
	require.True(t, summary.Summary)
	assert.Equal(t, models.SummaryLabel, summary.Entity())
	assert.Equal(t, 1100.0, summary.Spend)
	assert.Equal(t, 100.0, summary.Conversions)
	assert.Equal(t, 11.0, summary.CPA)

	naive := (rows[0].CPA + rows[1].CPA) / 2
	assert.NotEqual(t, naive, summary.CPA)

	assert.Equal(t, 1.0, summary.CTR)
	assert.Equal(t, 50.0, summary.CVR)
	assert.Equal(t, 5.5, summary.CPC)
	assert.Equal(t, 55.0, summary.CPM)
}

func TestAggregate_SortsBySpendAndDropsZeroSpend(t *testing.T) {
	records := []models.Record{
		rec("2024-03-15", "Small", "", "", 10, 100, 1, 0),
		rec("2024-03-15", "Big", "", "", 500, 1000, 10, 1),
		rec("2024-03-14", "Small", "", "", 15, 100, 1, 0),
		rec("2024-03-15", "Idle", "", "", 0, 5000, 50, 2),
	}

	rows := Aggregate(records, models.LevelCampaign)
	require.Len(t, rows, 3)
	assert.Equal(t, "Big", rows[0].Key.Campaign)
	assert.Equal(t, "Small", rows[1].Key.Campaign)
	assert.Equal(t, 25.0, rows[1].Spend)

	// Idle spent nothing, so its impressions are not in the summary either.
	assert.Equal(t, int64(1200), rows[2].Impressions)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, models.LevelCampaign))

	onlyZero := []models.Record{rec("2024-03-15", "Idle", "", "", 0, 10, 1, 0)}
	assert.Empty(t, Aggregate(onlyZero, models.LevelAdSet))
}

func TestAggregate_ZeroDenominatorsYieldZero(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	records := make([]models.Record, 0, 500)
	for i := 0; i < 500; i++ {
		r := rec("2024-03-15", string(rune('A'+i%26)), "", "", rng.Float64()*100, 0, 0, 0)
		if rng.Intn(2) == 0 {
			r.Impressions = rng.Int63n(1000)
		}
		if rng.Intn(2) == 0 {
			r.Clicks = rng.Int63n(50)
		}
		if rng.Intn(3) == 0 {
			r.Conversions = float64(rng.Intn(5))
		}
		records = append(records, r)
	}

	for _, lvl := range models.Levels {
		for _, row := range Aggregate(records, lvl) {
			for _, v := range []float64{row.CPA, row.CTR, row.CVR, row.CPC, row.CPM} {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.False(t, math.IsNaN(v), "NaN ratio for %s", row.Entity())
			}
			if row.Impressions == 0 {
				assert.Zero(t, row.CTR)
				assert.Zero(t, row.CPM)
			}
			if row.Clicks == 0 {
				assert.Zero(t, row.CVR)
				assert.Zero(t, row.CPC)
			}
			if row.Conversions == 0 {
				assert.Zero(t, row.CPA)
			}
		}
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	records := []models.Record{
		rec("2024-03-15", "C1", "S1", "Ad 1", 120.5, 3000, 40, 2),
		rec("2024-03-14", "C1", "S2", "Ad 2", 80.25, 2000, 10, 0),
		rec("2024-03-15", "C2", "S3", "Ad 3", 120.5, 1000, 20, 1),
		rec("2024-03-13", "C2", "S3", "Ad 3 - Copy", 33, 900, 9, 1),
	}
	for _, lvl := range models.Levels {
		assert.Equal(t, Aggregate(records, lvl), Aggregate(records, lvl), "level %s", lvl)
	}

	reversed := make([]models.Record, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}
	assert.Equal(t, Aggregate(records, models.LevelCampaign), Aggregate(reversed, models.LevelCampaign))
}

func TestAggregate_AdLevelMergesVariants(t *testing.T) {
	records := []models.Record{
		rec("2024-03-15", "C1", "S1", "Hook A", 100, 1000, 10, 1),
		rec("2024-03-15", "C1", "S2", "Hook A - Copy", 50, 500, 5, 1),
		rec("2024-03-15", "C2", "S3", "Hook A_v2", 25, 250, 2, 0),
	}

	rows := Aggregate(records, models.LevelAd)
	require.Len(t, rows, 2)
	assert.Equal(t, "Hook A", rows[0].Key.Ad)
	assert.Equal(t, 175.0, rows[0].Spend)

	detail := Aggregate(records, models.LevelDetail)
	assert.Len(t, detail, 4)
}
