package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiusdt/vector-insights/internal/models"
)

func TestRankedSample(t *testing.T) {
	records := []models.Record{
		rec("2024-03-15", "A", "", "", 50, 10, 1, 0),
		rec("2024-03-15", "B", "", "", 500, 10, 1, 0),
		rec("2024-03-15", "C", "", "", 5, 10, 1, 0),
		rec("2024-03-15", "D", "", "", 200, 10, 1, 0),
	}
	rows := Aggregate(records, models.LevelCampaign)
	require.True(t, rows[len(rows)-1].Summary)

	top := RankedSample(rows, 2, 0)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Key.Campaign)
	assert.Equal(t, "D", top[1].Key.Campaign)

	floored := RankedSample(rows, 0, 50)
	assert.Len(t, floored, 3)
	for _, r := range floored {
		assert.False(t, r.Summary)
	}

	assert.Len(t, rows, 5, "input must not be modified")
}

func TestRankedSample_OtherRowTypes(t *testing.T) {
	adsets := []models.NewAdSetRow{
		{Entity: "x", CurrentSpend: 1},
		{Entity: "y", CurrentSpend: 3},
		{Entity: "z", CurrentSpend: 2},
	}
	got := RankedSample(adsets, 1, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "y", got[0].Entity)
}
