package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRecordSource_LoadRecords(t *testing.T) {
	pool, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		INSERT INTO ad_daily_stats (account_id, date, campaign_name, adset_name, ad_name, spend, clicks, impressions, conversions) VALUES
		('act_1', '2024-03-14', 'Spring', 'Broad', 'Hook', 120.5, 30, 3000, 2),
		('act_1', '2024-03-15', 'Spring', 'Broad', 'Hook', -10, 10, 1000, 1),
		('act_1', '2024-02-01', 'Winter', 'Broad', 'Old', 50, 5, 500, 0),
		('act_2', '2024-03-15', 'Other', 'Set', 'Ad', 999, 9, 900, 9)
	`)
	require.NoError(t, err)

	src := NewPostgresRecordSource(pool, "ad_daily_stats")
	assert.Equal(t, "postgres", src.Name())

	batch, err := src.LoadRecords(ctx, RecordFilter{AccountID: "act_1", Since: date("2024-03-01")})
	require.NoError(t, err)
	assert.Equal(t, "postgres:ad_daily_stats", batch.Source)
	require.Len(t, batch.Records, 2)
	assert.Equal(t, 2, batch.Stats.Accepted)
	assert.Equal(t, 1, batch.Stats.Clamped)

	first := batch.Records[0]
	assert.Equal(t, date("2024-03-14"), first.Date)
	assert.Equal(t, "Spring", first.Campaign)
	assert.Equal(t, "Broad", first.AdSet)
	assert.Equal(t, "Hook", first.Ad)
	assert.Equal(t, 120.5, first.Spend)
	assert.Equal(t, int64(3000), first.Impressions)
	assert.Zero(t, batch.Records[1].Spend)

	all, err := src.LoadRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Records, 4)

	until, err := src.LoadRecords(ctx, RecordFilter{AccountID: "act_1", Until: date("2024-03-14")})
	require.NoError(t, err)
	assert.Len(t, until.Records, 2)
}

func TestPostgresRecordSource_BadTable(t *testing.T) {
	pool, cleanup := setupPostgres(t)
	defer cleanup()

	_, err := NewPostgresRecordSource(pool, "missing_table").LoadRecords(context.Background(), RecordFilter{})
	assert.Error(t, err)
}
