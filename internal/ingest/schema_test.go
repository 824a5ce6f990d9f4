package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ChineseHeaders(t *testing.T) {
	header := []string{"\ufeff天數", "行銷活動名稱", "廣告組合名稱", "廣告名稱", "花費金額 (TWD)", "連結點擊次數", "曝光次數", "free-course"}
	m, err := NewSchema("").Resolve("upload", header)
	require.NoError(t, err)
	for _, f := range []Field{FieldDate, FieldCampaign, FieldAdSet, FieldAd, FieldSpend, FieldClicks, FieldImpressions, FieldConversions} {
		assert.True(t, m.Has(f), f)
	}
}

func TestResolve_CaseAndSpaceInsensitive(t *testing.T) {
	header := []string{"DAY", "campaign NAME", "amount spent(twd)", "link  clicks", "impressions", "RESULTS"}
	m, err := NewSchema("").Resolve("upload", header)
	require.NoError(t, err)
	assert.True(t, m.Has(FieldCampaign))
	assert.False(t, m.Has(FieldAdSet))
	assert.False(t, m.Has(FieldAd))
}

func TestResolve_ConversionOverride(t *testing.T) {
	header := []string{"Day", "Ad name", "Spend", "Clicks", "Impressions", "Results", "Leads"}

	m, err := NewSchema("Leads").Resolve("upload", header)
	require.NoError(t, err)
	rec, _ := m.Record([]string{"2024-03-01", "a", "10", "1", "100", "7", "3"})
	assert.Equal(t, 3.0, rec.Conversions)

	_, err = NewSchema("Signups").Resolve("upload", header)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "conversions", se.Column)
	assert.Equal(t, []string{"Signups"}, se.Candidates)
}

func TestResolve_WithOverride(t *testing.T) {
	base := NewSchema("")
	s := base.WithOverride(FieldSpend, "Budget used")
	header := []string{"Day", "Campaign", "Budget used", "Spend", "Clicks", "Impressions", "Results"}

	m, err := s.Resolve("upload", header)
	require.NoError(t, err)
	rec, _ := m.Record([]string{"2024-03-01", "c", "99", "1", "1", "100", "1"})
	assert.Equal(t, 99.0, rec.Spend)

	assert.Equal(t, DefaultAliases[FieldSpend], base.Candidates(FieldSpend), "base schema is unchanged")
}

func TestResolve_MissingColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		column string
	}{
		{"no date", []string{"Campaign", "Spend", "Clicks", "Impressions", "Results"}, "date"},
		{"no spend", []string{"Day", "Campaign", "Clicks", "Impressions", "Results"}, "spend"},
		{"no impressions", []string{"Day", "Campaign", "Spend", "Clicks", "Results"}, "impressions"},
		{"no hierarchy", []string{"Day", "Spend", "Clicks", "Impressions", "Results"}, "campaign/adset/ad"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchema("").Resolve("march.csv", tt.header)
			var se *SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.column, se.Column)
			assert.Equal(t, "march.csv", se.Table)
			assert.NotEmpty(t, se.Candidates)
			assert.Contains(t, err.Error(), `"march.csv"`)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234.50", 1234.5, true},
		{"NT$1,000", 1000, true},
		{"$12.5", 12.5, true},
		{"300 TWD", 300, true},
		{"", 0, true},
		{"-", 0, true},
		{"-20", -20, true},
		{"abc", 0, false},
		{"NaN", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-03-05", "2024/03/05", "2024/3/5", "20240305", "2024-03-05 13:45:00", "2024-03-05T23:59:59Z", "03/05/2024"} {
		d, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.Equal(t, "2024-03-05", d.Format("2006-01-02"), in)
		assert.Zero(t, d.Hour(), in)
	}
	for _, in := range []string{"", "yesterday", "2024-13-01", "Total"} {
		_, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
}
