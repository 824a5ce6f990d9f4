package storage

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/radiusdt/vector-insights/internal/models"
)

// ClickHouseStatsSchema returns the DDL creating the daily-stats table read
// by ClickHouseRecordSource.
func ClickHouseStatsSchema(table string) (string, error) {
	if err := validateTable(table); err != nil {
		return "", err
	}
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	account_id    String,
	date          Date,
	campaign_name String,
	adset_name    String,
	ad_name       String,
	spend         Float64,
	clicks        Int64,
	impressions   Int64,
	conversions   Float64
) ENGINE = MergeTree()
ORDER BY (account_id, date)
`, table), nil
}

// ClickHouseRecordSource reads daily ad stats from ClickHouse.
type ClickHouseRecordSource struct {
	conn  driver.Conn
	table string
}

// NewClickHouseRecordSource reads from table through conn.
func NewClickHouseRecordSource(conn driver.Conn, table string) *ClickHouseRecordSource {
	return &ClickHouseRecordSource{conn: conn, table: table}
}

var _ RecordSource = (*ClickHouseRecordSource)(nil)

func (s *ClickHouseRecordSource) Name() string { return "clickhouse" }

func (s *ClickHouseRecordSource) LoadRecords(ctx context.Context, filter RecordFilter) (*models.Batch, error) {
	q, args, err := statsQuery(s.table, filter, questionPlaceholder)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.Date, &r.Campaign, &r.AdSet, &r.Ad,
			&r.Spend, &r.Clicks, &r.Impressions, &r.Conversions); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", s.table, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.table, err)
	}

	return models.NewBatch(s.Name()+":"+s.table, records), nil
}
