package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radiusdt/vector-insights/internal/models"
)

// PostgresStatsSchema returns the DDL creating the daily-stats table read
// by PostgresRecordSource.
func PostgresStatsSchema(table string) (string, error) {
	if err := validateTable(table); err != nil {
		return "", err
	}
	index := "idx_" + strings.ReplaceAll(table, ".", "_") + "_account_date"
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	account_id    TEXT             NOT NULL,
	date          DATE             NOT NULL,
	campaign_name TEXT             NOT NULL DEFAULT '',
	adset_name    TEXT             NOT NULL DEFAULT '',
	ad_name       TEXT             NOT NULL DEFAULT '',
	spend         DOUBLE PRECISION NOT NULL DEFAULT 0,
	clicks        BIGINT           NOT NULL DEFAULT 0,
	impressions   BIGINT           NOT NULL DEFAULT 0,
	conversions   DOUBLE PRECISION NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s (account_id, date);
`, table, index), nil
}

// PostgresRecordSource reads daily ad stats from PostgreSQL.
type PostgresRecordSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresRecordSource reads from table through pool.
func NewPostgresRecordSource(pool *pgxpool.Pool, table string) *PostgresRecordSource {
	return &PostgresRecordSource{pool: pool, table: table}
}

var _ RecordSource = (*PostgresRecordSource)(nil)

func (s *PostgresRecordSource) Name() string { return "postgres" }

func (s *PostgresRecordSource) LoadRecords(ctx context.Context, filter RecordFilter) (*models.Batch, error) {
	q, args, err := statsQuery(s.table, filter, dollarPlaceholder)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.Date, &r.Campaign, &r.AdSet, &r.Ad,
			&r.Spend, &r.Clicks, &r.Impressions, &r.Conversions); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", s.table, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.table, err)
	}

	return models.NewBatch(s.Name()+":"+s.table, records), nil
}
