package storage

import (
	"fmt"
	"regexp"
	"strings"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

func validateTable(table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

// statsQuery builds the daily-stats SELECT for filter. placeholder renders
// the n-th (1-based) bind parameter in the driver's dialect.
func statsQuery(table string, filter RecordFilter, placeholder func(n int) string) (string, []any, error) {
	if err := validateTable(table); err != nil {
		return "", nil, err
	}

	var (
		where []string
		args  []any
	)
	bind := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, placeholder(len(args))))
	}
	if filter.AccountID != "" {
		bind("account_id = %s", filter.AccountID)
	}
	if !filter.Since.IsZero() {
		bind("date >= %s", filter.Since)
	}
	if !filter.Until.IsZero() {
		bind("date <= %s", filter.Until)
	}

	var b strings.Builder
	b.WriteString("SELECT date, campaign_name, adset_name, ad_name, spend, clicks, impressions, conversions FROM ")
	b.WriteString(table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY date")
	return b.String(), args, nil
}

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func questionPlaceholder(int) string { return "?" }
