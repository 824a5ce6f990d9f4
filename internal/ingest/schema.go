// Package ingest adapts raw tabular exports onto the canonical record
// schema. Header detection, numeric and date parsing and the structural
// errors of a bad upload all live here; nothing past this package sees a
// source-specific column name.
package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/radiusdt/vector-insights/internal/models"
)

// ErrEmptyDataset is returned when no dated rows remain after parsing.
var ErrEmptyDataset = errors.New("ingest: dataset has no dated rows")

// SchemaError reports a required column that could not be found.
type SchemaError struct {
	Table      string
	Column     string
	Candidates []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %q: missing %s column (accepted headers: %s)",
		e.Table, e.Column, strings.Join(e.Candidates, ", "))
}

// ===========================================
// FIELDS
// ===========================================

// Field is a canonical column.
type Field string

const (
	FieldDate        Field = "date"
	FieldCampaign    Field = "campaign"
	FieldAdSet       Field = "adset"
	FieldAd          Field = "ad"
	FieldSpend       Field = "spend"
	FieldClicks      Field = "clicks"
	FieldImpressions Field = "impressions"
	FieldConversions Field = "conversions"
)

var (
	requiredFields  = []Field{FieldDate, FieldSpend, FieldClicks, FieldImpressions, FieldConversions}
	hierarchyFields = []Field{FieldCampaign, FieldAdSet, FieldAd}
)

// DefaultAliases lists the accepted headers of every field, covering the
// English and Traditional Chinese ads-manager exports.
var DefaultAliases = map[Field][]string{
	FieldDate:        {"天數", "日期", "Day", "Date", "Reporting starts", "報告開始"},
	FieldCampaign:    {"行銷活動名稱", "Campaign name", "Campaign", "campaign_name"},
	FieldAdSet:       {"廣告組合名稱", "Ad set name", "Ad set", "adset_name"},
	FieldAd:          {"廣告名稱", "Ad name", "Ad", "ad_name"},
	FieldSpend:       {"花費金額 (TWD)", "花費金額", "Amount spent (TWD)", "Amount spent (USD)", "Amount spent", "Spend", "Cost"},
	FieldClicks:      {"連結點擊次數", "Link clicks", "Clicks"},
	FieldImpressions: {"曝光次數", "Impressions"},
	FieldConversions: {"free-course", "成果", "Results", "Conversions", "Purchases", "購買次數"},
}

// normalizeHeader folds case and drops whitespace and a UTF-8 BOM so
// "Amount Spent (TWD)" and "amount spent(twd)" compare equal.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	var b strings.Builder
	for _, r := range h {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// ===========================================
// SCHEMA
// ===========================================

// Schema resolves source headers to canonical fields.
type Schema struct {
	aliases   map[Field][]string
	overrides map[Field]string
}

// NewSchema returns the default schema. A non-empty conversionColumn is the
// header that counts as a conversion, taking precedence over the aliases.
func NewSchema(conversionColumn string) Schema {
	s := Schema{
		aliases:   make(map[Field][]string, len(DefaultAliases)),
		overrides: make(map[Field]string),
	}
	for f, a := range DefaultAliases {
		s.aliases[f] = append([]string(nil), a...)
	}
	if c := strings.TrimSpace(conversionColumn); c != "" {
		s.overrides[FieldConversions] = c
	}
	return s
}

// WithOverride returns a copy of s that maps f to header exactly. Overrides
// win over aliases.
func (s Schema) WithOverride(f Field, header string) Schema {
	out := Schema{aliases: s.aliases, overrides: make(map[Field]string, len(s.overrides)+1)}
	for k, v := range s.overrides {
		out.overrides[k] = v
	}
	out.overrides[f] = header
	return out
}

// Candidates lists the headers accepted for f, override first.
func (s Schema) Candidates(f Field) []string {
	if o, ok := s.overrides[f]; ok {
		return []string{o}
	}
	return s.aliases[f]
}

// Resolve maps header onto the canonical fields. A missing required column,
// or a table with none of the hierarchy columns, yields a *SchemaError.
func (s Schema) Resolve(table string, header []string) (Mapping, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		n := normalizeHeader(h)
		if _, dup := pos[n]; !dup {
			pos[n] = i
		}
	}

	m := Mapping{index: make(map[Field]int, len(DefaultAliases))}
	find := func(f Field) bool {
		for _, c := range s.Candidates(f) {
			if i, ok := pos[normalizeHeader(c)]; ok {
				m.index[f] = i
				return true
			}
		}
		return false
	}

	for _, f := range requiredFields {
		if !find(f) {
			return Mapping{}, &SchemaError{Table: table, Column: string(f), Candidates: s.Candidates(f)}
		}
	}

	var anyLevel bool
	var levelCandidates []string
	for _, f := range hierarchyFields {
		if find(f) {
			anyLevel = true
		}
		levelCandidates = append(levelCandidates, s.Candidates(f)...)
	}
	if !anyLevel {
		return Mapping{}, &SchemaError{Table: table, Column: "campaign/adset/ad", Candidates: levelCandidates}
	}
	return m, nil
}

// ===========================================
// MAPPING
// ===========================================

// Mapping is a resolved header: the column index of every present field.
type Mapping struct {
	index map[Field]int
}

// Has reports whether f was found in the header.
func (m Mapping) Has(f Field) bool {
	_, ok := m.index[f]
	return ok
}

func (m Mapping) cell(row []string, f Field) string {
	i, ok := m.index[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// rowStatus describes how a single row parsed.
type rowStatus struct {
	badDate   bool
	badNumber bool
	clamped   bool
}

// Record converts one data row. A row whose date does not parse is
// reported as badDate and must be dropped. Unparseable numbers count as 0.
func (m Mapping) Record(row []string) (models.Record, rowStatus) {
	var st rowStatus
	d, ok := ParseDate(m.cell(row, FieldDate))
	if !ok {
		st.badDate = true
		return models.Record{}, st
	}

	num := func(f Field) float64 {
		v, ok := ParseNumber(m.cell(row, f))
		if !ok {
			st.badNumber = true
		}
		return v
	}

	r := models.Record{
		Date:        d,
		Campaign:    m.cell(row, FieldCampaign),
		AdSet:       m.cell(row, FieldAdSet),
		Ad:          m.cell(row, FieldAd),
		Spend:       num(FieldSpend),
		Clicks:      int64(math.Round(num(FieldClicks))),
		Impressions: int64(math.Round(num(FieldImpressions))),
		Conversions: num(FieldConversions),
	}
	r, st.clamped = r.Clamp()
	return r, st
}

// ===========================================
// PARSING
// ===========================================

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
	"20060102",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

// ParseDate accepts the date formats ads exports use and returns the day at
// midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.Day(t), true
		}
	}
	return time.Time{}, false
}

var numberNoise = strings.NewReplacer(
	",", "", "NT$", "", "US$", "", "$", "", "¥", "", "€", "", "£", "",
	"TWD", "", "USD", "", " ", "", "\u00a0", "",
)

// ParseNumber reads a measure cell. Thousands separators and currency
// marks are ignored; blank and "-" cells are 0. The bool is false only for
// cells that still fail to parse, which also read as 0.
func ParseNumber(s string) (float64, bool) {
	s = numberNoise.Replace(strings.TrimSpace(s))
	if s == "" || s == "-" || s == "--" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
