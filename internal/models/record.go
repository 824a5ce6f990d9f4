package models

import (
	"strings"
	"time"
)

// ===========================================
// RECORD
// ===========================================

// Record is one dated observation for a single ad. Every measure is
// non-negative once it has passed through Clamp.
type Record struct {
	Date     time.Time `json:"date"`
	Campaign string    `json:"campaign"`
	AdSet    string    `json:"adset"`
	Ad       string    `json:"ad"`

	Spend       float64 `json:"spend"`
	Clicks      int64   `json:"clicks"`
	Impressions int64   `json:"impressions"`
	Conversions float64 `json:"conversions"`
}

// Clamp zeroes negative measures and reports whether anything changed.
func (r Record) Clamp() (Record, bool) {
	clamped := false
	if r.Spend < 0 {
		r.Spend, clamped = 0, true
	}
	if r.Clicks < 0 {
		r.Clicks, clamped = 0, true
	}
	if r.Impressions < 0 {
		r.Impressions, clamped = 0, true
	}
	if r.Conversions < 0 {
		r.Conversions, clamped = 0, true
	}
	return r, clamped
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InputStats describes what happened to the rows of a source table.
type InputStats struct {
	Rows      int `json:"rows"`
	Accepted  int `json:"accepted"`
	BadDate   int `json:"bad_date"`
	BadNumber int `json:"bad_number"`
	Clamped   int `json:"clamped"`
}

// Batch is a normalized record set handed to the analysis core.
type Batch struct {
	Source  string     `json:"source"`
	Records []Record   `json:"-"`
	Stats   InputStats `json:"stats"`
}

// NewBatch normalizes records that were already typed by their source:
// dates are truncated to the day and negative measures are clamped.
func NewBatch(source string, records []Record) *Batch {
	b := &Batch{Source: source, Records: make([]Record, 0, len(records))}
	for _, r := range records {
		b.Stats.Rows++
		if r.Date.IsZero() {
			b.Stats.BadDate++
			continue
		}
		r.Date = Day(r.Date)
		var clamped bool
		if r, clamped = r.Clamp(); clamped {
			b.Stats.Clamped++
		}
		b.Records = append(b.Records, r)
		b.Stats.Accepted++
	}
	return b
}

// ===========================================
// HIERARCHY
// ===========================================

// Level is a hierarchy granularity used as a grouping key.
type Level string

const (
	LevelAd       Level = "ad"
	LevelAdSet    Level = "adset"
	LevelCampaign Level = "campaign"
	LevelDetail   Level = "detail" // campaign + ad set + ad
)

// Levels lists every granularity in collection order.
var Levels = []Level{LevelAd, LevelAdSet, LevelCampaign, LevelDetail}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	for _, v := range Levels {
		if v == l {
			return true
		}
	}
	return false
}

// GroupKey identifies an entity. Fields that are not part of the level are empty.
type GroupKey struct {
	Campaign string `json:"campaign,omitempty"`
	AdSet    string `json:"adset,omitempty"`
	Ad       string `json:"ad,omitempty"`
}

// Label joins the non-empty parts of the key with " / ".
func (k GroupKey) Label() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{k.Campaign, k.AdSet, k.Ad} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " / ")
}

// ===========================================
// WINDOW
// ===========================================

// Window is a named, inclusive date interval.
type Window struct {
	Code  string    `json:"code"`  // Y1D, P7D, PP7D, P30D
	Label string    `json:"label"` // display label with the date range
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether d falls inside the window, both ends inclusive.
func (w Window) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the number of calendar days covered.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}
