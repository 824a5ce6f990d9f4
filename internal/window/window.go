// Package window carves a record set into the named observation windows
// used by the analysis core. Every window is relative to the anchor date,
// the most recent day present in the dataset.
package window

import (
	"fmt"
	"time"

	"github.com/radiusdt/vector-insights/internal/models"
)

// Window codes.
const (
	Yesterday = "Y1D"
	Past7     = "P7D"
	Prior7    = "PP7D"
	Past30    = "P30D"
)

// Set is the group of windows derived from one anchor date.
type Set struct {
	Anchor    time.Time
	Yesterday models.Window
	Current   models.Window // trailing 7 days
	Prior     models.Window // the 7 days before Current
	Month     models.Window // trailing 30 days
}

// Partition maps a window code to the records inside it. Windows overlap,
// so one record may appear under several codes.
type Partition map[string][]models.Record

// Anchor returns the latest day found in records.
func Anchor(records []models.Record) (time.Time, bool) {
	var latest time.Time
	for _, r := range records {
		if d := models.Day(r.Date); d.After(latest) {
			latest = d
		}
	}
	return latest, !latest.IsZero()
}

// Build derives the window set for anchor.
func Build(anchor time.Time) Set {
	anchor = models.Day(anchor)
	return Set{
		Anchor:    anchor,
		Yesterday: newWindow(Yesterday, "Latest day", anchor, anchor),
		Current:   newWindow(Past7, "Past 7 days", anchor.AddDate(0, 0, -6), anchor),
		Prior:     newWindow(Prior7, "Prior 7 days", anchor.AddDate(0, 0, -13), anchor.AddDate(0, 0, -7)),
		Month:     newWindow(Past30, "Past 30 days", anchor.AddDate(0, 0, -29), anchor),
	}
}

// All returns the windows in collection order.
func (s Set) All() []models.Window {
	return []models.Window{s.Yesterday, s.Current, s.Prior, s.Month}
}

// Split assigns records to every window of the set.
func (s Set) Split(records []models.Record) Partition {
	p := make(Partition, 4)
	for _, w := range s.All() {
		p[w.Code] = Slice(records, w)
	}
	return p
}

// Slice returns the records whose date falls inside w.
func Slice(records []models.Record, w models.Window) []models.Record {
	out := make([]models.Record, 0)
	for _, r := range records {
		if w.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

func newWindow(code, name string, start, end time.Time) models.Window {
	return models.Window{
		Code:  code,
		Label: fmt.Sprintf("%s (%s ~ %s)", name, start.Format("2006-01-02"), end.Format("2006-01-02")),
		Start: start,
		End:   end,
	}
}
