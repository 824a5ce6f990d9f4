package analysis

import (
	"regexp"
	"strings"
	"time"
)

var (
	copySuffix    = regexp.MustCompile(`(?i)(?:\s+|\s*[-_]\s*|\s*[(（]\s*)(?:copy|複本|副本)\s*\d*\s*[)）]?$`)
	versionSuffix = regexp.MustCompile(`(?i)[\s_-]+v\d+$`)
	whitespace    = regexp.MustCompile(`\s+`)
	digitRun      = regexp.MustCompile(`\d+`)
)

// CleanAdName folds duplicated or versioned creatives onto one name:
// "Hook A - Copy 2", "Hook A (複本)" and "Hook A_v3" all become "Hook A".
func CleanAdName(name string) string {
	cleaned := whitespace.ReplaceAllString(strings.TrimSpace(name), " ")
	for {
		next := strings.TrimSpace(versionSuffix.ReplaceAllString(copySuffix.ReplaceAllString(cleaned, ""), ""))
		if next == cleaned {
			break
		}
		cleaned = next
	}
	if cleaned == "" {
		return strings.TrimSpace(name)
	}
	return cleaned
}

// NameDate extracts the first valid YYYYMMDD token from name. A token is a
// run of exactly eight digits starting with 19 or 20.
func NameDate(name string) (time.Time, bool) {
	for _, run := range digitRun.FindAllString(name, -1) {
		if len(run) != 8 || (!strings.HasPrefix(run, "19") && !strings.HasPrefix(run, "20")) {
			continue
		}
		if d, err := time.Parse("20060102", run); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// IsRecent reports whether d is no older than days before anchor.
// Dates after the anchor count as recent.
func IsRecent(d, anchor time.Time, days int) bool {
	return !d.Before(anchor.AddDate(0, 0, -days))
}
