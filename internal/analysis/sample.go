package analysis

import "sort"

// Spender is any table row that can be ranked by spend.
type Spender interface {
	SpendAmount() float64
}

type summarizer interface {
	IsSummary() bool
}

// RankedSample sorts rows by spend descending, drops summary rows and rows
// below minSpend, and keeps at most n. n <= 0 keeps every qualifying row.
// The input slice is not modified.
func RankedSample[T Spender](rows []T, n int, minSpend float64) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if s, ok := any(r).(summarizer); ok && s.IsSummary() {
			continue
		}
		if r.SpendAmount() < minSpend {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SpendAmount() > out[j].SpendAmount()
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
