// Package analytics implements the dashboard pipeline over loaded records:
// filtering, grouped aggregation, crosstabs, min-max scaling, RFM
// segmentation and rental-tier analysis.
package analytics

import (
	"time"

	"bikepulse/internal/dataset"
)

// Filter selects records by inclusive date range and optional year and
// season membership. Zero-value fields leave that dimension unfiltered.
type Filter struct {
	From    time.Time
	To      time.Time
	Years   []int
	Seasons []int
}

// Match reports whether a record passes the filter
func (f Filter) Match(r dataset.Record) bool {
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	if len(f.Years) > 0 && !containsInt(f.Years, r.Year) {
		return false
	}
	if len(f.Seasons) > 0 && !containsInt(f.Seasons, r.Season) {
		return false
	}
	return true
}

// Apply returns the records passing the filter, in input order. An empty
// result is legal and flows through as zero rows.
func Apply(records []dataset.Record, f Filter) []dataset.Record {
	out := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
