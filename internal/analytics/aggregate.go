package analytics

import (
	"sort"

	"bikepulse/internal/dataset"
)

// GroupStat is one bucket of a grouped aggregation
type GroupStat struct {
	Key   int     `json:"key"`
	Label string  `json:"label"`
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
}

// KeyFunc extracts the grouping key from a record
type KeyFunc func(dataset.Record) int

// ValueFunc extracts the aggregated value from a record
type ValueFunc func(dataset.Record) float64

// LabelFunc maps a key to its display label
type LabelFunc func(int) string

// GroupBy aggregates values over one categorical key. The result has one
// entry per distinct key in the input, ordered by key ascending; empty input
// yields an empty result. Mean over zero rows cannot occur because buckets
// only exist for observed keys.
func GroupBy(records []dataset.Record, key KeyFunc, value ValueFunc, label LabelFunc) []GroupStat {
	buckets := make(map[int]*GroupStat)
	for _, r := range records {
		k := key(r)
		b, ok := buckets[k]
		if !ok {
			b = &GroupStat{Key: k}
			if label != nil {
				b.Label = label(k)
			}
			buckets[k] = b
		}
		b.Count++
		b.Sum += value(r)
	}

	out := make([]GroupStat, 0, len(buckets))
	for _, b := range buckets {
		b.Mean = b.Sum / float64(b.Count)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Crosstab is a two-way count table with fixed row and column label order
type Crosstab struct {
	Rows  []string    `json:"rows"`
	Cols  []string    `json:"cols"`
	Cells [][]float64 `json:"cells"`
}

// NewCrosstab creates an empty table over the given label axes
func NewCrosstab(rows, cols []string) *Crosstab {
	cells := make([][]float64, len(rows))
	for i := range cells {
		cells[i] = make([]float64, len(cols))
	}
	return &Crosstab{Rows: rows, Cols: cols, Cells: cells}
}

// Add increments the cell at (row, col); unknown labels are ignored
func (c *Crosstab) Add(row, col string) {
	i := indexOf(c.Rows, row)
	j := indexOf(c.Cols, col)
	if i < 0 || j < 0 {
		return
	}
	c.Cells[i][j]++
}

// Normalize converts each row to percentages summing to 100. Rows with a
// zero total stay zero rather than dividing by zero.
func (c *Crosstab) Normalize() {
	for i, row := range c.Cells {
		var total float64
		for _, v := range row {
			total += v
		}
		if total == 0 {
			continue
		}
		for j, v := range row {
			c.Cells[i][j] = v / total * 100
		}
	}
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}
	return -1
}
