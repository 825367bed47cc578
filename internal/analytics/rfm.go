package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"bikepulse/internal/dataset"
)

// ErrTooFewRows is returned when a quartile cut has fewer rows than buckets
var ErrTooFewRows = errors.New("too few rows for quartile binning")

const quartiles = 4

// RFMRow is the per-day recency/frequency/monetary result. Frequency and
// monetary both proxy on cnt since the dataset carries no price field.
type RFMRow struct {
	Date           time.Time `json:"date"`
	Recency        int       `json:"recency"`
	Frequency      int       `json:"frequency"`
	Monetary       float64   `json:"monetary"`
	RecencyScore   int       `json:"r_score"`
	FrequencyScore int       `json:"f_score"`
	MonetaryScore  int       `json:"m_score"`
	Score          string    `json:"rfm_score"`
	Segment        string    `json:"segment"`
}

// SeasonRFM is the per-season variant with min-max-normalized metrics
type SeasonRFM struct {
	Season         int     `json:"season"`
	SeasonName     string  `json:"season_name"`
	Recency        int     `json:"recency"`
	Frequency      int     `json:"frequency"`
	Monetary       float64 `json:"monetary"`
	RecencyNorm    float64 `json:"recency_norm"`
	FrequencyNorm  float64 `json:"frequency_norm"`
	MonetaryNorm   float64 `json:"monetary_norm"`
	RecencyScore   int     `json:"r_score"`
	FrequencyScore int     `json:"f_score"`
	MonetaryScore  int     `json:"m_score"`
	Score          string  `json:"rfm_score"`
	Segment        string  `json:"segment"`
}

// SegmentLabel classifies an (R, F, M) score triple. The rule list is
// ordered; the first matching rule wins.
func SegmentLabel(r, f, m int) string {
	switch {
	case r >= 3 && f >= 3 && m >= 3:
		return "Best Customers"
	case r >= 3 && f >= 3:
		return "Loyal Customers"
	case r >= 3:
		return "Recent Customers"
	case f >= 3 && m >= 3:
		return "High Value"
	default:
		return "Lost Customers"
	}
}

// QuartileLabels bins values into equal-population quartile labels 1-4.
// Ties are broken by input position so duplicate-heavy columns still yield
// four buckets. When reversed, the smallest values receive label 4.
func QuartileLabels(values []float64, reversed bool) ([]int, error) {
	n := len(values)
	if n < quartiles {
		return nil, fmt.Errorf("%w: have %d rows, need %d", ErrTooFewRows, n, quartiles)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	labels := make([]int, n)
	for rank, idx := range order {
		label := rank*quartiles/n + 1
		if reversed {
			label = quartiles + 1 - label
		}
		labels[idx] = label
	}
	return labels, nil
}

// SegmentDays computes per-day RFM over daily records. Recency counts days
// back from the latest date in the input; frequency and monetary are cnt.
// Output is ordered by date ascending.
func SegmentDays(records []dataset.Record) ([]RFMRow, error) {
	if len(records) < quartiles {
		return nil, fmt.Errorf("%w: have %d rows, need %d", ErrTooFewRows, len(records), quartiles)
	}

	sorted := make([]dataset.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	maxDate := sorted[len(sorted)-1].Date

	rows := make([]RFMRow, len(sorted))
	recency := make([]float64, len(sorted))
	counts := make([]float64, len(sorted))
	for i, r := range sorted {
		days := int(maxDate.Sub(r.Date).Hours() / 24)
		rows[i] = RFMRow{
			Date:      r.Date,
			Recency:   days,
			Frequency: r.Count,
			Monetary:  float64(r.Count),
		}
		recency[i] = float64(days)
		counts[i] = float64(r.Count)
	}

	rScores, err := QuartileLabels(recency, true)
	if err != nil {
		return nil, err
	}
	fScores, err := QuartileLabels(counts, false)
	if err != nil {
		return nil, err
	}
	mScores, err := QuartileLabels(counts, false)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].RecencyScore = rScores[i]
		rows[i].FrequencyScore = fScores[i]
		rows[i].MonetaryScore = mScores[i]
		rows[i].Score = fmt.Sprintf("%d%d%d", rScores[i], fScores[i], mScores[i])
		rows[i].Segment = SegmentLabel(rScores[i], fScores[i], mScores[i])
	}
	return rows, nil
}

// SegmentSeasons computes per-season RFM over daily records. Recency counts
// days from the season's latest date to one day past the range maximum,
// frequency is the number of days observed and monetary is the mean cnt.
// Output is ordered by season code.
func SegmentSeasons(records []dataset.Record) ([]SeasonRFM, error) {
	type seasonAcc struct {
		maxDate time.Time
		days    int
		total   float64
	}

	accs := make(map[int]*seasonAcc)
	var rangeMax time.Time
	for _, r := range records {
		if r.Date.After(rangeMax) {
			rangeMax = r.Date
		}
		acc, ok := accs[r.Season]
		if !ok {
			acc = &seasonAcc{}
			accs[r.Season] = acc
		}
		if r.Date.After(acc.maxDate) {
			acc.maxDate = r.Date
		}
		acc.days++
		acc.total += float64(r.Count)
	}

	if len(accs) < quartiles {
		return nil, fmt.Errorf("%w: have %d seasons, need %d", ErrTooFewRows, len(accs), quartiles)
	}

	seasons := make([]int, 0, len(accs))
	for s := range accs {
		seasons = append(seasons, s)
	}
	sort.Ints(seasons)

	anchor := rangeMax.AddDate(0, 0, 1)

	out := make([]SeasonRFM, len(seasons))
	recency := make([]float64, len(seasons))
	frequency := make([]float64, len(seasons))
	monetary := make([]float64, len(seasons))
	for i, s := range seasons {
		acc := accs[s]
		days := int(anchor.Sub(acc.maxDate).Hours() / 24)
		out[i] = SeasonRFM{
			Season:     s,
			SeasonName: dataset.SeasonLabel(s),
			Recency:    days,
			Frequency:  acc.days,
			Monetary:   acc.total / float64(acc.days),
		}
		recency[i] = float64(days)
		frequency[i] = float64(acc.days)
		monetary[i] = out[i].Monetary
	}

	rNorm := MinMaxScale(recency)
	fNorm := MinMaxScale(frequency)
	mNorm := MinMaxScale(monetary)

	rScores, err := QuartileLabels(recency, true)
	if err != nil {
		return nil, err
	}
	fScores, err := QuartileLabels(frequency, false)
	if err != nil {
		return nil, err
	}
	mScores, err := QuartileLabels(monetary, false)
	if err != nil {
		return nil, err
	}

	for i := range out {
		out[i].RecencyNorm = rNorm[i]
		out[i].FrequencyNorm = fNorm[i]
		out[i].MonetaryNorm = mNorm[i]
		out[i].RecencyScore = rScores[i]
		out[i].FrequencyScore = fScores[i]
		out[i].MonetaryScore = mScores[i]
		out[i].Score = fmt.Sprintf("%d%d%d", rScores[i], fScores[i], mScores[i])
		out[i].Segment = SegmentLabel(rScores[i], fScores[i], mScores[i])
	}
	return out, nil
}
