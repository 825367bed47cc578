package analytics

import (
	"bikepulse/internal/dataset"
)

// tierNames orders the rental tiers from slowest to busiest quartile
var tierNames = []string{"Low", "Medium", "High", "Very High"}

// TierNames returns the tier labels in ascending order
func TierNames() []string {
	out := make([]string, len(tierNames))
	copy(out, tierNames)
	return out
}

// TierStat summarizes one rental tier
type TierStat struct {
	Name           string  `json:"name"`
	Days           int     `json:"days"`
	MeanCount      float64 `json:"mean_count"`
	MeanCasual     float64 `json:"mean_casual"`
	MeanRegistered float64 `json:"mean_registered"`
}

// TierAnalysis is the quartile segmentation of daily demand into rental
// tiers, with user composition and seasonal/weather mix per tier.
type TierAnalysis struct {
	Stats      []TierStat `json:"stats"`
	SeasonMix  *Crosstab  `json:"season_mix"`
	WeatherMix *Crosstab  `json:"weather_mix"`
}

// AnalyzeTiers bins daily records into Low/Medium/High/Very High demand
// quartiles by cnt. The crosstabs are row-normalized to percentages.
func AnalyzeTiers(records []dataset.Record) (*TierAnalysis, error) {
	counts := make([]float64, len(records))
	for i, r := range records {
		counts[i] = float64(r.Count)
	}

	labels, err := QuartileLabels(counts, false)
	if err != nil {
		return nil, err
	}

	seasonCols := make([]string, 0, len(dataset.SeasonCodes()))
	for _, code := range dataset.SeasonCodes() {
		seasonCols = append(seasonCols, dataset.SeasonLabel(code))
	}
	weatherCols := make([]string, 0, len(dataset.WeatherCodes()))
	for _, code := range dataset.WeatherCodes() {
		weatherCols = append(weatherCols, dataset.WeatherLabel(code))
	}

	analysis := &TierAnalysis{
		SeasonMix:  NewCrosstab(tierNames, seasonCols),
		WeatherMix: NewCrosstab(tierNames, weatherCols),
	}

	type acc struct {
		days       int
		count      float64
		casual     float64
		registered float64
	}
	accs := make([]acc, len(tierNames))

	for i, r := range records {
		tier := labels[i] - 1
		accs[tier].days++
		accs[tier].count += float64(r.Count)
		accs[tier].casual += float64(r.Casual)
		accs[tier].registered += float64(r.Registered)

		analysis.SeasonMix.Add(tierNames[tier], dataset.SeasonLabel(r.Season))
		analysis.WeatherMix.Add(tierNames[tier], dataset.WeatherLabel(r.Weather))
	}

	for i, name := range tierNames {
		stat := TierStat{Name: name, Days: accs[i].days}
		if accs[i].days > 0 {
			n := float64(accs[i].days)
			stat.MeanCount = accs[i].count / n
			stat.MeanCasual = accs[i].casual / n
			stat.MeanRegistered = accs[i].registered / n
		}
		analysis.Stats = append(analysis.Stats, stat)
	}

	analysis.SeasonMix.Normalize()
	analysis.WeatherMix.Normalize()

	return analysis, nil
}
