// Package dataset loads and caches the bike-sharing CSV files.
//
// The two source files (day.csv and hour.csv) share one schema apart from
// the hour column; both are parsed into Record slices through a gota
// dataframe so the rest of the system works with typed rows.
package dataset

import "time"

// Granularity distinguishes the two source tables
type Granularity string

const (
	Daily  Granularity = "daily"
	Hourly Granularity = "hourly"
)

// Record is one row of the bike-sharing dataset. Hour is -1 for daily rows.
type Record struct {
	Instant    int       `json:"instant"`
	Date       time.Time `json:"date"`
	Season     int       `json:"season"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Hour       int       `json:"hour"`
	Holiday    bool      `json:"holiday"`
	Weekday    int       `json:"weekday"`
	WorkingDay bool      `json:"working_day"`
	Weather    int       `json:"weather"`
	Temp       float64   `json:"temp"`
	FeelsLike  float64   `json:"feels_like"`
	Humidity   float64   `json:"humidity"`
	Windspeed  float64   `json:"windspeed"`
	Casual     int       `json:"casual"`
	Registered int       `json:"registered"`
	Count      int       `json:"count"`
}

// DateFormat is the layout of the dteday column
const DateFormat = "2006-01-02"

// baseYear is the dataset epoch; the yr column stores 0 or 1
const baseYear = 2011

var seasonLabels = map[int]string{
	1: "Spring",
	2: "Summer",
	3: "Fall",
	4: "Winter",
}

var weatherLabels = map[int]string{
	1: "Clear",
	2: "Mist",
	3: "Light Rain/Snow",
	4: "Heavy Rain",
}

var weekdayLabels = map[int]string{
	0: "Sunday",
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
}

// SeasonLabel maps a season code to its human-readable label
func SeasonLabel(code int) string {
	if label, ok := seasonLabels[code]; ok {
		return label
	}
	return "Unknown"
}

// WeatherLabel maps a weathersit code to its human-readable label
func WeatherLabel(code int) string {
	if label, ok := weatherLabels[code]; ok {
		return label
	}
	return "Unknown"
}

// WeekdayLabel maps a weekday code (0=Sunday) to its name
func WeekdayLabel(code int) string {
	if label, ok := weekdayLabels[code]; ok {
		return label
	}
	return "Unknown"
}

// SeasonCodes returns the known season codes in ascending order
func SeasonCodes() []int { return []int{1, 2, 3, 4} }

// WeatherCodes returns the known weathersit codes in ascending order
func WeatherCodes() []int { return []int{1, 2, 3, 4} }
