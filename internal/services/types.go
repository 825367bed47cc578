package services

import (
	"time"

	"bikepulse/internal/analytics"
)

// KPIs is the headline metric row shown above every tab
type KPIs struct {
	TotalRentals  int     `json:"total_rentals"`
	AvgDaily      float64 `json:"avg_daily"`
	DayCount      int     `json:"day_count"`
	CasualPct     float64 `json:"casual_pct"`
	RegisteredPct float64 `json:"registered_pct"`
}

// DailyPoint is one day of the rental trend line
type DailyPoint struct {
	Date       time.Time `json:"date"`
	Casual     int       `json:"casual"`
	Registered int       `json:"registered"`
	Count      int       `json:"count"`
}

// ScatterPoint pairs a weather metric with that day's rentals
type ScatterPoint struct {
	X float64 `json:"x"`
	Y int     `json:"y"`
}

// Pie is a labeled share breakdown
type Pie struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// BoxStat is the five-number summary of one distribution
type BoxStat struct {
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// UserGroupStat is a grouped mean split by user type
type UserGroupStat struct {
	Key            int     `json:"key"`
	Label          string  `json:"label"`
	MeanCasual     float64 `json:"mean_casual"`
	MeanRegistered float64 `json:"mean_registered"`
}

// OverviewTab is the landing tab: trend, split and KPIs
type OverviewTab struct {
	KPIs       KPIs         `json:"kpis"`
	DailyTrend []DailyPoint `json:"daily_trend"`
	UserSplit  Pie          `json:"user_split"`
}

// TemporalTab shows demand patterns over time dimensions
type TemporalTab struct {
	HourlyPattern []analytics.GroupStat `json:"hourly_pattern"`
	WeekdayMean   []analytics.GroupStat `json:"weekday_mean"`
	MonthlyMean   []analytics.GroupStat `json:"monthly_mean"`
	SeasonBox     []BoxStat             `json:"season_box"`
}

// WeatherTab relates weather conditions to demand
type WeatherTab struct {
	WeatherMean []analytics.GroupStat `json:"weather_mean"`
	SeasonMean  []analytics.GroupStat `json:"season_mean"`
	TempScatter []ScatterPoint        `json:"temp_scatter"`
	HumScatter  []ScatterPoint        `json:"hum_scatter"`
}

// UsersTab compares casual and registered rider behavior
type UsersTab struct {
	UserSplit    Pie             `json:"user_split"`
	ByWeekday    []UserGroupStat `json:"by_weekday"`
	ByHour       []UserGroupStat `json:"by_hour"`
	WorkingSplit []UserGroupStat `json:"working_split"`
}

// RFMTab carries the recency/frequency/monetary segmentation results
type RFMTab struct {
	Days                []analytics.RFMRow    `json:"days"`
	TopDays             []analytics.RFMRow    `json:"top_days"`
	SegmentDistribution Pie                   `json:"segment_distribution"`
	Seasons             []analytics.SeasonRFM `json:"seasons"`
}

// SegmentsTab carries the rental-tier quartile analysis
type SegmentsTab struct {
	Tiers *analytics.TierAnalysis `json:"tiers"`
}

// Meta describes the loaded dataset so the frontend can bound its controls
type Meta struct {
	MinDate  time.Time `json:"min_date"`
	MaxDate  time.Time `json:"max_date"`
	Years    []int     `json:"years"`
	Seasons  []int     `json:"seasons"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Dashboard is the full tabbed layout in one envelope
type Dashboard struct {
	Meta     Meta         `json:"meta"`
	Overview OverviewTab  `json:"overview"`
	Temporal TemporalTab  `json:"temporal"`
	Weather  WeatherTab   `json:"weather"`
	Users    UsersTab     `json:"users"`
	RFM      *RFMTab      `json:"rfm,omitempty"`
	Segments *SegmentsTab `json:"segments,omitempty"`
}
