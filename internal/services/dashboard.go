// Package services builds the dashboard payloads from the loaded dataset.
// Handlers decode filters, services compute, the HTTP layer renders.
package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"bikepulse/internal/analytics"
	"bikepulse/internal/dataset"
)

// DashboardService runs the filter/aggregate/segment pipeline per request.
// The store caches the parsed CSVs so repeated requests are cheap.
type DashboardService struct {
	store  *dataset.Store
	logger *slog.Logger
}

// NewDashboardService creates the dashboard service
func NewDashboardService(store *dataset.Store, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		store:  store,
		logger: logger.With(slog.String("component", "dashboard-service")),
	}
}

// Meta returns the dataset bounds for the frontend filter controls
func (s *DashboardService) Meta(ctx context.Context) (Meta, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return Meta{}, err
	}
	min, max := snap.DateRange()
	return Meta{
		MinDate:  min,
		MaxDate:  max,
		Years:    snap.Years(),
		Seasons:  dataset.SeasonCodes(),
		LoadedAt: snap.LoadedAt,
	}, nil
}

// Overview builds the landing tab
func (s *DashboardService) Overview(ctx context.Context, f analytics.Filter) (OverviewTab, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return OverviewTab{}, err
	}
	daily := analytics.Apply(snap.Daily, f)

	tab := OverviewTab{
		KPIs:       computeKPIs(daily),
		DailyTrend: make([]DailyPoint, 0, len(daily)),
		UserSplit:  userSplit(daily),
	}
	for _, r := range daily {
		tab.DailyTrend = append(tab.DailyTrend, DailyPoint{
			Date:       r.Date,
			Casual:     r.Casual,
			Registered: r.Registered,
			Count:      r.Count,
		})
	}
	return tab, nil
}

// Temporal builds the time-pattern tab
func (s *DashboardService) Temporal(ctx context.Context, f analytics.Filter) (TemporalTab, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return TemporalTab{}, err
	}
	daily := analytics.Apply(snap.Daily, f)
	hourly := analytics.Apply(snap.Hourly, f)

	count := func(r dataset.Record) float64 { return float64(r.Count) }

	return TemporalTab{
		HourlyPattern: analytics.GroupBy(hourly,
			func(r dataset.Record) int { return r.Hour }, count, nil),
		WeekdayMean: analytics.GroupBy(daily,
			func(r dataset.Record) int { return r.Weekday }, count, dataset.WeekdayLabel),
		MonthlyMean: analytics.GroupBy(daily,
			func(r dataset.Record) int { return r.Month }, count, nil),
		SeasonBox: seasonBoxes(daily),
	}, nil
}

// Weather builds the weather tab
func (s *DashboardService) Weather(ctx context.Context, f analytics.Filter) (WeatherTab, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return WeatherTab{}, err
	}
	daily := analytics.Apply(snap.Daily, f)

	count := func(r dataset.Record) float64 { return float64(r.Count) }

	tab := WeatherTab{
		WeatherMean: analytics.GroupBy(daily,
			func(r dataset.Record) int { return r.Weather }, count, dataset.WeatherLabel),
		SeasonMean: analytics.GroupBy(daily,
			func(r dataset.Record) int { return r.Season }, count, dataset.SeasonLabel),
		TempScatter: make([]ScatterPoint, 0, len(daily)),
		HumScatter:  make([]ScatterPoint, 0, len(daily)),
	}
	for _, r := range daily {
		tab.TempScatter = append(tab.TempScatter, ScatterPoint{X: r.Temp, Y: r.Count})
		tab.HumScatter = append(tab.HumScatter, ScatterPoint{X: r.Humidity, Y: r.Count})
	}
	return tab, nil
}

// Users builds the rider-type comparison tab
func (s *DashboardService) Users(ctx context.Context, f analytics.Filter) (UsersTab, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return UsersTab{}, err
	}
	daily := analytics.Apply(snap.Daily, f)
	hourly := analytics.Apply(snap.Hourly, f)

	return UsersTab{
		UserSplit: userSplit(daily),
		ByWeekday: userGroups(daily,
			func(r dataset.Record) int { return r.Weekday }, dataset.WeekdayLabel),
		ByHour: userGroups(hourly,
			func(r dataset.Record) int { return r.Hour }, nil),
		WorkingSplit: userGroups(daily,
			func(r dataset.Record) int {
				if r.WorkingDay {
					return 1
				}
				return 0
			},
			func(k int) string {
				if k == 1 {
					return "Working Day"
				}
				return "Weekend/Holiday"
			}),
	}, nil
}

// RFM builds the segmentation tab. The per-day and per-season results use
// the same score rules; the top-days table is sorted by score descending.
func (s *DashboardService) RFM(ctx context.Context, f analytics.Filter) (*RFMTab, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	daily := analytics.Apply(snap.Daily, f)

	days, err := analytics.SegmentDays(daily)
	if err != nil {
		return nil, err
	}

	tab := &RFMTab{
		Days:                days,
		TopDays:             topDays(days, 10),
		SegmentDistribution: segmentDistribution(days),
	}

	// Per-season RFM needs all four seasons in range; skip it otherwise
	seasons, err := analytics.SegmentSeasons(daily)
	switch {
	case err == nil:
		tab.Seasons = seasons
	case errors.Is(err, analytics.ErrTooFewRows):
		s.logger.DebugContext(ctx, "per-season rfm skipped", slog.String("reason", err.Error()))
	default:
		return nil, err
	}

	return tab, nil
}

// Segments builds the rental-tier tab
func (s *DashboardService) Segments(ctx context.Context, f analytics.Filter) (*SegmentsTab, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	daily := analytics.Apply(snap.Daily, f)

	tiers, err := analytics.AnalyzeTiers(daily)
	if err != nil {
		return nil, err
	}
	return &SegmentsTab{Tiers: tiers}, nil
}

// Dashboard composes every tab into one envelope. The RFM and tier tabs
// are omitted when the filtered range is too small to bin; all other
// failures propagate.
func (s *DashboardService) Dashboard(ctx context.Context, f analytics.Filter) (*Dashboard, error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		return nil, err
	}
	overview, err := s.Overview(ctx, f)
	if err != nil {
		return nil, err
	}
	temporal, err := s.Temporal(ctx, f)
	if err != nil {
		return nil, err
	}
	weather, err := s.Weather(ctx, f)
	if err != nil {
		return nil, err
	}
	users, err := s.Users(ctx, f)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Meta:     meta,
		Overview: overview,
		Temporal: temporal,
		Weather:  weather,
		Users:    users,
	}

	rfm, err := s.RFM(ctx, f)
	if err != nil && !errors.Is(err, analytics.ErrTooFewRows) {
		return nil, err
	}
	d.RFM = rfm

	segments, err := s.Segments(ctx, f)
	if err != nil && !errors.Is(err, analytics.ErrTooFewRows) {
		return nil, err
	}
	d.Segments = segments

	return d, nil
}

func computeKPIs(daily []dataset.Record) KPIs {
	k := KPIs{DayCount: len(daily)}
	var casual, registered int
	for _, r := range daily {
		k.TotalRentals += r.Count
		casual += r.Casual
		registered += r.Registered
	}
	if k.DayCount > 0 {
		k.AvgDaily = float64(k.TotalRentals) / float64(k.DayCount)
	}
	if k.TotalRentals > 0 {
		k.CasualPct = float64(casual) / float64(k.TotalRentals) * 100
		k.RegisteredPct = float64(registered) / float64(k.TotalRentals) * 100
	}
	return k
}

func userSplit(daily []dataset.Record) Pie {
	var casual, registered float64
	for _, r := range daily {
		casual += float64(r.Casual)
		registered += float64(r.Registered)
	}
	return Pie{
		Labels: []string{"Casual", "Registered"},
		Values: []float64{casual, registered},
	}
}

func userGroups(records []dataset.Record, key analytics.KeyFunc, label analytics.LabelFunc) []UserGroupStat {
	casual := analytics.GroupBy(records, key,
		func(r dataset.Record) float64 { return float64(r.Casual) }, label)
	registered := analytics.GroupBy(records, key,
		func(r dataset.Record) float64 { return float64(r.Registered) }, nil)

	out := make([]UserGroupStat, len(casual))
	for i, c := range casual {
		out[i] = UserGroupStat{
			Key:            c.Key,
			Label:          c.Label,
			MeanCasual:     c.Mean,
			MeanRegistered: registered[i].Mean,
		}
	}
	return out
}

func seasonBoxes(daily []dataset.Record) []BoxStat {
	bySeason := make(map[int][]float64)
	for _, r := range daily {
		bySeason[r.Season] = append(bySeason[r.Season], float64(r.Count))
	}

	codes := make([]int, 0, len(bySeason))
	for code := range bySeason {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	out := make([]BoxStat, 0, len(codes))
	for _, code := range codes {
		values := bySeason[code]
		sort.Float64s(values)
		out = append(out, BoxStat{
			Label:  dataset.SeasonLabel(code),
			Min:    values[0],
			Q1:     quantile(values, 0.25),
			Median: quantile(values, 0.5),
			Q3:     quantile(values, 0.75),
			Max:    values[len(values)-1],
		})
	}
	return out
}

// quantile interpolates linearly over sorted values
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func topDays(days []analytics.RFMRow, limit int) []analytics.RFMRow {
	sorted := make([]analytics.RFMRow, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func segmentDistribution(days []analytics.RFMRow) Pie {
	counts := make(map[string]int)
	for _, d := range days {
		counts[d.Segment]++
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	pie := Pie{Labels: labels, Values: make([]float64, len(labels))}
	for i, label := range labels {
		pie.Values[i] = float64(counts[label])
	}
	return pie
}
