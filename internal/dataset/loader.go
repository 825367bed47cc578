package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/sync/errgroup"
)

// requiredColumns is the schema shared by day.csv and hour.csv; the hourly
// file additionally carries the hr column.
var requiredColumns = []string{
	"instant", "dteday", "season", "yr", "mnth", "holiday", "weekday",
	"workingday", "weathersit", "temp", "atemp", "hum", "windspeed",
	"casual", "registered", "cnt",
}

// Loader reads the bike-sharing CSV files into Record slices
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new dataset loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger.With(slog.String("component", "dataset.loader")),
	}
}

// Load reads the daily and hourly files concurrently and returns a snapshot
func (l *Loader) Load(ctx context.Context, dailyPath, hourlyPath string) (*Snapshot, error) {
	start := time.Now()

	var daily, hourly []Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = l.LoadFile(gctx, dailyPath, Daily)
		return err
	})
	g.Go(func() error {
		var err error
		hourly, err = l.LoadFile(gctx, hourlyPath, Hourly)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Daily:    daily,
		Hourly:   hourly,
		LoadedAt: time.Now(),
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("daily_rows", len(daily)),
		slog.Int("hourly_rows", len(hourly)),
		slog.Duration("duration", time.Since(start)),
	)

	return snapshot, nil
}

// LoadFile reads a single CSV file at the given granularity
func (l *Loader) LoadFile(ctx context.Context, path string, granularity Granularity) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer file.Close()

	df := dataframe.ReadCSV(file)
	if df.Err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, df.Err)
	}

	records, err := l.framesToRecords(df, granularity)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	l.logger.DebugContext(ctx, "file parsed",
		slog.String("path", path),
		slog.String("granularity", string(granularity)),
		slog.Int("rows", len(records)),
	)

	return records, nil
}

// framesToRecords converts a parsed dataframe into typed records
func (l *Loader) framesToRecords(df dataframe.DataFrame, granularity Granularity) ([]Record, error) {
	if err := checkColumns(df, granularity); err != nil {
		return nil, err
	}

	n := df.Nrow()
	records := make([]Record, 0, n)

	instant, err := df.Col("instant").Int()
	if err != nil {
		return nil, fmt.Errorf("column instant: %w", err)
	}
	dates := df.Col("dteday").Records()
	season, err := df.Col("season").Int()
	if err != nil {
		return nil, fmt.Errorf("column season: %w", err)
	}
	yr, err := df.Col("yr").Int()
	if err != nil {
		return nil, fmt.Errorf("column yr: %w", err)
	}
	month, err := df.Col("mnth").Int()
	if err != nil {
		return nil, fmt.Errorf("column mnth: %w", err)
	}
	holiday, err := df.Col("holiday").Int()
	if err != nil {
		return nil, fmt.Errorf("column holiday: %w", err)
	}
	weekday, err := df.Col("weekday").Int()
	if err != nil {
		return nil, fmt.Errorf("column weekday: %w", err)
	}
	workingday, err := df.Col("workingday").Int()
	if err != nil {
		return nil, fmt.Errorf("column workingday: %w", err)
	}
	weather, err := df.Col("weathersit").Int()
	if err != nil {
		return nil, fmt.Errorf("column weathersit: %w", err)
	}
	casual, err := df.Col("casual").Int()
	if err != nil {
		return nil, fmt.Errorf("column casual: %w", err)
	}
	registered, err := df.Col("registered").Int()
	if err != nil {
		return nil, fmt.Errorf("column registered: %w", err)
	}
	cnt, err := df.Col("cnt").Int()
	if err != nil {
		return nil, fmt.Errorf("column cnt: %w", err)
	}

	temp := df.Col("temp").Float()
	atemp := df.Col("atemp").Float()
	hum := df.Col("hum").Float()
	windspeed := df.Col("windspeed").Float()

	var hours []int
	if granularity == Hourly {
		hours, err = df.Col("hr").Int()
		if err != nil {
			return nil, fmt.Errorf("column hr: %w", err)
		}
	}

	for i := 0; i < n; i++ {
		date, err := time.Parse(DateFormat, dates[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: malformed dteday %q: %w", i+1, dates[i], err)
		}

		if casual[i]+registered[i] != cnt[i] {
			return nil, fmt.Errorf("row %d: casual(%d)+registered(%d) != cnt(%d)",
				i+1, casual[i], registered[i], cnt[i])
		}

		record := Record{
			Instant:    instant[i],
			Date:       date,
			Season:     season[i],
			Year:       baseYear + yr[i],
			Month:      month[i],
			Hour:       -1,
			Holiday:    holiday[i] != 0,
			Weekday:    weekday[i],
			WorkingDay: workingday[i] != 0,
			Weather:    weather[i],
			Temp:       temp[i],
			FeelsLike:  atemp[i],
			Humidity:   hum[i],
			Windspeed:  windspeed[i],
			Casual:     casual[i],
			Registered: registered[i],
			Count:      cnt[i],
		}
		if granularity == Hourly {
			record.Hour = hours[i]
		}

		records = append(records, record)
	}

	return records, nil
}

// checkColumns verifies the fixed schema is present
func checkColumns(df dataframe.DataFrame, granularity Granularity) error {
	present := make(map[string]bool, len(df.Names()))
	for _, name := range df.Names() {
		present[name] = true
	}

	required := requiredColumns
	if granularity == Hourly {
		required = append(append([]string{}, requiredColumns...), "hr")
	}

	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %v", missing)
	}

	return nil
}
