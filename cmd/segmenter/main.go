// Command segmenter runs the RFM pipeline offline: it loads the bike-sharing
// CSVs, applies an optional date/year/season filter, and writes the per-day
// and per-season segmentation to CSV or XLSX.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bikepulse/internal/analytics"
	"bikepulse/internal/config"
	"bikepulse/internal/dataset"
	"bikepulse/internal/exporter"
	"bikepulse/internal/infrastructure"
)

func main() {
	dataDir := flag.String("data", "", "dataset directory (defaults to the configured data dir)")
	outDir := flag.String("out", "", "output directory (defaults to the configured export dir)")
	format := flag.String("format", "csv", "output format: csv or xlsx")
	from := flag.String("from", "", "start date (2006-01-02)")
	to := flag.String("to", "", "end date (2006-01-02)")
	years := flag.String("years", "", "comma-separated years to include")
	seasons := flag.String("seasons", "", "comma-separated season codes 1-4 to include")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *outDir == "" {
		*outDir = cfg.Data.ExportDir
	}

	cfg.Logging.Output = "console"
	logger := infrastructure.MustInitializeLogger(cfg.Logging)

	filter, err := buildFilter(*from, *to, *years, *seasons)
	if err != nil {
		logger.Error("invalid filter", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	loader := dataset.NewLoader(logger)
	snap, err := loader.Load(ctx, cfg.DailyPath(), cfg.HourlyPath())
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	daily := analytics.Apply(snap.Daily, filter)
	logger.Info("dataset filtered",
		slog.Int("total_days", len(snap.Daily)),
		slog.Int("selected_days", len(daily)))

	days, err := analytics.SegmentDays(daily)
	if err != nil {
		logger.Error("segmentation failed", "error", err)
		os.Exit(1)
	}

	seasonRows, err := analytics.SegmentSeasons(daily)
	if err != nil {
		logger.Warn("per-season segmentation skipped", "error", err)
		seasonRows = nil
	}

	switch *format {
	case "csv":
		dayPath := filepath.Join(*outDir, "rfm.csv")
		if err := exporter.SaveRFMCSV(dayPath, days); err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		logger.Info("wrote per-day segmentation", slog.String("path", dayPath))

		if len(seasonRows) > 0 {
			seasonPath := filepath.Join(*outDir, "rfm-seasons.csv")
			if err := exporter.SaveSeasonRFMCSV(seasonPath, seasonRows); err != nil {
				logger.Error("export failed", "error", err)
				os.Exit(1)
			}
			logger.Info("wrote per-season segmentation", slog.String("path", seasonPath))
		}
	case "xlsx":
		path := filepath.Join(*outDir, "rfm.xlsx")
		if err := exporter.SaveRFMXLSX(path, days, seasonRows); err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		logger.Info("wrote workbook", slog.String("path", path))
	default:
		logger.Error("unknown format", slog.String("format", *format))
		os.Exit(1)
	}

	printSummary(days)
}

func buildFilter(from, to, years, seasons string) (analytics.Filter, error) {
	var f analytics.Filter
	var err error

	if from != "" {
		if f.From, err = time.Parse(dataset.DateFormat, from); err != nil {
			return f, fmt.Errorf("invalid -from: %w", err)
		}
	}
	if to != "" {
		if f.To, err = time.Parse(dataset.DateFormat, to); err != nil {
			return f, fmt.Errorf("invalid -to: %w", err)
		}
	}
	if f.Years, err = splitInts(years); err != nil {
		return f, fmt.Errorf("invalid -years: %w", err)
	}
	if f.Seasons, err = splitInts(seasons); err != nil {
		return f, fmt.Errorf("invalid -seasons: %w", err)
	}
	for _, s := range f.Seasons {
		if s < 1 || s > 4 {
			return f, fmt.Errorf("season code out of range: %d", s)
		}
	}
	return f, nil
}

func splitInts(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func printSummary(days []analytics.RFMRow) {
	counts := make(map[string]int)
	for _, d := range days {
		counts[d.Segment]++
	}

	fmt.Printf("\nSegmented %d days:\n", len(days))
	for _, segment := range []string{
		"Best Customers", "Loyal Customers", "Recent Customers", "High Value", "Lost Customers",
	} {
		if n, ok := counts[segment]; ok {
			fmt.Printf("  %-18s %5d (%.1f%%)\n", segment, n, float64(n)/float64(len(days))*100)
		}
	}
}
