// Package exporter writes RFM segmentation results to CSV and XLSX, for
// both file export from the CLI and streaming downloads over HTTP.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"bikepulse/internal/analytics"
	"bikepulse/internal/dataset"
)

// rfmHeader is the column order for per-day RFM exports
var rfmHeader = []string{
	"date", "recency", "frequency", "monetary",
	"r_score", "f_score", "m_score", "rfm_score", "segment",
}

// seasonHeader is the column order for per-season RFM exports
var seasonHeader = []string{
	"season", "recency", "frequency", "monetary",
	"recency_norm", "frequency_norm", "monetary_norm",
	"r_score", "f_score", "m_score", "rfm_score", "segment",
}

// WriteRFMCSV streams per-day RFM rows as CSV
func WriteRFMCSV(w io.Writer, rows []analytics.RFMRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rfmHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Date.Format(dataset.DateFormat),
			strconv.Itoa(row.Recency),
			strconv.Itoa(row.Frequency),
			formatFloat(row.Monetary),
			strconv.Itoa(row.RecencyScore),
			strconv.Itoa(row.FrequencyScore),
			strconv.Itoa(row.MonetaryScore),
			row.Score,
			row.Segment,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeasonRFMCSV streams per-season RFM rows as CSV
func WriteSeasonRFMCSV(w io.Writer, rows []analytics.SeasonRFM) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(seasonHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.SeasonName,
			strconv.Itoa(row.Recency),
			strconv.Itoa(row.Frequency),
			formatFloat(row.Monetary),
			formatFloat(row.RecencyNorm),
			formatFloat(row.FrequencyNorm),
			formatFloat(row.MonetaryNorm),
			strconv.Itoa(row.RecencyScore),
			strconv.Itoa(row.FrequencyScore),
			strconv.Itoa(row.MonetaryScore),
			row.Score,
			row.Segment,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveRFMCSV writes per-day RFM rows to a file, creating the directory
func SaveRFMCSV(path string, rows []analytics.RFMRow) error {
	return saveToFile(path, func(f io.Writer) error {
		return WriteRFMCSV(f, rows)
	})
}

// SaveSeasonRFMCSV writes per-season RFM rows to a file
func SaveSeasonRFMCSV(path string, rows []analytics.SeasonRFM) error {
	return saveToFile(path, func(f io.Writer) error {
		return WriteSeasonRFMCSV(f, rows)
	})
}

func saveToFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
