package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bikepulse/internal/analytics"
	"bikepulse/internal/dataset"
)

const (
	daySheet    = "RFM Days"
	seasonSheet = "RFM Seasons"
)

// WriteRFMXLSX streams a workbook with per-day and per-season RFM sheets
func WriteRFMXLSX(w io.Writer, days []analytics.RFMRow, seasons []analytics.SeasonRFM) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", daySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(rfmHeader))
	for i, h := range rfmHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(daySheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range days {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.Date.Format(dataset.DateFormat),
			row.Recency, row.Frequency, row.Monetary,
			row.RecencyScore, row.FrequencyScore, row.MonetaryScore,
			row.Score, row.Segment,
		}
		if err := f.SetSheetRow(daySheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(seasons) > 0 {
		if _, err := f.NewSheet(seasonSheet); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		header := make([]interface{}, len(seasonHeader))
		for i, h := range seasonHeader {
			header[i] = h
		}
		if err := f.SetSheetRow(seasonSheet, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		for i, row := range seasons {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			values := []interface{}{
				row.SeasonName,
				row.Recency, row.Frequency, row.Monetary,
				row.RecencyNorm, row.FrequencyNorm, row.MonetaryNorm,
				row.RecencyScore, row.FrequencyScore, row.MonetaryScore,
				row.Score, row.Segment,
			}
			if err := f.SetSheetRow(seasonSheet, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveRFMXLSX writes the workbook to a file
func SaveRFMXLSX(path string, days []analytics.RFMRow, seasons []analytics.SeasonRFM) error {
	return saveToFile(path, func(w io.Writer) error {
		return WriteRFMXLSX(w, days, seasons)
	})
}
