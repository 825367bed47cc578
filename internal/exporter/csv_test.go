package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bikepulse/internal/analytics"
)

func sampleRFMRows() []analytics.RFMRow {
	return []analytics.RFMRow{
		{
			Date:    time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
			Recency: 14, Frequency: 200, Monetary: 200,
			RecencyScore: 1, FrequencyScore: 1, MonetaryScore: 1,
			Score: "111", Segment: "Lost Customers",
		},
		{
			Date:    time.Date(2011, 1, 15, 0, 0, 0, 0, time.UTC),
			Recency: 0, Frequency: 800, Monetary: 800,
			RecencyScore: 4, FrequencyScore: 4, MonetaryScore: 4,
			Score: "444", Segment: "Best Customers",
		},
	}
}

func sampleSeasonRows() []analytics.SeasonRFM {
	return []analytics.SeasonRFM{
		{
			Season: 1, SeasonName: "Spring",
			Recency: 274, Frequency: 2, Monetary: 200,
			RecencyNorm: 1, MonetaryNorm: 0,
			RecencyScore: 1, FrequencyScore: 2, MonetaryScore: 1,
			Score: "121", Segment: "Lost Customers",
		},
	}
}

func TestWriteRFMCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRFMCSV(&buf, sampleRFMRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, rfmHeader, records[0])
	assert.Equal(t, []string{"2011-01-01", "14", "200", "200", "1", "1", "1", "111", "Lost Customers"}, records[1])
	assert.Equal(t, "444", records[2][7])
}

func TestWriteSeasonRFMCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSeasonRFMCSV(&buf, sampleSeasonRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, seasonHeader, records[0])
	assert.Equal(t, "Spring", records[1][0])
	assert.Equal(t, "121", records[1][10])
}

func TestSaveRFMCSVCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "rfm.csv")

	require.NoError(t, SaveRFMCSV(path, sampleRFMRows()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteRFMXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRFMXLSX(&buf, sampleRFMRows(), sampleSeasonRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), daySheet)
	assert.Contains(t, f.GetSheetList(), seasonSheet)

	cell, err := f.GetCellValue(daySheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2011-01-01", cell)

	segment, err := f.GetCellValue(daySheet, "I3")
	require.NoError(t, err)
	assert.Equal(t, "Best Customers", segment)

	season, err := f.GetCellValue(seasonSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Spring", season)
}

func TestWriteRFMXLSXNoSeasons(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRFMXLSX(&buf, sampleRFMRows(), nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.NotContains(t, f.GetSheetList(), seasonSheet)
}
