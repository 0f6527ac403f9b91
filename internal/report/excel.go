// Package report renders dashboard snapshots into downloadable Excel
// workbooks for the civic agencies that still live in spreadsheets.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/citypulse-labs/bengaluru-climate/internal/climate"
	"github.com/citypulse-labs/bengaluru-climate/internal/geo"
)

const (
	summarySheet  = "Summary"
	forecastSheet = "Forecast"
	lakesSheet    = "Lakes"
)

// sheetWriter sets cells and keeps the first error instead of forcing a
// check on every write.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) set(sheet, cell string, value interface{}) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellValue(sheet, cell, value)
}

// Workbook renders the snapshot into an xlsx workbook held in memory.
// An empty snapshot yields climate.ErrNoData rather than a blank file.
func Workbook(snap *climate.Snapshot, lakes []geo.Lake) (*bytes.Buffer, error) {
	if snap.Empty() {
		return nil, fmt.Errorf("%w: nothing to report", climate.ErrNoData)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	w := &sheetWriter{f: f}
	writeSummary(w, snap)

	if len(snap.Forecast) > 0 {
		if _, err := f.NewSheet(forecastSheet); err != nil {
			return nil, fmt.Errorf("add sheet: %w", err)
		}
		writeForecast(w, snap.Forecast)
	}

	if len(lakes) > 0 {
		if _, err := f.NewSheet(lakesSheet); err != nil {
			return nil, fmt.Errorf("add sheet: %w", err)
		}
		writeLakes(w, snap, lakes)
	}

	if w.err != nil {
		return nil, fmt.Errorf("write workbook: %w", w.err)
	}

	idx, err := f.GetSheetIndex(summarySheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)

	return f.WriteToBuffer()
}

func writeSummary(w *sheetWriter, snap *climate.Snapshot) {
	w.set(summarySheet, "A1", "Bengaluru Climate Report")
	w.set(summarySheet, "A2", "Location")
	w.set(summarySheet, "B2", fmt.Sprintf("%s (%.3f, %.3f)", snap.Location.City, snap.Location.Lat, snap.Location.Lon))
	w.set(summarySheet, "A3", "Generated")
	w.set(summarySheet, "B3", snap.FetchedAt.UTC().Format(time.RFC3339))

	row := 5
	if weather := snap.Weather; weather != nil {
		w.set(summarySheet, fmt.Sprintf("A%d", row), "Current weather")
		row++
		for _, item := range []struct {
			label string
			value interface{}
		}{
			{"Temperature (C)", weather.TemperatureC},
			{"Feels like (C)", weather.ApparentC},
			{"Humidity (%)", weather.HumidityPct},
			{"Wind (km/h)", weather.WindSpeedKmh},
			{"Precipitation (mm)", weather.PrecipMm},
			{"Condition", string(weather.Condition)},
		} {
			w.set(summarySheet, fmt.Sprintf("A%d", row), item.label)
			w.set(summarySheet, fmt.Sprintf("B%d", row), item.value)
			row++
		}
		row++
	}

	if d := snap.Derived; d != nil {
		w.set(summarySheet, fmt.Sprintf("A%d", row), "Derived metrics")
		row++
		if d.AQI != nil {
			w.set(summarySheet, fmt.Sprintf("A%d", row), "Simplified AQI")
			w.set(summarySheet, fmt.Sprintf("B%d", row), *d.AQI)
			w.set(summarySheet, fmt.Sprintf("C%d", row), string(d.AQICategory))
			row++
		}
		if d.HeatIndexC != nil {
			w.set(summarySheet, fmt.Sprintf("A%d", row), "Heat index (C)")
			w.set(summarySheet, fmt.Sprintf("B%d", row), *d.HeatIndexC)
			row++
		}
		if d.ComfortIndex != nil {
			w.set(summarySheet, fmt.Sprintf("A%d", row), "Comfort index")
			w.set(summarySheet, fmt.Sprintf("B%d", row), *d.ComfortIndex)
			row++
		}
		if d.LakeHealthScore != nil {
			w.set(summarySheet, fmt.Sprintf("A%d", row), "Lake outlook")
			w.set(summarySheet, fmt.Sprintf("B%d", row), *d.LakeHealthScore)
			w.set(summarySheet, fmt.Sprintf("C%d", row), string(d.LakeHealthCategory))
			row++
		}
		for _, advisory := range d.Advisories {
			w.set(summarySheet, fmt.Sprintf("A%d", row), "Advisory")
			w.set(summarySheet, fmt.Sprintf("B%d", row), advisory)
			row++
		}
		row++
	}

	w.set(summarySheet, fmt.Sprintf("A%d", row), "Sources")
	row++
	for _, src := range snap.Sources {
		status := "ok"
		if !src.OK {
			status = src.Error
		}
		w.set(summarySheet, fmt.Sprintf("A%d", row), src.Name)
		w.set(summarySheet, fmt.Sprintf("B%d", row), status)
		w.set(summarySheet, fmt.Sprintf("C%d", row), fmt.Sprintf("%d ms", src.LatencyMs))
		row++
	}
}

func writeForecast(w *sheetWriter, days []climate.ForecastDay) {
	for col, header := range []string{"Date", "Min (C)", "Max (C)", "Rain (mm)", "Rain chance (%)", "Max wind (km/h)", "Condition"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		w.set(forecastSheet, cell, header)
	}
	for i, day := range days {
		row := i + 2
		w.set(forecastSheet, fmt.Sprintf("A%d", row), day.Date)
		w.set(forecastSheet, fmt.Sprintf("B%d", row), day.TempMinC)
		w.set(forecastSheet, fmt.Sprintf("C%d", row), day.TempMaxC)
		w.set(forecastSheet, fmt.Sprintf("D%d", row), day.PrecipMm)
		w.set(forecastSheet, fmt.Sprintf("E%d", row), day.PrecipProbPct)
		w.set(forecastSheet, fmt.Sprintf("F%d", row), day.WindMaxKmh)
		w.set(forecastSheet, fmt.Sprintf("G%d", row), string(day.Condition))
	}
}

func writeLakes(w *sheetWriter, snap *climate.Snapshot, lakes []geo.Lake) {
	for col, header := range []string{"Lake", "Baseline", "Current score", "Category"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		w.set(lakesSheet, cell, header)
	}
	for i, lake := range lakes {
		row := i + 2
		score, category := climate.LakeScore(lake.HealthBaseline, snap.Weather)
		w.set(lakesSheet, fmt.Sprintf("A%d", row), lake.Name)
		w.set(lakesSheet, fmt.Sprintf("B%d", row), lake.HealthBaseline)
		w.set(lakesSheet, fmt.Sprintf("C%d", row), score)
		w.set(lakesSheet, fmt.Sprintf("D%d", row), string(category))
	}
}
