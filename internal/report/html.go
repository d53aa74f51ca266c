// Package report renders daily summaries of the processed dataset as an
// HTML dashboard and as static trend plots.
package report

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pulse.report/internal/dataset"
	"github.com/banshee-data/pulse.report/internal/fsutil"
)

// DashboardName is the filename of the rendered HTML dashboard.
const DashboardName = "dashboard.html"

// WriteDashboard renders line charts of the daily aggregates plus a
// per-metric coverage bar chart into a single standalone HTML page
// under dir. Missing daily values render as gaps in the lines.
func WriteDashboard(fs fsutil.FileSystem, dir string, daily []dataset.DailyRow) error {
	dates := make([]string, len(daily))
	for i, row := range daily {
		dates[i] = row.Date
	}

	subtitle := fmt.Sprintf("%d days", len(daily))
	if len(daily) > 0 {
		subtitle = fmt.Sprintf("%s to %s (%d days)", daily[0].Date, daily[len(daily)-1].Date, len(daily))
	}

	vitals := newLineChart("Daily Vitals", subtitle, dates)
	vitals.AddSeries("hr", lineData(daily, func(r dataset.DailyRow) *float64 { return r.HR }))
	vitals.AddSeries("stress", lineData(daily, func(r dataset.DailyRow) *float64 { return r.Stress }))
	vitals.AddSeries("resp", lineData(daily, func(r dataset.DailyRow) *float64 { return r.Resp }))

	battery := newLineChart("Body Battery", "last observed level per day", dates)
	battery.AddSeries("bb", lineData(daily, func(r dataset.DailyRow) *float64 { return r.BB }))

	activity := newLineChart("Activity", "daily totals from the user summary", dates)
	activity.AddSeries("steps", lineData(daily, func(r dataset.DailyRow) *float64 { return r.Steps }))
	activity.AddSeries("kcal", lineData(daily, func(r dataset.DailyRow) *float64 { return r.Kcal }))

	coverage := charts.NewBar()
	coverage.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Minute Coverage", Subtitle: "fraction of grid slots with an observation"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	coverage.SetXAxis(dates).
		AddSeries("hr", barData(daily, func(r dataset.DailyRow) float64 { return r.CoverageHR })).
		AddSeries("stress", barData(daily, func(r dataset.DailyRow) float64 { return r.CoverageStress })).
		AddSeries("resp", barData(daily, func(r dataset.DailyRow) float64 { return r.CoverageResp })).
		AddSeries("bb", barData(daily, func(r dataset.DailyRow) float64 { return r.CoverageBB }))

	page := components.NewPage()
	page.PageTitle = "pulse.report"
	page.AddCharts(vitals, battery, activity, coverage)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("rendering dashboard: %w", err)
	}
	path := filepath.Join(dir, DashboardName)
	if err := fs.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func newLineChart(title, subtitle string, dates []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(dates)
	return line
}

// lineData maps one daily column to chart points. Nil values stay nil so
// echarts draws a gap instead of a zero.
func lineData(daily []dataset.DailyRow, pick func(dataset.DailyRow) *float64) []opts.LineData {
	data := make([]opts.LineData, len(daily))
	for i, row := range daily {
		if v := pick(row); v != nil {
			data[i] = opts.LineData{Value: *v}
		} else {
			data[i] = opts.LineData{Value: nil}
		}
	}
	return data
}

func barData(daily []dataset.DailyRow, pick func(dataset.DailyRow) float64) []opts.BarData {
	data := make([]opts.BarData, len(daily))
	for i, row := range daily {
		data[i] = opts.BarData{Value: pick(row)}
	}
	return data
}
