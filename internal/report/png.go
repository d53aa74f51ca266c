package report

import (
	"bytes"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pulse.report/internal/dataset"
	"github.com/banshee-data/pulse.report/internal/fsutil"
)

// trendMetrics defines one PNG per daily column. Colors roughly follow
// the dashboard palette.
var trendMetrics = []struct {
	name  string
	title string
	color color.RGBA
	pick  func(dataset.DailyRow) *float64
}{
	{"hr", "Heart Rate (daily mean)", color.RGBA{R: 220, G: 60, B: 60, A: 255}, func(r dataset.DailyRow) *float64 { return r.HR }},
	{"stress", "Stress (daily mean)", color.RGBA{R: 230, G: 150, B: 40, A: 255}, func(r dataset.DailyRow) *float64 { return r.Stress }},
	{"resp", "Respiration (daily mean)", color.RGBA{R: 60, G: 110, B: 220, A: 255}, func(r dataset.DailyRow) *float64 { return r.Resp }},
	{"bb", "Body Battery (last of day)", color.RGBA{R: 60, G: 180, B: 90, A: 255}, func(r dataset.DailyRow) *float64 { return r.BB }},
	{"steps", "Steps (daily total)", color.RGBA{R: 130, G: 130, B: 130, A: 255}, func(r dataset.DailyRow) *float64 { return r.Steps }},
}

// WriteTrendPlots renders one PNG trend plot per daily metric under dir
// (trend_hr.png, trend_stress.png, ...). Days with no value for a metric
// are left out of its line. Returns the number of plots written.
func WriteTrendPlots(fs fsutil.FileSystem, dir string, daily []dataset.DailyRow) (int, error) {
	written := 0
	for _, metric := range trendMetrics {
		pts := make(plotter.XYs, 0, len(daily))
		for i, row := range daily {
			if v := metric.pick(row); v != nil {
				pts = append(pts, plotter.XY{X: float64(i), Y: *v})
			}
		}

		p := plot.New()
		p.Title.Text = metric.title
		if len(daily) > 0 {
			p.Title.Text = fmt.Sprintf("%s  %s to %s", metric.title, daily[0].Date, daily[len(daily)-1].Date)
		}
		p.X.Label.Text = "Day"
		p.Y.Label.Text = metric.name

		if len(pts) > 0 {
			line, err := plotter.NewLine(pts)
			if err != nil {
				return written, fmt.Errorf("%s: %w", metric.name, err)
			}
			line.Color = metric.color
			line.Width = vg.Points(1)
			p.Add(line)
			p.Legend.Add(metric.name, line)
			p.Legend.Top = true
			p.Legend.Left = false
		}

		wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
		if err != nil {
			return written, fmt.Errorf("rendering %s plot: %w", metric.name, err)
		}
		var buf bytes.Buffer
		if _, err := wt.WriteTo(&buf); err != nil {
			return written, fmt.Errorf("rendering %s plot: %w", metric.name, err)
		}

		path := filepath.Join(dir, "trend_"+metric.name+".png")
		if err := fs.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("saving %s: %w", path, err)
		}
		written++
	}
	return written, nil
}
