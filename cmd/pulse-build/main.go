// Command pulse-build turns the raw export directory into the processed
// dataset: SQLite tables, parquet files, and optional CSV and report
// artifacts.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/fsutil"
	"github.com/banshee-data/pulse.report/internal/monitoring"
	"github.com/banshee-data/pulse.report/internal/pipeline"
	"github.com/banshee-data/pulse.report/internal/series"
	"github.com/banshee-data/pulse.report/internal/timeutil"
	"github.com/banshee-data/pulse.report/internal/version"
)

var (
	rawDir      = flag.String("raw", "data/raw", "raw export directory")
	outDir      = flag.String("out", "data/processed", "output directory")
	dbPath      = flag.String("db", "", "sqlite path (default <out>/"+pipeline.DefaultDBName+")")
	configPath  = flag.String("config", "", "build config JSON (optional)")
	tz          = flag.String("tz", "", "IANA timezone (overrides config)")
	stepMinutes = flag.Int("step", 0, "grid step in minutes (overrides config)")
	bbFill      = flag.String("bb-fill", "", "body battery fill policy: none|ffill|ffill_bfill|interpolate")
	dropEmpty   = flag.Bool("drop-empty-days", true, "skip days with no observed values")
	writeCSV    = flag.Bool("csv", false, "also write CSV exports")
	charts      = flag.Bool("charts", false, "render the HTML dashboard and PNG trends")
	verbose     = flag.Bool("verbose", false, "log skipped raw documents")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetDebug(*verbose)

	b := buildFromFlags()
	summary, err := pipeline.Run(b)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}

	fmt.Println("dataset built")
	fmt.Println("-", summary.DBPath)
	fmt.Println("-", summary.MinutePath)
	fmt.Println("-", summary.DailyPath)
	fmt.Printf("minute rows: %d  daily rows: %d  (%s)\n", summary.MinuteRows, summary.Days, summary.Elapsed)
}

// buildFromFlags resolves the build parameters: config file values
// first, then explicit flags on top.
func buildFromFlags() pipeline.Build {
	cfg := config.EmptyBuildConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadBuildConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	b := pipeline.Build{
		FS:              fsutil.OSFileSystem{},
		Clock:           timeutil.RealClock{},
		RawDir:          *rawDir,
		OutDir:          *outDir,
		DBPath:          *dbPath,
		Timezone:        cfg.GetTimezone(),
		Step:            cfg.GetStep(),
		BodyBatteryFill: cfg.GetBodyBatteryFill(),
		DropEmptyDays:   cfg.GetDropEmptyDays(),
		WriteCSV:        cfg.GetWriteCSV(),
		Charts:          cfg.GetCharts(),
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tz":
			b.Timezone = *tz
		case "step":
			b.Step = time.Duration(*stepMinutes) * time.Minute
		case "bb-fill":
			policy, err := series.ParseFillPolicy(*bbFill)
			if err != nil {
				log.Fatalf("invalid -bb-fill: %v", err)
			}
			b.BodyBatteryFill = policy
		case "drop-empty-days":
			b.DropEmptyDays = *dropEmpty
		case "csv":
			b.WriteCSV = *writeCSV
		case "charts":
			b.Charts = *charts
		}
	})

	if b.Step <= 0 || (24*time.Hour)%b.Step != 0 {
		log.Fatalf("step must divide a day evenly, got %s", b.Step)
	}
	return b
}
