// Command pulse-update catches the dataset up: it fetches the days
// missing since the last build and rebuilds the processed outputs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/fsutil"
	"github.com/banshee-data/pulse.report/internal/garmin"
	"github.com/banshee-data/pulse.report/internal/httputil"
	"github.com/banshee-data/pulse.report/internal/monitoring"
	"github.com/banshee-data/pulse.report/internal/pipeline"
	"github.com/banshee-data/pulse.report/internal/rawstore"
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
	writeCSV    = flag.Bool("csv", false, "also write CSV exports")
	charts      = flag.Bool("charts", false, "render the HTML dashboard and PNG trends")
	endArg      = flag.String("end", "yesterday", "catch up through this day: yesterday or YYYY-MM-DD")
	chunkDays   = flag.Int("chunk-days", pipeline.DefaultChunkDays, "days per fetch request")
	rebuild     = flag.Bool("rebuild", true, "rebuild the dataset after fetching")
	pause       = flag.Duration("pause", 250*time.Millisecond, "pause between fetched days")
	tokenDir    = flag.String("tokens", garmin.DefaultTokenDir(), "directory with saved oauth tokens")
	verbose     = flag.Bool("verbose", false, "log skipped raw documents")
	showVersion = flag.Bool("version", false, "print version and exit")
)

var (
	okColor   = color.New(color.FgGreen)
	skipColor = color.New(color.FgHiBlack)
	failColor = color.New(color.FgRed)
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	monitoring.SetDebug(*verbose)

	b := buildFromFlags()

	token, err := garmin.NewTokenStore(b.FS, *tokenDir).AccessToken()
	if err != nil {
		log.Fatalf("%v", err)
	}
	client := garmin.NewClient(httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second}), token)
	fetcher := garmin.NewFetcher(client, rawstore.New(b.FS, b.RawDir), b.Clock)

	end := *endArg
	if end == "yesterday" {
		end = ""
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := pipeline.RunUpdate(ctx, pipeline.Update{
		Build:      b,
		Fetcher:    fetcher,
		EndDay:     end,
		ChunkDays:  *chunkDays,
		Rebuild:    *rebuild,
		FetchPause: *pause,
		OnFetch:    printResult,
	})
	if err != nil {
		log.Fatalf("update failed: %v", err)
	}

	if summary.Fetched {
		fmt.Printf("fetched %s -> %s: %s new, %s skipped, %s failed\n",
			summary.Start, summary.End,
			okColor.Sprintf("%d", summary.Stats.Fetched),
			skipColor.Sprintf("%d", summary.Stats.Skipped),
			failColor.Sprintf("%d", summary.Stats.Failed))
	} else {
		fmt.Printf("nothing to fetch through %s\n", summary.End)
	}
	if summary.Build != nil {
		fmt.Printf("rebuilt: %d days, %d minute rows -> %s\n", summary.Build.Days, summary.Build.MinuteRows, *outDir)
	}
}

// buildFromFlags resolves the build parameters: config file values
// first, then explicit flags on top. The rebuild at the end of an
// update always drops empty days.
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
		DropEmptyDays:   true,
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

func printResult(r garmin.FetchResult) {
	label := r.Category
	if r.Day != "" {
		label = r.Day + " " + r.Category
	}
	switch r.Status {
	case garmin.StatusFetched:
		fmt.Printf("%s  %s\n", okColor.Sprint("ok  "), label)
	case garmin.StatusSkipped:
		fmt.Printf("%s  %s\n", skipColor.Sprint("skip"), label)
	case garmin.StatusFailed:
		fmt.Printf("%s  %s: %v\n", failColor.Sprint("FAIL"), label, r.Err)
	}
}
