// Command pulse-fetch downloads raw wellness exports from Garmin
// Connect into the raw directory, one JSON document per day and
// category plus one body battery document per range.
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

	"github.com/banshee-data/pulse.report/internal/dateutil"
	"github.com/banshee-data/pulse.report/internal/fsutil"
	"github.com/banshee-data/pulse.report/internal/garmin"
	"github.com/banshee-data/pulse.report/internal/httputil"
	"github.com/banshee-data/pulse.report/internal/rawstore"
	"github.com/banshee-data/pulse.report/internal/timeutil"
	"github.com/banshee-data/pulse.report/internal/version"
)

var (
	days        = flag.Int("days", 30, "fetch the last N days including today (ignored with -start/-end)")
	startDay    = flag.String("start", "", "range start YYYY-MM-DD (requires -end)")
	endDay      = flag.String("end", "", "range end YYYY-MM-DD (requires -start)")
	rawDir      = flag.String("raw", "data/raw", "raw export directory")
	tokenDir    = flag.String("tokens", garmin.DefaultTokenDir(), "directory with saved oauth tokens")
	pause       = flag.Duration("pause", 250*time.Millisecond, "pause between days")
	force       = flag.Bool("force", false, "re-download documents that already exist")
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

	fs := fsutil.OSFileSystem{}
	clock := timeutil.RealClock{}

	start, end := *startDay, *endDay
	if (start == "") != (end == "") {
		log.Fatalf("-start and -end must be given together")
	}
	if start == "" {
		if *days < 1 {
			log.Fatalf("-days must be at least 1, got %d", *days)
		}
		end = dateutil.Today(clock.Now(), time.Local)
		var err error
		start, err = dateutil.AddDays(end, -(*days - 1), time.Local)
		if err != nil {
			log.Fatalf("resolving range: %v", err)
		}
	}
	fmt.Printf("range: %s -> %s\n", start, end)

	token, err := garmin.NewTokenStore(fs, *tokenDir).AccessToken()
	if err != nil {
		log.Fatalf("%v", err)
	}

	client := garmin.NewClient(httputil.NewStandardClient(&http.Client{Timeout: 30 * time.Second}), token)
	fetcher := garmin.NewFetcher(client, rawstore.New(fs, *rawDir), clock)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := fetcher.Run(ctx, garmin.Options{
		Start:    start,
		End:      end,
		Force:    *force,
		Pause:    *pause,
		OnResult: printResult,
	})
	if err != nil {
		log.Fatalf("fetch aborted: %v", err)
	}

	fmt.Printf("done: %s fetched, %s skipped, %s failed -> %s\n",
		okColor.Sprintf("%d", stats.Fetched),
		skipColor.Sprintf("%d", stats.Skipped),
		failColor.Sprintf("%d", stats.Failed),
		*rawDir)
	if stats.Failed > 0 {
		os.Exit(1)
	}
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
