// Command tripcheck loads a travel tracker workbook once and prints what the
// server would publish: the load report, the dataset summary and optionally
// one view, as JSON.
//
// Exit status is 0 on success, 1 on bad usage or input and 2 when the
// workbook yields no data.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"travelboard/internal/config"
	"travelboard/internal/infrastructure"
	"travelboard/internal/services"
	"travelboard/internal/source"
	"travelboard/internal/travel"
)

const (
	exitOK     = 0
	exitError  = 1
	exitNoData = 2
)

type output struct {
	Dataset services.DatasetStatus `json:"dataset"`
	View    *services.ViewResult   `json:"view,omitempty"`
}

type yearList []string

func (y *yearList) String() string { return strings.Join(*y, ",") }

func (y *yearList) Set(v string) error {
	*y = append(*y, v)
	return nil
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tripcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	file := fs.String("file", "", "workbook path (defaults to the configured source)")
	view := fs.String("view", "", "view to print: trips, upcoming, present or last-completed")
	today := fs.String("today", "", "reference date as YYYY-MM-DD (defaults to the current date)")
	startDate := fs.String("start-date", "", "earliest arrival date, YYYY-MM-DD")
	endDate := fs.String("end-date", "", "latest arrival date, YYYY-MM-DD")
	itinerary := fs.String("type", "", "itinerary type, case-insensitive")
	verbose := fs.Bool("v", false, "log load progress to stderr")
	var years yearList
	fs.Var(&years, "year", "arrival year filter, repeatable; \"all\" lifts the default")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := infrastructure.NewLogger(config.LoggingConfig{Level: level, Format: "text"}, stderr)

	src, err := openSource(ctx, *file)
	if err != nil {
		fmt.Fprintf(stderr, "tripcheck: %v\n", err)
		return exitError
	}

	var opts []services.TravelServiceOption
	if *today != "" {
		day, err := travel.ParseISODate(*today)
		if err != nil {
			fmt.Fprintf(stderr, "tripcheck: -today: %v\n", err)
			return exitError
		}
		opts = append(opts, services.WithClock(func() time.Time { return day }))
	}

	store := travel.NewStore(src, travel.NewLoader(logger), travel.WithStoreLogger(logger))
	svc := services.NewTravelService(store, logger, opts...)

	code := exitOK
	status, err := svc.Reload(ctx)
	if err != nil {
		if !errors.Is(err, travel.ErrNoData) {
			fmt.Fprintf(stderr, "tripcheck: %v\n", err)
			return exitError
		}
		code = exitNoData
	}

	out := output{Dataset: status}
	if *view != "" && code == exitOK {
		result, err := svc.QueryByName(ctx, *view, travel.RawCriteria{
			StartDate:     *startDate,
			EndDate:       *endDate,
			ItineraryType: *itinerary,
			Years:         years,
		})
		if err != nil {
			fmt.Fprintf(stderr, "tripcheck: %v\n", err)
			return exitError
		}
		out.View = result
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(stderr, "tripcheck: %v\n", err)
		return exitError
	}
	return code
}

func openSource(ctx context.Context, file string) (travel.Source, error) {
	if file != "" {
		return source.NewFile(file), nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return source.New(ctx, cfg.Source)
}
