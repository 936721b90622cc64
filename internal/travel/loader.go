package travel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"travelboard/pkg/contracts/domain"
)

const tracerName = "travelboard/travel"

// Loader turns a multi-sheet tracker workbook into a dataset snapshot
type Loader struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewLoader creates a loader using the global tracer provider
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger.With(slog.String("component", "travel_loader")),
		tracer: otel.Tracer(tracerName),
	}
}

// LoadFile opens path and loads it
func (l *Loader) LoadFile(ctx context.Context, path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		err = noData("cannot open source", err)
		l.logger.ErrorContext(ctx, "failed to open workbook",
			slog.String("source", path),
			slog.String("error", err.Error()))
		return NoDataSnapshot(path, LoadReport{}, err), err
	}
	defer f.Close()
	return l.Load(ctx, f, path)
}

// Load reads every sheet of the workbook in r. Any failure, including a corrupt
// workbook, is reported as an error matching ErrNoData together with a NoData
// snapshot; Load never panics on bad input.
func (l *Loader) Load(ctx context.Context, r io.Reader, source string) (snap *Snapshot, err error) {
	ctx, span := l.tracer.Start(ctx, "travel.load",
		trace.WithAttributes(attribute.String("travel.source", source)))
	start := time.Now()
	var report LoadReport

	defer func() {
		if rec := recover(); rec != nil {
			err = noData("workbook parser panicked", fmt.Errorf("%v", rec))
		}
		report.Duration = time.Since(start)
		if err != nil {
			snap = NoDataSnapshot(source, report, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			l.logger.ErrorContext(ctx, "workbook load failed",
				slog.String("source", source),
				slog.String("error", err.Error()),
				slog.Duration("duration", report.Duration))
		} else {
			snap.Report.Duration = report.Duration
			span.SetAttributes(
				attribute.Int("travel.sheets_kept", len(report.SheetsKept)),
				attribute.Int("travel.rows_read", report.RowsRead),
				attribute.Int("travel.trips", report.Trips))
			l.logger.InfoContext(ctx, "workbook loaded",
				slog.String("source", source),
				slog.Int("sheets_seen", report.SheetsSeen),
				slog.Int("sheets_kept", len(report.SheetsKept)),
				slog.Int("rows_read", report.RowsRead),
				slog.Int("rows_dropped", report.Dropped.Total()),
				slog.Int("trips", report.Trips),
				slog.Duration("duration", report.Duration))
		}
		span.End()
	}()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, noData("cannot read workbook", err)
	}
	defer f.Close()

	date1904 := false
	if props, perr := f.GetWorkbookProps(); perr == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	var trips []domain.Trip
	for _, sheet := range f.GetSheetList() {
		report.SheetsSeen++
		rows, rerr := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if rerr != nil {
			return nil, noData(fmt.Sprintf("cannot read sheet %q", sheet), rerr)
		}
		if len(rows) == 0 {
			report.SheetsSkipped = append(report.SheetsSkipped, SkippedSheet{
				Name:    sheet,
				Missing: columnNames(RequiredColumns),
			})
			continue
		}

		idx, missing := indexHeader(rows[0])
		if len(missing) > 0 {
			l.logger.DebugContext(ctx, "sheet skipped",
				slog.String("sheet", sheet),
				slog.Any("missing_columns", missing))
			report.SheetsSkipped = append(report.SheetsSkipped, SkippedSheet{Name: sheet, Missing: missing})
			continue
		}
		report.SheetsKept = append(report.SheetsKept, sheet)
		trips = l.appendSheet(ctx, trips, sheet, idx, rows[1:], date1904, &report)
	}

	if len(report.SheetsKept) == 0 {
		return nil, noData("no sheet has the required columns", nil)
	}
	if len(trips) == 0 {
		return nil, noData("no valid rows after filtering", nil)
	}

	report.Trips = len(trips)
	return &Snapshot{
		Trips:    trips,
		Report:   report,
		Source:   source,
		LoadedAt: time.Now(),
	}, nil
}

// appendSheet normalizes the data rows of one qualifying sheet
func (l *Loader) appendSheet(ctx context.Context, trips []domain.Trip, sheet string, idx columnIndex, rows [][]string, date1904 bool, report *LoadReport) []domain.Trip {
	for i, row := range rows {
		report.RowsRead++
		// header is row 1; data starts at row 2
		rowNum := i + 2

		switch {
		case idx.isBlank(row):
			report.Dropped.Blank++
			continue
		case idx.isHeaderRow(row):
			report.Dropped.HeaderRow++
			continue
		}

		name := strings.TrimSpace(idx.cell(row, ColName))
		if name == "" {
			report.Dropped.MissingName++
			continue
		}
		arrival, ok := parseCellDate(idx.cell(row, ColArrival), date1904)
		if !ok {
			report.Dropped.InvalidArrival++
			continue
		}
		departure, ok := parseCellDate(idx.cell(row, ColDeparture), date1904)
		if !ok {
			report.Dropped.InvalidDeparture++
			continue
		}

		nights, ok := parseNights(idx.cell(row, ColNightsStayed))
		if !ok {
			report.BadNights++
		}
		if domain.DateOf(arrival).After(domain.DateOf(departure)) {
			report.InvertedDates++
			l.logger.WarnContext(ctx, "arrival after departure",
				slog.String("sheet", sheet),
				slog.Int("row", rowNum),
				slog.String("name", name))
		}

		trips = append(trips, domain.Trip{
			Name:          name,
			Arrival:       arrival,
			Departure:     departure,
			Accommodation: strings.TrimSpace(idx.cell(row, ColAccommodation)),
			NightsStayed:  nights,
			ItineraryType: strings.TrimSpace(idx.cell(row, ColItineraryType)),
			Year:          arrival.Year(),
			Sheet:         sheet,
			Row:           rowNum,
		})
	}
	return trips
}

func columnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = string(c)
	}
	return names
}
