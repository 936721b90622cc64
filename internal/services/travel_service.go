package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"travelboard/internal/infrastructure"
	"travelboard/internal/travel"
	"travelboard/pkg/contracts/domain"
)

// Messages shown with empty results
const (
	NoDataMessage    = "No valid data found in the Excel file. Please check your file and try again."
	NoMatchesMessage = "No trips match the selected filters."
)

// EventDatasetReloaded is broadcast after every reload attempt
const EventDatasetReloaded = "dataset.reloaded"

// Broadcaster pushes events to connected clients
type Broadcaster interface {
	Broadcast(eventType string, data interface{})
}

// ViewResult is the answer to one view query
type ViewResult struct {
	View          travel.ViewKind    `json:"view"`
	Title         string             `json:"title"`
	Trips         []domain.Trip      `json:"trips"`
	Summary       domain.Summary     `json:"summary"`
	NoData        bool               `json:"no_data"`
	Message       string             `json:"message,omitempty"`
	Years         []int              `json:"years"`
	SelectedYears []int              `json:"selected_years,omitempty"`
	Criteria      travel.RawCriteria `json:"-"`
	Today         time.Time          `json:"today"`
}

// DatasetStatus describes the published dataset and reload history
type DatasetStatus struct {
	Loaded   bool                `json:"loaded"`
	Source   string              `json:"source"`
	LoadedAt time.Time           `json:"loaded_at"`
	Trips    int                 `json:"trips"`
	Years    []int               `json:"years"`
	Error    string              `json:"error,omitempty"`
	Report   travel.LoadReport   `json:"report"`
	Reload   travel.ReloadStatus `json:"reload"`
}

// TravelService answers view queries against the store
type TravelService struct {
	store       *travel.Store
	now         func() time.Time
	metrics     *infrastructure.TravelMetrics
	broadcaster Broadcaster
	tracer      trace.Tracer
	logger      *slog.Logger
}

// TravelServiceOption configures a TravelService
type TravelServiceOption func(*TravelService)

// WithClock replaces time.Now, which decides "today" and the default year
func WithClock(now func() time.Time) TravelServiceOption {
	return func(s *TravelService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records query and reload metrics
func WithMetrics(m *infrastructure.TravelMetrics) TravelServiceOption {
	return func(s *TravelService) {
		s.metrics = m
	}
}

// WithBroadcaster announces reloads to connected clients
func WithBroadcaster(b Broadcaster) TravelServiceOption {
	return func(s *TravelService) {
		s.broadcaster = b
	}
}

// NewTravelService creates the service and hooks it into store reloads
func NewTravelService(store *travel.Store, logger *slog.Logger, opts ...TravelServiceOption) *TravelService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TravelService{
		store:  store,
		now:    time.Now,
		tracer: otel.Tracer(infrastructure.MeterName),
		logger: infrastructure.WithComponent(logger, "travel_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	store.OnReload(s.onReload)
	return s
}

// Today returns the current calendar date per the service clock
func (s *TravelService) Today() time.Time {
	return domain.DateOf(s.now())
}

// QueryByName resolves a view name and runs it
func (s *TravelService) QueryByName(ctx context.Context, name string, raw travel.RawCriteria) (*ViewResult, error) {
	kind, ok := travel.ParseViewKind(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}
	return s.Query(ctx, kind, raw)
}

// Query runs a view over the current snapshot. Filtered views with no year
// given are limited to the current year; "all" lifts that. Malformed criteria
// return a *travel.InputError and leave the dataset untouched.
func (s *TravelService) Query(ctx context.Context, kind travel.ViewKind, raw travel.RawCriteria) (*ViewResult, error) {
	ctx, span := s.tracer.Start(ctx, "travel.query", trace.WithAttributes(
		attribute.String("view", string(kind))))
	defer span.End()

	today := s.Today()

	var criteria travel.Criteria
	if kind.Filtered() {
		if len(nonBlank(raw.Years)) == 0 {
			raw.Years = []string{strconv.Itoa(today.Year())}
		}
		c, err := travel.ParseCriteria(raw)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			s.logger.DebugContext(ctx, "rejected criteria",
				slog.String("view", string(kind)),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("query %s: %w", kind, err)
		}
		criteria = c
	} else {
		raw = travel.RawCriteria{}
	}

	snap := s.store.Current()
	view := travel.Query(snap, kind, today, criteria)
	s.metrics.RecordViewQuery(ctx, string(kind), view.NoData)

	result := &ViewResult{
		View:     kind,
		Title:    Title(kind),
		Trips:    view.Trips,
		Summary:  view.Summary,
		NoData:   view.NoData,
		Years:    snap.Years(),
		Criteria: raw,
		Today:    today,
	}
	if kind.Filtered() {
		result.SelectedYears = criteria.Years.Sorted()
	}
	switch {
	case view.NoData:
		result.Message = NoDataMessage
	case len(view.Trips) == 0:
		result.Message = NoMatchesMessage
	}

	span.SetAttributes(
		attribute.Int("trips", len(view.Trips)),
		attribute.Bool("no_data", view.NoData))
	return result, nil
}

// Years lists the distinct arrival years in the current dataset
func (s *TravelService) Years(ctx context.Context) []int {
	return s.store.Current().Years()
}

// Status reports on the published dataset
func (s *TravelService) Status(ctx context.Context) DatasetStatus {
	snap := s.store.Current()
	status := DatasetStatus{
		Loaded:   !snap.NoData(),
		Source:   snap.Source,
		LoadedAt: snap.LoadedAt,
		Trips:    len(snap.Rows()),
		Years:    snap.Years(),
		Report:   snap.Report,
		Reload:   s.store.Status(),
	}
	if snap.Err != nil {
		status.Error = snap.Err.Error()
	}
	return status
}

// Reload rebuilds the dataset from its source. A failed reload still returns
// the resulting status together with an error wrapping ErrReloadFailed.
func (s *TravelService) Reload(ctx context.Context) (DatasetStatus, error) {
	ctx, span := s.tracer.Start(ctx, "travel.reload")
	defer span.End()

	_, err := s.store.Reload(ctx)
	status := s.Status(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return status, fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	return status, nil
}

func (s *TravelService) onReload(ctx context.Context, snap *travel.Snapshot, err error) {
	report := snap.Report
	s.metrics.RecordDatasetLoad(ctx, infrastructure.DatasetLoad{
		Success:  err == nil,
		Duration: report.Duration,
		Trips:    len(snap.Rows()),
		Dropped: map[string]int{
			"blank":             report.Dropped.Blank,
			"header_row":        report.Dropped.HeaderRow,
			"missing_name":      report.Dropped.MissingName,
			"invalid_arrival":   report.Dropped.InvalidArrival,
			"invalid_departure": report.Dropped.InvalidDeparture,
		},
	})

	if err != nil {
		s.logger.WarnContext(ctx, "dataset reload failed", slog.String("error", err.Error()))
	} else {
		s.logger.InfoContext(ctx, "dataset reloaded",
			slog.String("source", snap.Source),
			slog.Int("trips", len(snap.Trips)),
			slog.Int("dropped", report.Dropped.Total()))
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(EventDatasetReloaded, s.Status(ctx))
	}
}

// Title is the page heading for a view
func Title(kind travel.ViewKind) string {
	switch kind {
	case travel.ViewUpcoming:
		return "Upcoming Travel"
	case travel.ViewPresent:
		return "Currently In Country"
	case travel.ViewLastCompleted:
		return "Last Completed Travel"
	default:
		return "Travel Overview"
	}
}

func nonBlank(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
