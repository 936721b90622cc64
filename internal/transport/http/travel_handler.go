package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "travelboard/internal/errors"
	"travelboard/internal/exporter"
	"travelboard/internal/middleware"
	"travelboard/internal/services"
	"travelboard/internal/travel"
)

// viewQuery holds the filter parameters accepted by every view route
type viewQuery struct {
	StartDate     string   `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate       string   `form:"end_date" validate:"omitempty,datetime=2006-01-02"`
	ItineraryType string   `form:"itinerary_type" validate:"max=128"`
	Years         []string `form:"year" validate:"max=64,dive,max=64"`
}

// parseViewQuery reads the filter parameters. Repeated year= values are kept in order.
func parseViewQuery(values url.Values) viewQuery {
	return viewQuery{
		StartDate:     strings.TrimSpace(values.Get("start_date")),
		EndDate:       strings.TrimSpace(values.Get("end_date")),
		ItineraryType: strings.TrimSpace(values.Get("itinerary_type")),
		Years:         values["year"],
	}
}

func (q viewQuery) raw() travel.RawCriteria {
	return travel.RawCriteria{
		StartDate:     q.StartDate,
		EndDate:       q.EndDate,
		ItineraryType: q.ItineraryType,
		Years:         q.Years,
	}
}

type exportQuery struct {
	viewQuery
	Format string `form:"format" validate:"omitempty,oneof=csv xlsx"`
	BOM    string `form:"bom" validate:"omitempty,oneof=0 1 true false"`
}

func parseExportQuery(values url.Values) exportQuery {
	return exportQuery{
		viewQuery: parseViewQuery(values),
		Format:    strings.TrimSpace(values.Get("format")),
		BOM:       strings.TrimSpace(values.Get("bom")),
	}
}

// TravelHandler serves the JSON travel API
type TravelHandler struct {
	service      TravelServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewTravelHandler creates a travel handler
func NewTravelHandler(service TravelServiceInterface, validator *middleware.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *TravelHandler {
	if validator == nil {
		validator = middleware.NewValidator()
	}
	return &TravelHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "travel_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the routes mounted under /api/travel
func (h *TravelHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/years", h.GetYears)
	r.Get("/status", h.GetStatus)
	r.Post("/reload", h.Reload)

	r.Get("/{view}", h.GetView)
	r.Get("/{view}/export", h.ExportView)
	return r
}

// GetView handles GET /api/travel/{view}
func (h *TravelHandler) GetView(w http.ResponseWriter, r *http.Request) {
	q := parseViewQuery(r.URL.Query())
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.query(r, q.raw())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// ExportView handles GET /api/travel/{view}/export?format=csv|xlsx
func (h *TravelHandler) ExportView(w http.ResponseWriter, r *http.Request) {
	q := parseExportQuery(r.URL.Query())
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format, err := exporter.ParseFormat(q.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidInput("format", q.Format, err.Error()))
		return
	}

	result, err := h.query(r, q.raw())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if result.NoData {
		h.errorHandler.HandleError(w, r, apierrors.NoDataError(h.service.Status(r.Context()).Error))
		return
	}

	filename := exporter.Filename(string(result.View), result.Today, format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	report := exporter.Report{
		Title:       result.Title,
		Trips:       result.Trips,
		Summary:     result.Summary,
		GeneratedAt: result.Today,
	}
	if format == exporter.FormatCSV {
		err = exporter.WriteCSV(w, result.Trips, exporter.CSVOptions{BOMPrefix: q.BOM != "0" && q.BOM != "false"})
	} else {
		err = exporter.Export(w, format, report)
	}
	if err != nil {
		// headers are already out
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("view", string(result.View)),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "view exported",
		slog.String("view", string(result.View)),
		slog.String("format", string(format)),
		slog.Int("trips", len(result.Trips)))
}

// GetYears handles GET /api/travel/years
func (h *TravelHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"years": h.service.Years(r.Context()),
	})
}

// GetStatus handles GET /api/travel/status
func (h *TravelHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status(r.Context()))
}

// Reload handles POST /api/travel/reload
func (h *TravelHandler) Reload(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, status)
}

func (h *TravelHandler) query(r *http.Request, raw travel.RawCriteria) (*services.ViewResult, error) {
	name := chi.URLParam(r, "view")
	result, err := h.service.QueryByName(r.Context(), name, raw)
	if errors.Is(err, services.ErrUnknownView) {
		return nil, apierrors.NotFoundError(fmt.Sprintf("view %q", name))
	}
	return result, err
}
