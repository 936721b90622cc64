package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "travelboard/internal/errors"
	"travelboard/internal/services"
	"travelboard/internal/travel"
	"travelboard/pkg/contracts/domain"
)

//go:embed web/templates/*.html web/static/*
var webFiles embed.FS

// Reload outcomes passed back to pages after /update-data
const (
	reloadParam  = "reload"
	reloadOK     = "ok"
	reloadFailed = "failed"
)

type page struct {
	Path  string
	Label string
	View  travel.ViewKind
}

var pages = []page{
	{Path: "/", Label: "Overview", View: travel.ViewAll},
	{Path: "/upcoming", Label: "Upcoming", View: travel.ViewUpcoming},
	{Path: "/in-country", Label: "In Country", View: travel.ViewPresent},
	{Path: "/last-travel", Label: "Last Travel", View: travel.ViewLastCompleted},
}

type navItem struct {
	Path   string
	Label  string
	Active bool
}

type flash struct {
	Kind string
	Text string
}

type pageData struct {
	Title       string
	Path        string
	View        travel.ViewKind
	Nav         []navItem
	Today       time.Time
	Flash       *flash
	Error       string
	Message     string
	Filters     bool
	Form        viewQuery
	Years       []int
	Selected    map[int]bool
	AllYears    bool
	ExportQuery template.URL
	Summary     domain.Summary
	Trips       []domain.Trip
}

// HTMLHandler renders the travel pages
type HTMLHandler struct {
	service      TravelServiceInterface
	templates    *template.Template
	static       http.Handler
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewHTMLHandler parses the embedded templates
func NewHTMLHandler(service TravelServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) (*HTMLHandler, error) {
	funcs := template.FuncMap{
		"date": func(t time.Time) string { return t.Format(domain.DisplayDateLayout) },
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(webFiles, "web/templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	static, err := fs.Sub(webFiles, "web/static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static files: %w", err)
	}

	return &HTMLHandler{
		service:      service,
		templates:    tmpl,
		static:       http.StripPrefix("/static/", http.FileServer(http.FS(static))),
		logger:       logger.With(slog.String("component", "html_handler")),
		errorHandler: errorHandler,
	}, nil
}

// Register mounts the pages on r. Filtered pages accept the filter form by
// GET query or POST body.
func (h *HTMLHandler) Register(r chi.Router) {
	for _, p := range pages {
		handler := h.page(p)
		r.Get(p.Path, handler)
		if p.View.Filtered() {
			r.Post(p.Path, handler)
		}
	}
	r.Get("/update-data", h.UpdateData)
	r.Handle("/static/*", h.static)
}

func (h *HTMLHandler) page(p page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form viewQuery
		if p.View.Filtered() {
			if err := r.ParseForm(); err != nil {
				h.errorHandler.HandleError(w, r, apierrors.New(http.StatusBadRequest, "INVALID_REQUEST", "Malformed form body"))
				return
			}
			form = parseViewQuery(r.Form)
		}

		data := h.basePage(r, p)
		data.Form = form

		result, err := h.service.Query(r.Context(), p.View, form.raw())
		status := http.StatusOK
		switch {
		case err == nil:
			data.fill(result)
		case errors.Is(err, travel.ErrInvalidInput):
			var inputErr *travel.InputError
			if errors.As(err, &inputErr) {
				data.Error = inputErr.Error()
			} else {
				data.Error = err.Error()
			}
			data.Years = h.service.Years(r.Context())
			status = http.StatusBadRequest
		default:
			h.errorHandler.HandleError(w, r, err)
			return
		}

		h.render(w, r, status, data)
	}
}

func (h *HTMLHandler) basePage(r *http.Request, p page) *pageData {
	data := &pageData{
		Title:    services.Title(p.View),
		Path:     p.Path,
		View:     p.View,
		Today:    h.service.Today(),
		Filters:  p.View.Filtered(),
		Selected: map[int]bool{},
	}
	for _, other := range pages {
		data.Nav = append(data.Nav, navItem{Path: other.Path, Label: other.Label, Active: other.Path == p.Path})
	}
	switch r.URL.Query().Get(reloadParam) {
	case reloadOK:
		data.Flash = &flash{Kind: "ok", Text: "Data refreshed."}
	case reloadFailed:
		data.Flash = &flash{Kind: "failed", Text: "Data refresh failed. Check the tracker file and try again."}
	}
	return data
}

func (d *pageData) fill(result *services.ViewResult) {
	d.Trips = result.Trips
	d.Summary = result.Summary
	d.Message = result.Message
	d.Years = result.Years
	d.Today = result.Today
	for _, y := range result.SelectedYears {
		d.Selected[y] = true
	}
	d.AllYears = d.Filters && len(result.SelectedYears) == 0

	q := url.Values{}
	if v := result.Criteria.StartDate; v != "" {
		q.Set("start_date", v)
	}
	if v := result.Criteria.EndDate; v != "" {
		q.Set("end_date", v)
	}
	if v := result.Criteria.ItineraryType; v != "" {
		q.Set("itinerary_type", v)
	}
	if d.AllYears {
		q.Set("year", travel.AllValue)
	}
	for _, y := range result.SelectedYears {
		q.Add("year", strconv.Itoa(y))
	}
	d.ExportQuery = template.URL(q.Encode())
}

func (h *HTMLHandler) render(w http.ResponseWriter, r *http.Request, status int, data *pageData) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "page", data); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("render %s: %w", data.Path, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// UpdateData handles GET /update-data: it reloads the workbook and sends the
// browser back where it came from.
func (h *HTMLHandler) UpdateData(w http.ResponseWriter, r *http.Request) {
	outcome := reloadOK
	if _, err := h.service.Reload(r.Context()); err != nil {
		outcome = reloadFailed
		h.logger.WarnContext(r.Context(), "refresh from page failed", slog.String("error", err.Error()))
	}
	http.Redirect(w, r, backTo(r.Referer(), outcome), http.StatusSeeOther)
}

// backTo keeps only the path of referer so the redirect stays on this site
func backTo(referer, outcome string) string {
	target := &url.URL{Path: "/"}
	if u, err := url.Parse(referer); err == nil && u.Path != "" {
		target.Path = path.Clean(u.Path)
		q := u.Query()
		q.Del(reloadParam)
		target.RawQuery = q.Encode()
	}
	q := target.Query()
	q.Set(reloadParam, outcome)
	target.RawQuery = q.Encode()
	return target.String()
}
