// Package web serves the desktop and TV board views over HTTP.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"workshopboard/internal/board"
	"workshopboard/internal/cache"
	"workshopboard/internal/export"
)

// BoardProvider is what the handlers need from the cache controller.
type BoardProvider interface {
	Board(ctx context.Context) (cache.Result, error)
	Refresh(ctx context.Context) error
}

type Handler struct {
	provider     BoardProvider
	exporter     *export.Service
	branch       string
	windowDays   int
	upcomingDays int
	loc          *time.Location
	now          func() time.Time
	logger       *slog.Logger
}

func NewHandler(provider BoardProvider, exporter *export.Service, branch string, windowDays, upcomingDays int, loc *time.Location, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		provider:     provider,
		exporter:     exporter,
		branch:       branch,
		windowDays:   windowDays,
		upcomingDays: upcomingDays,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", h.desktop)
	r.Get("/tv", h.tv)
	r.Get("/api/board", h.apiBoard)
	r.Post("/refresh", h.refresh)
	r.Get("/export.csv", h.exportCSV)
	r.Get("/export.xlsx", h.exportXLSX)
	r.Get("/healthz", h.health)
	return r
}

// desktopPage is the model handed to the desktop template.
type desktopPage struct {
	Branch       string
	WindowDays   int
	Query        string
	UpcomingDays int
	Filtered     bool
	FetchedAt    time.Time
	Stale        bool
	Warning      string
	Counts       board.Counts
	View         board.DesktopView
	Detailed     []board.ClassifiedJob
}

func (h *Handler) desktop(w http.ResponseWriter, r *http.Request) {
	res, err := h.provider.Board(r.Context())
	if err != nil {
		h.renderUnavailable(w, err)
		return
	}

	query := r.URL.Query().Get("q")
	days := 0
	filtered := r.URL.Query().Get("upcoming") == "1"
	if filtered {
		days = h.upcomingDays
		if v, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && v > 0 {
			days = v
		}
	}

	b := res.Entry.Board
	detailed := board.Search(b.Desktop.Detailed, query)
	detailed = board.FilterUpcoming(detailed, days, h.now(), h.loc)

	page := desktopPage{
		Branch:       h.branch,
		WindowDays:   h.windowDays,
		Query:        query,
		UpcomingDays: days,
		Filtered:     filtered,
		FetchedAt:    res.Entry.FetchedAt.In(h.loc),
		Stale:        res.Stale,
		Counts:       b.Counts,
		View:         b.Desktop,
		Detailed:     detailed,
	}
	if res.Warning != nil {
		page.Warning = res.Warning.Error()
	}
	h.render(w, "desktop.html", page)
}

type tvPage struct {
	Now       time.Time
	FetchedAt time.Time
	Stale     bool
	Counts    board.Counts
	Sections  []board.TVSection
}

func (h *Handler) tv(w http.ResponseWriter, r *http.Request) {
	res, err := h.provider.Board(r.Context())
	if err != nil {
		h.renderUnavailable(w, err)
		return
	}

	tv := res.Entry.Board.TV
	page := tvPage{
		Now:       h.now().In(h.loc),
		FetchedAt: res.Entry.FetchedAt.In(h.loc),
		Stale:     res.Stale,
		Counts:    res.Entry.Board.Counts,
		Sections:  []board.TVSection{tv.Overdue, tv.InWorkshop, tv.ToCollect, tv.Queue},
	}
	h.render(w, "tv.html", page)
}

// boardResponse is the JSON snapshot both pages poll for freshness.
type boardResponse struct {
	Snapshot  string       `json:"snapshot"`
	FetchedAt time.Time    `json:"fetchedAt"`
	Stale     bool         `json:"stale"`
	Warning   string       `json:"warning,omitempty"`
	Counts    board.Counts `json:"counts"`
	Board     *board.Board `json:"board"`
}

func (h *Handler) apiBoard(w http.ResponseWriter, r *http.Request) {
	res, err := h.provider.Board(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "unable to load board: " + err.Error()})
		return
	}

	resp := boardResponse{
		Snapshot:  res.Entry.ID.String(),
		FetchedAt: res.Entry.FetchedAt,
		Stale:     res.Stale,
		Counts:    res.Entry.Board.Counts,
		Board:     res.Entry.Board,
	}
	if res.Warning != nil {
		resp.Warning = res.Warning.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encoding board response", "error", err)
	}
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.provider.Refresh(r.Context()); err != nil {
		// Fail open: the previous board keeps serving and the banner
		// shows the warning on the next render.
		h.logger.Warn("manual refresh failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, "csv", "text/csv", h.exporter.CSV)
}

func (h *Handler) exportXLSX(w http.ResponseWriter, r *http.Request) {
	h.serveExport(w, r, "xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		h.exporter.XLSX)
}

func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request, ext, contentType string, render func([]board.ClassifiedJob) ([]byte, error)) {
	res, err := h.provider.Board(r.Context())
	if err != nil {
		http.Error(w, "board not available", http.StatusServiceUnavailable)
		return
	}

	jobs := board.Search(res.Entry.Board.Desktop.Detailed, r.URL.Query().Get("q"))
	data, err := render(jobs)
	if err != nil {
		h.logger.Error("export failed", "format", ext, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	filename := "workshop_jobs_" + h.now().In(h.loc).Format("20060102_1504") + "." + ext
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(data)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
