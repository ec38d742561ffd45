package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"workshopboard/internal/board"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"fmtDate":      fmtDate,
	"fmtDay":       fmtDay,
	"fmtDateTime":  fmtDateTime,
	"fmtClock":     fmtClock,
	"urgencyClass": urgencyClass,
	"dueLabel":     dueLabel,
	"bucket":       newBucket,
}

// bucketData pairs a section heading with its jobs so the shared
// "bucket" template can render each desktop section.
type bucketData struct {
	Title string
	Jobs  []board.ClassifiedJob
}

func newBucket(title string, jobs []board.ClassifiedJob) bucketData {
	return bucketData{Title: title, Jobs: jobs}
}

var templates = template.Must(template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html"))

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("rendering template", "template", name, "error", err)
	}
}

type unavailablePage struct {
	Reason string
}

func (h *Handler) renderUnavailable(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	if terr := templates.ExecuteTemplate(w, "unavailable.html", unavailablePage{Reason: err.Error()}); terr != nil {
		h.logger.Error("rendering template", "template", "unavailable.html", "error", terr)
	}
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("02 Jan 2006")
}

func fmtDay(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02 Jan 2006")
}

func fmtDateTime(t time.Time) string {
	return t.Format("02 Jan 2006 15:04")
}

func fmtClock(t time.Time) string {
	return t.Format("3:04 PM")
}

func urgencyClass(u board.Urgency) string {
	switch u {
	case board.UrgencyOverdue:
		return "overdue"
	case board.UrgencyDueSoon:
		return "due-soon"
	case board.UrgencyOnTrack:
		return "on-track"
	default:
		return "no-date"
	}
}

// dueLabel renders the due chip the way the floor reads it: how late,
// how soon, or that a date is missing.
func dueLabel(j board.ClassifiedJob) string {
	switch j.Urgency {
	case board.UrgencyOverdue:
		return fmt.Sprintf("%dd OVERDUE", j.DaysOverdue)
	case board.UrgencyDueSoon:
		if j.DaysUntilDue == 0 {
			return "Due today"
		}
		return fmt.Sprintf("Due in %dd", j.DaysUntilDue)
	case board.UrgencyOnTrack:
		return fmtDate(j.ETD)
	default:
		return "NO ETD"
	}
}
