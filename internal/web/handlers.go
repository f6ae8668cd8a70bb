package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"interviewcal/internal/events"
	"interviewcal/internal/grid"
	"interviewcal/internal/ics"
	appLog "interviewcal/internal/log"
	"interviewcal/internal/lookup"
	"interviewcal/internal/model"
	"interviewcal/internal/period"
	"interviewcal/internal/placement"
	"interviewcal/internal/render"
	"interviewcal/internal/view"
)

type windowDTO struct {
	Kind string     `json:"kind"`
	At   *time.Time `json:"at,omitempty"`
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

func toWindowDTO(w period.Window) windowDTO {
	out := windowDTO{Kind: w.Kind().String()}
	if at, ok := w.Instant(); ok {
		out.At = &at
	}
	if r, ok := w.Range(); ok {
		if !r.From.IsZero() {
			out.From = &r.From
		}
		if !r.To.IsZero() {
			out.To = &r.To
		}
	}
	return out
}

type viewResponse struct {
	Unit       period.Unit `json:"unit"`
	Window     windowDTO   `json:"window"`
	Breadcrumb string      `json:"breadcrumb"`
	Path       string      `json:"path"`
}

func (s *Server) viewSnapshot() viewResponse {
	st := s.View.Get()
	label, _ := s.View.Breadcrumb()
	return viewResponse{
		Unit:       st.Unit,
		Window:     toWindowDTO(st.Window),
		Breadcrumb: label,
		Path:       view.PathFor(st.Unit),
	}
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.viewSnapshot())
}

// handleViewAction serves POST /api/view/{today|next|previous}.
func (s *Server) handleViewAction(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("action") {
	case "today":
		s.View.Today()
	case "next":
		s.View.Next()
	case "previous":
		s.View.Previous()
	default:
		writeError(w, http.StatusNotFound, "unknown view action")
		return
	}
	writeJSON(w, http.StatusOK, s.viewSnapshot())
}

func (s *Server) handleViewUnit(w http.ResponseWriter, r *http.Request) {
	u, err := period.ParseUnit(r.PathValue("unit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.View.SetUnit(u)
	writeJSON(w, http.StatusOK, s.viewSnapshot())
}

type dateRequest struct {
	Date string `json:"date"`
	From string `json:"from"`
	To   string `json:"to"`
}

// handleViewDate applies a picked date ({date}) or range ({from,to}).
// Either range bound may be left out.
func (s *Server) handleViewDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	loc := s.View.Calendar().Location

	var win period.Window
	switch {
	case req.Date != "":
		at, err := parseDate(req.Date, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		win = period.Single(at)
	case req.From != "" || req.To != "":
		from, err := parseOptionalDate(req.From, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		to, err := parseOptionalDate(req.To, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			writeError(w, http.StatusBadRequest, "to is before from")
			return
		}
		win = period.Span(from, to)
	default:
		writeError(w, http.StatusBadRequest, "date or from/to is required")
		return
	}
	s.View.OnDateChange(win)
	writeJSON(w, http.StatusOK, s.viewSnapshot())
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(v string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", v)
	}
	return t, nil
}

func parseOptionalDate(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return parseDate(v, loc)
}

type eventsResponse struct {
	Events  []model.Interview `json:"events"`
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
	Filter  *events.Filter    `json:"filter,omitempty"`
}

func (s *Server) eventsSnapshot() eventsResponse {
	st := s.Events.Get()
	return eventsResponse{Events: st.Events, Loading: st.Loading, Error: st.Err, Filter: st.Filter}
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.eventsSnapshot())
}

// handleEventsRefresh fetches synchronously. A failed fetch still answers
// 200 with the error recorded in the snapshot, like any other reader sees.
func (s *Server) handleEventsRefresh(w http.ResponseWriter, r *http.Request) {
	_ = s.Events.Fetch(r.Context())
	writeJSON(w, http.StatusOK, s.eventsSnapshot())
}

func (s *Server) handleEventsFilter(w http.ResponseWriter, r *http.Request) {
	var f *events.Filter
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter")
		return
	}
	s.Events.SetFilter(f)
	writeJSON(w, http.StatusOK, s.eventsSnapshot())
}

type monthCellDTO struct {
	Date    time.Time         `json:"date"`
	InMonth bool              `json:"in_month"`
	Events  []model.Interview `json:"events"`
}

type monthResponse struct {
	Year  int              `json:"year"`
	Month int              `json:"month"`
	Weeks [][]monthCellDTO `json:"weeks"`
}

// handleMonth returns the month grid with the cached interviews of each
// day. year/month default to the month of the current window.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	cal := s.View.Calendar()
	anchor := s.View.Get().Window.Anchor()
	if anchor.IsZero() {
		anchor = s.Clock()
	}
	if cal.Location != nil {
		anchor = anchor.In(cal.Location)
	}

	q := r.URL.Query()
	year, err := intParam(q.Get("year"), anchor.Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := intParam(q.Get("month"), int(anchor.Month()))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}

	evs := s.Events.Get().Events
	weeks := grid.BuildMonth(cal, time.Month(month), year)
	out := monthResponse{Year: year, Month: month, Weeks: make([][]monthCellDTO, 0, len(weeks))}
	for _, week := range weeks {
		row := make([]monthCellDTO, 0, len(week))
		for _, c := range week {
			on := grid.EventsOn(cal, c.Date, evs)
			if on == nil {
				on = []model.Interview{}
			}
			row = append(row, monthCellDTO{Date: c.Date, InMonth: c.InMonth, Events: on})
		}
		out.Weeks = append(out.Weeks, row)
	}
	writeJSON(w, http.StatusOK, out)
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

type dayResponse struct {
	Date      time.Time        `json:"date"`
	Slots     []placement.Slot `json:"slots"`
	NowOffset float64          `json:"now_offset"`
}

// handleDay lays out one day of the cached interviews. date defaults to
// the anchor of the current window.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	cal := s.View.Calendar()
	day := s.View.Get().Window.Anchor()
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := parseDate(v, cal.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		day = d
	}
	if day.IsZero() {
		day = s.Clock()
	}
	day = cal.StartOf(day, period.Day)
	slots := s.Engine.Layout(grid.EventsOn(cal, day, s.Events.Get().Events))
	writeJSON(w, http.StatusOK, dayResponse{
		Date:      day,
		Slots:     slots,
		NowOffset: s.Engine.NowOffset(s.Clock()),
	})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	opts, err := s.Lookup.Search(r.Context(), lookup.Kind(r.PathValue("kind")), r.URL.Query().Get("q"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *Server) handleBusinessAreas(w http.ResponseWriter, r *http.Request) {
	opts, err := s.Lookup.BusinessAreas(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (s *Server) handleInterviewDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.Actions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.eventsSnapshot())
}

type membershipRequest struct {
	UserID string `json:"user_id"`
}

// handleInterviewMembership serves POST /api/interviews/{id}/{join|leave}.
// Without a user_id the signed-in user is used.
func (s *Server) handleInterviewMembership(w http.ResponseWriter, r *http.Request) {
	var req membershipRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if req.UserID == "" && s.Session != nil {
		if u := s.Session.User(); u != nil {
			req.UserID = u.ID
		}
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	id := r.PathValue("id")
	var err error
	switch r.PathValue("action") {
	case "join":
		err = s.Actions.JoinAsInterviewer(r.Context(), id, req.UserID)
	case "leave":
		err = s.Actions.LeaveAsInterviewer(r.Context(), id, req.UserID)
	default:
		writeError(w, http.StatusNotFound, "unknown interview action")
		return
	}
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.eventsSnapshot())
}

func (s *Server) handleOverlays(w http.ResponseWriter, _ *http.Request) {
	if s.Overlays == nil {
		writeJSON(w, http.StatusOK, ics.OverlayState{Occurrences: []model.Occurrence{}})
		return
	}
	writeJSON(w, http.StatusOK, s.Overlays.Get())
}

// handleICS exports the cached interviews of the current window.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	def := placement.DefaultDuration
	if s.Config != nil && s.Config.DefaultDurationMinutes > 0 {
		def = s.Config.DefaultDuration()
	}
	body := ics.Export(s.Events.Get().Events, def, s.Clock())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="interviews.ics"`)
	_, _ = w.Write([]byte(body))
}

// handleCalendarPage renders /calendar/{unit}. A unit different from the
// current one is applied first; the same unit keeps the selected window.
// Rendering waits for in-flight fetches so the page shows settled events.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	u, err := period.ParseUnit(r.PathValue("unit"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if s.View.Get().Unit != u {
		s.View.SetUnit(u)
		_ = s.Events.Fetch(r.Context())
	}
	if err := s.Events.Settle(r.Context()); err != nil {
		appLog.Warn("calendar page rendered before events settled", "unit", string(u), "error", err.Error())
	}

	st := s.View.Get()
	ev := s.Events.Get()
	in := render.Input{
		Calendar: s.View.Calendar(),
		Unit:     st.Unit,
		Window:   st.Window,
		Events:   ev.Events,
		Loading:  ev.Loading,
		Err:      ev.Err,
		Engine:   s.Engine,
		Now:      s.Clock(),
	}
	if s.Overlays != nil {
		in.Overlays = s.Overlays.Get().Occurrences
	}
	s.writePage(w, in)
}

// handleSnapshotPage renders /snapshot/{unit}: the current period of unit
// around now. It reads the backend directly and leaves the view and the
// event cache untouched.
func (s *Server) handleSnapshotPage(w http.ResponseWriter, r *http.Request) {
	u, err := period.ParseUnit(r.PathValue("unit"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	cal := s.View.Calendar()
	now := s.Clock()
	bounds := cal.Bounds(now, u)

	in := render.Input{
		Calendar: cal,
		Unit:     u,
		Window:   period.SpanOf(bounds),
		Engine:   s.Engine,
		Now:      now,
	}
	list, err := s.Events.LoadRange(r.Context(), bounds)
	if err != nil {
		appLog.Error("snapshot page: load events failed", err, "unit", string(u))
		in.Err = events.FetchErrorMessage
	}
	in.Events = list
	if s.Overlays != nil {
		for _, o := range s.Overlays.Get().Occurrences {
			if cal.InRange(o.Start, bounds, false) {
				in.Overlays = append(in.Overlays, o)
			}
		}
	}
	s.writePage(w, in)
}

func (s *Server) writePage(w http.ResponseWriter, in render.Input) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Renderer.Calendar(w, render.Build(in)); err != nil {
		appLog.Error("render calendar page failed", err, "unit", string(in.Unit))
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.View.Path(), http.StatusFound)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if s.PreviewPath == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, s.PreviewPath)
}
