package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"interviewcal/internal/api"
	"interviewcal/internal/config"
	"interviewcal/internal/events"
	"interviewcal/internal/ics"
	appLog "interviewcal/internal/log"
	"interviewcal/internal/lookup"
	"interviewcal/internal/period"
	"interviewcal/internal/placement"
	"interviewcal/internal/render"
	"interviewcal/internal/session"
	"interviewcal/internal/view"
	"interviewcal/internal/wizard"
)

// Deps are the stores and services the server drives. Everything is built
// in main and injected here.
type Deps struct {
	Config   *config.Config
	View     *view.Store
	Events   *events.Store
	Actions  *events.Actions
	Wizard   *wizard.Wizard
	Lookup   *lookup.Searcher
	Overlays *ics.Overlays
	Renderer *render.Renderer
	Engine   placement.Engine
	Session  *session.Session

	// PreviewPath is the PNG written by the snapshot job.
	PreviewPath string
	Clock       func() time.Time
}

// Server exposes the calendar state over JSON and HTML.
type Server struct {
	Deps
	mux *http.ServeMux
}

func NewServer(d Deps) *Server {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	s := &Server{Deps: d, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

// Handler returns the mux wrapped in request logging and, when configured,
// basic auth.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled")
		h = s.basicAuth(h)
	}
	return requestLog(h)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("POST /api/view/unit/{unit}", s.handleViewUnit)
	s.mux.HandleFunc("POST /api/view/date", s.handleViewDate)
	s.mux.HandleFunc("POST /api/view/{action}", s.handleViewAction)

	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("POST /api/events/refresh", s.handleEventsRefresh)
	s.mux.HandleFunc("PUT /api/events/filter", s.handleEventsFilter)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)

	s.mux.HandleFunc("GET /api/lookup/{kind}", s.handleLookup)
	s.mux.HandleFunc("GET /api/businessareas", s.handleBusinessAreas)

	s.mux.HandleFunc("GET /api/wizard", s.handleWizardState)
	s.mux.HandleFunc("POST /api/wizard/{step}", s.handleWizardStep)

	s.mux.HandleFunc("DELETE /api/interviews/{id}", s.handleInterviewDelete)
	s.mux.HandleFunc("POST /api/interviews/{id}/{action}", s.handleInterviewMembership)

	s.mux.HandleFunc("GET /api/overlays", s.handleOverlays)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("GET /calendar/{unit}", s.handleCalendarPage)
	s.mux.HandleFunc("GET /snapshot/{unit}", s.handleSnapshotPage)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
}

// SnapshotPath is the read-only page the snapshot job captures.
func SnapshotPath(u period.Unit) string {
	return "/snapshot/" + string(u)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) basicAuthEnabled() bool {
	if s.Config == nil || s.Config.BasicAuth == nil {
		return false
	}
	return s.Config.BasicAuth.Username != "" && s.Config.BasicAuth.Password != ""
}

// basicAuth guards everything except /health.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	user := s.Config.BasicAuth.Username
	pass := s.Config.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, user) || !secureCompare(p, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="interviewcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", id,
			"elapsed", time.Since(started),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeFailure maps domain errors onto HTTP statuses.
func writeFailure(w http.ResponseWriter, err error) {
	var verr *wizard.ValidationError
	var uk *lookup.UnknownKindError
	var se *api.StatusError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, wizard.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, lookup.ErrSuperseded):
		writeError(w, http.StatusConflict, "superseded by a newer search")
	case errors.As(err, &uk):
		writeError(w, http.StatusNotFound, err.Error())
	case api.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &se):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		appLog.Error("request failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
