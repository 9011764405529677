package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"calgrid/internal/config"
	"calgrid/internal/grid"
	"calgrid/internal/layout"
	appLog "calgrid/internal/log"
	"calgrid/internal/source"
)

// maxRangeDays is the most days, counted inclusively, one /api/resources
// request may cover; it keeps a single request from asking for an
// unbounded grid.
const maxRangeDays = 730

var validate = validator.New()

// EventStore is what the server reads events from.
type EventStore interface {
	Snapshot() source.Snapshot
	Refresh(ctx context.Context) error
}

// Server provides the HTTP API over the current event snapshot.
type Server struct {
	cfg   *config.Config
	store EventStore
	mux   *http.ServeMux
	today func() grid.Day
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, store EventStore) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		mux:   http.NewServeMux(),
	}
	s.today = func() grid.Day { return grid.DayOf(time.Now().In(cfg.Location())) }
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. Empty
// credentials count as disabled.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calgrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/resources", s.handleResources)
	s.mux.HandleFunc("GET /api/panels", s.handlePanels)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvents returns the current event snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

type monthQuery struct {
	Date      string `validate:"omitempty,datetime=2006-01-02"`
	WeekStart string `validate:"omitempty,oneof=sunday monday sun mon 0 1"`
}

// handleMonth lays out the month grid around date.
//
// GET /api/month?date=2025-03-15&week_start=sunday
//   - date:       any day of the month; defaults to today
//   - week_start: sunday | monday; defaults to the configured one
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	q := monthQuery{
		Date:      r.URL.Query().Get("date"),
		WeekStart: strings.ToLower(r.URL.Query().Get("week_start")),
	}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	anchor := s.dayOrToday(q.Date)
	ws := s.cfg.WeekStartValue()
	if q.WeekStart != "" {
		ws, _ = grid.ParseWeekStart(q.WeekStart)
	}

	writeJSON(w, http.StatusOK, layout.Month(anchor, ws, s.store.Snapshot().Events))
}

type resourcesQuery struct {
	From string `validate:"omitempty,datetime=2006-01-02"`
	To   string `validate:"omitempty,datetime=2006-01-02"`
}

// handleResources lays out the resource timeline.
//
// GET /api/resources?from=2025-03-01&to=2025-03-31
//
// Missing bounds default to the first and last day of the current month. An
// inverted range is not an error; it yields a view with no days.
func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	q := resourcesQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	month := grid.MonthOf(s.today())
	from := month.FirstDay()
	to := month.AddMonths(1).FirstDay().AddDays(-1)
	if q.From != "" {
		from, _ = grid.ParseDay(q.From)
	}
	if q.To != "" {
		to, _ = grid.ParseDay(q.To)
	}
	if to.Sub(from)+1 > maxRangeDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("range longer than %d days", maxRangeDays))
		return
	}

	writeJSON(w, http.StatusOK, layout.Resources(from, to, s.cfg.ResourceList(), s.store.Snapshot().Events))
}

type panelsResponse struct {
	Anchor grid.YearMonth   `json:"anchor"`
	Panels []grid.YearMonth `json:"panels"`
}

// handlePanels lists the months the month pager can scroll through.
//
// GET /api/panels?date=2025-03-15
func (s *Server) handlePanels(w http.ResponseWriter, r *http.Request) {
	q := monthQuery{Date: r.URL.Query().Get("date")}
	if err := validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	anchor := s.dayOrToday(q.Date)
	writeJSON(w, http.StatusOK, panelsResponse{
		Anchor: grid.MonthOf(anchor),
		Panels: grid.MonthPanels(anchor, s.cfg.MonthPanels),
	})
}

// handleRefresh triggers an immediate refresh and returns the new snapshot.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Refresh(r.Context()); err != nil {
		appLog.Error("api refresh failed", err)
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// dayOrToday parses an already validated date, defaulting to today.
func (s *Server) dayOrToday(v string) grid.Day {
	if v == "" {
		return s.today()
	}
	d, err := grid.ParseDay(v)
	if err != nil {
		return s.today()
	}
	return d
}

// validationMessage turns validator errors into "field: tag" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("invalid %s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, "; ")
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
