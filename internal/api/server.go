// Package api exposes the catalog and calculation sessions over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/isimg/moyenne/internal/catalog"
	"github.com/isimg/moyenne/internal/grading"
	"github.com/isimg/moyenne/internal/session"
)

const maxBodyBytes = 64 << 10

// Check is a named readiness probe, e.g. a database ping.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Server handles HTTP requests for the grade calculator.
type Server struct {
	sessions *session.Service
	checks   []Check
}

// New creates an API server backed by svc. Checks run on every /readyz call.
func New(svc *session.Service, checks ...Check) *Server {
	return &Server{sessions: svc, checks: checks}
}

// Handler returns the routed handler wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /readyz", s.readyz)

	// Catalog
	mux.HandleFunc("GET /catalog/programs", s.listPrograms)
	mux.HandleFunc("GET /catalog/programs/{program}/years", s.listYears)
	mux.HandleFunc("GET /catalog/programs/{program}/years/{year}/semesters", s.listSemesters)
	mux.HandleFunc("GET /catalog/programs/{program}/years/{year}/semesters/{semester}/subjects", s.listSubjects)

	// Sessions
	mux.HandleFunc("POST /sessions", s.createSession)
	mux.HandleFunc("GET /sessions/{id}", s.getSession)
	mux.HandleFunc("DELETE /sessions/{id}", s.deleteSession)
	mux.HandleFunc("PUT /sessions/{id}/selection", s.selectLevel)
	mux.HandleFunc("POST /sessions/{id}/reset", s.resetSession)
	mux.HandleFunc("PUT /sessions/{id}/marks", s.setMark)
	mux.HandleFunc("DELETE /sessions/{id}/marks", s.clearMarks)
	mux.HandleFunc("PUT /sessions/{id}/subjects/{subject}/coef", s.setCoefficient)
	mux.HandleFunc("POST /sessions/{id}/subjects/{subject}/inputs", s.addInput)
	mux.HandleFunc("DELETE /sessions/{id}/subjects/{subject}/inputs/{label}", s.removeInput)
	mux.HandleFunc("GET /sessions/{id}/result", s.getResult)
	mux.HandleFunc("GET /sessions/{id}/export.xlsx", s.exportXLSX)
	mux.HandleFunc("GET /sessions/{id}/live", s.live)

	return withLogging(withCORS(mux))
}

// withCORS adds CORS headers for browser clients.
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")
		w.Header().Set("Access-Control-Expose-Headers", "ETag")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ServeHTTP(w, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	for _, c := range s.checks {
		if err := c.Fn(ctx); err != nil {
			slog.Warn("readiness check failed", "check", c.Name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"check":  c.Name,
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// SessionView is a session together with its computed averages.
type SessionView struct {
	Session     *session.Session    `json:"session"`
	Result      grading.Result      `json:"result"`
	Suggestions map[string][]string `json:"suggestions"`
}

// EditResponse is returned by every subject or mark edit. Accepted is false
// when the edit was rejected and the session left unchanged.
type EditResponse struct {
	Accepted bool             `json:"accepted"`
	Session  *session.Session `json:"session"`
	Result   grading.Result   `json:"result"`
}

func newSessionView(sess *session.Session) SessionView {
	suggestions := make(map[string][]string, len(sess.Subjects))
	for _, sub := range sess.Subjects {
		suggestions[sub.ID] = sess.Suggestions(sub.ID)
	}
	return SessionView{Session: sess, Result: sess.Result(), Suggestions: suggestions}
}

func newEditResponse(sess *session.Session, accepted bool) EditResponse {
	return EditResponse{Accepted: accepted, Session: sess, Result: sess.Result()}
}

// text holds a value typed by the user. It accepts a JSON string or number
// and keeps the digits as written.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return errors.New("value must be a string or a number")
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = text(n.String())
	return nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps session and catalog errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrUnknownSelection), errors.Is(err, session.ErrUnknownLevel):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
		buf.Reset()
		buf.WriteString(`{"error":"internal error"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// etagMatches reports whether an If-None-Match header names etag.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
