package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/isimg/moyenne/internal/report"
	"github.com/isimg/moyenne/internal/session"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SelectionRequest picks one level of the catalog hierarchy.
type SelectionRequest struct {
	Level session.Level `json:"level"`
	Value string        `json:"value"`
}

// MarkRequest sets one score entry.
type MarkRequest struct {
	SubjectID string `json:"subject_id"`
	Label     string `json:"label"`
	Value     text   `json:"value"`
}

// CoefRequest changes a subject coefficient.
type CoefRequest struct {
	Value text `json:"value"`
}

// InputRequest adds an input label to a subject.
type InputRequest struct {
	Label string `json:"label"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, newSessionView(sess))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) selectLevel(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.sessions.Select(r.Context(), r.PathValue("id"), req.Level, req.Value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) setMark(w http.ResponseWriter, r *http.Request) {
	var req MarkRequest
	if !decode(w, r, &req) {
		return
	}
	sess, accepted, err := s.sessions.SetMark(r.Context(), r.PathValue("id"), req.SubjectID, req.Label, string(req.Value))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEditResponse(sess, accepted))
}

func (s *Server) clearMarks(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.ClearMarks(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) setCoefficient(w http.ResponseWriter, r *http.Request) {
	var req CoefRequest
	if !decode(w, r, &req) {
		return
	}
	sess, accepted, err := s.sessions.SetCoefficient(r.Context(), r.PathValue("id"), r.PathValue("subject"), string(req.Value))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEditResponse(sess, accepted))
}

func (s *Server) addInput(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !decode(w, r, &req) {
		return
	}
	sess, accepted, err := s.sessions.AddInput(r.Context(), r.PathValue("id"), r.PathValue("subject"), req.Label)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEditResponse(sess, accepted))
}

func (s *Server) removeInput(w http.ResponseWriter, r *http.Request) {
	sess, accepted, err := s.sessions.RemoveInput(r.Context(), r.PathValue("id"), r.PathValue("subject"), r.PathValue("label"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newEditResponse(sess, accepted))
}

func (s *Server) getResult(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Result())
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if sess.Semester == "" {
		writeError(w, http.StatusConflict, "no semester selected")
		return
	}

	var buf bytes.Buffer
	sel := report.Selection{Program: sess.Program, Year: sess.Year, Semester: sess.Semester}
	if err := report.WriteXLSX(&buf, sel, sess.Subjects, sess.Marks); err != nil {
		writeServiceError(w, fmt.Errorf("exporting session %s: %w", sess.ID, err))
		return
	}

	filename := fmt.Sprintf("moyenne-%s-a%s-s%s.xlsx", sess.Program, sess.Year, sess.Semester)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("writing export failed", "session_id", sess.ID, "error", err)
	}
}
