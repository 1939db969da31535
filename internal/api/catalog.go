package api

import (
	"net/http"
)

// writeCatalog answers a catalog read. The catalog never changes while the
// server runs, so its fingerprint serves as the ETag.
func (s *Server) writeCatalog(w http.ResponseWriter, r *http.Request, data any) {
	etag := `"` + s.sessions.Catalog().Fingerprint() + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) listPrograms(w http.ResponseWriter, r *http.Request) {
	s.writeCatalog(w, r, map[string]any{
		"programs": s.sessions.Catalog().Programs(),
	})
}

func (s *Server) listYears(w http.ResponseWriter, r *http.Request) {
	program := r.PathValue("program")
	years := s.sessions.Catalog().Years(program)
	if years == nil {
		writeError(w, http.StatusNotFound, "unknown program")
		return
	}
	s.writeCatalog(w, r, map[string]any{
		"program": program,
		"years":   years,
	})
}

func (s *Server) listSemesters(w http.ResponseWriter, r *http.Request) {
	program, year := r.PathValue("program"), r.PathValue("year")
	semesters := s.sessions.Catalog().Semesters(program, year)
	if semesters == nil {
		writeError(w, http.StatusNotFound, "unknown program or year")
		return
	}
	s.writeCatalog(w, r, map[string]any{
		"program":   program,
		"year":      year,
		"semesters": semesters,
	})
}

func (s *Server) listSubjects(w http.ResponseWriter, r *http.Request) {
	program, year, semester := r.PathValue("program"), r.PathValue("year"), r.PathValue("semester")
	subjects, ok := s.sessions.Catalog().Subjects(program, year, semester)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown program, year or semester")
		return
	}
	s.writeCatalog(w, r, map[string]any{
		"program":  program,
		"year":     year,
		"semester": semester,
		"subjects": subjects,
	})
}
