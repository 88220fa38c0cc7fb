package http

import (
	"net/http"

	"tally/internal/core"
)

func (s *Server) handleListDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := s.api.ListDefinitions(r.Context(), profileID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, defs)
}

func (s *Server) handleCreateDefinition(w http.ResponseWriter, r *http.Request) {
	var def core.CustomSummaryDefinition
	if err := decodeJSON(w, r, &def); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.api.AddDefinition(r.Context(), profileID(r), def)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateDefinition replaces a definition. The id in the path wins over
// any id in the body.
func (s *Server) handleUpdateDefinition(w http.ResponseWriter, r *http.Request) {
	var def core.CustomSummaryDefinition
	if err := decodeJSON(w, r, &def); err != nil {
		s.writeError(w, r, err)
		return
	}
	def.ID = sanitizeInput(r.PathValue("sid"))
	if err := s.api.UpdateDefinition(r.Context(), profileID(r), def); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (s *Server) handleDeleteDefinition(w http.ResponseWriter, r *http.Request) {
	if err := s.api.DeleteDefinition(r.Context(), profileID(r), sanitizeInput(r.PathValue("sid"))); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDefinitionResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.api.EvaluateDefinitions(r.Context(), profileID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultResponses(results))
}

func (s *Server) handleHours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h, err := s.api.LegacyHours(r.Context(), profileID(r), sanitizeInput(q.Get("entity")), sanitizeInput(q.Get("reason")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newHoursResponse(h))
}
