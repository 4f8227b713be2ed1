package adapthttp

import (
	"net/http"
)

func (s *Server) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.catalog.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": recipes})
}

func (s *Server) handleRecipeGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUID("id", r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	recipe, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipe": recipe})
}
