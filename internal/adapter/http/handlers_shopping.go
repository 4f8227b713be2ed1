package adapthttp

import (
	"fmt"
	"net/http"

	"mealplanner/internal/app"
	"mealplanner/internal/domain"
)

func (s *Server) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	if q.Has("category") {
		category, ok := domain.ParseCategory(q.Get("category"))
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", app.ErrInvalidCategory, q.Get("category")))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": p.Shopping.ItemsByCategory(category)})
		return
	}
	if q.Get("grouped") == "1" {
		writeJSON(w, http.StatusOK, map[string]any{"groups": p.Shopping.Grouped()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": p.Shopping.Items()})
}

func (s *Server) handleShoppingAdd(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	var body app.NewItem
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	item, err := p.Shopping.AddItem(body)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"item": item})
}

func (s *Server) handleShoppingRemove(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if !p.Shopping.RemoveItem(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("item %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleShoppingToggle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	item, found := p.Shopping.ToggleItem(id)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("item %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (s *Server) handleShoppingClearCompleted(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	removed := p.Shopping.ClearCompleted()
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}
