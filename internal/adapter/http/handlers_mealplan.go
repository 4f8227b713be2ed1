package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"mealplanner/internal/app"
	"mealplanner/internal/domain"
)

// planner resolves the caller's planner. A failed load is logged and the
// planner is still served with its last confirmed window.
func (s *Server) planner(w http.ResponseWriter, r *http.Request) (*app.Planner, bool) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, app.ErrNotAuthenticated)
		return nil, false
	}
	p, err := s.planners.For(r.Context(), user.ID)
	if p == nil {
		writeAppError(w, err)
		return nil, false
	}
	if err != nil {
		s.logger.Warn("meal plan sync failed", "user_id", user.ID.String(), "error", err)
	}
	return p, true
}

func mealPlanBody(store *app.MealPlanStore) map[string]any {
	days := store.Days()
	return map[string]any{
		"weekStart": days[0].Date.Format(time.DateOnly),
		"loading":   store.Loading(),
		"days":      days,
	}
}

func (s *Server) handleMealPlan(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mealPlanBody(p.MealPlan))
}

type mealRequest struct {
	RecipeID string `json:"recipeId"`
	Date     string `json:"date"`
}

func (s *Server) parseMealRequest(r *http.Request, requireDate bool) (mealRequest, time.Time, error) {
	var body mealRequest
	if err := parseJSON(r, &body); err != nil {
		return body, time.Time{}, err
	}
	if requireDate && body.Date == "" {
		return body, time.Time{}, errors.New("date is required")
	}
	date, err := parseDay(body.Date, s.now().Location())
	return body, date, err
}

func (s *Server) handleMealAdd(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	body, date, err := s.parseMealRequest(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	recipeID, err := parseUUID("recipeId", body.RecipeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	recipe, err := s.catalog.Get(r.Context(), recipeID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := p.MealPlan.AddRecipe(r.Context(), *recipe, date); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mealPlanBody(p.MealPlan))
}

func (s *Server) handleMealRemove(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	body, date, err := s.parseMealRequest(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	recipeID, err := parseUUID("recipeId", body.RecipeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := p.MealPlan.RemoveRecipe(r.Context(), recipeID, date); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mealPlanBody(p.MealPlan))
}

func (s *Server) handleMealPlanSync(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	if err := p.MealPlan.Sync(r.Context()); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mealPlanBody(p.MealPlan))
}

func (s *Server) handleMealPlanToday(w http.ResponseWriter, r *http.Request) {
	p, ok := s.planner(w, r)
	if !ok {
		return
	}
	today := domain.StartOfDay(s.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  today.Format(time.DateOnly),
		"meals": p.MealPlan.MealsOn(today),
	})
}
