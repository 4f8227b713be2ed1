package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DaysPerWeek is the size of the meal plan window.
const DaysPerWeek = 7

// ErrInvalidDayOfWeek is returned when a date does not map through the
// weekday table. It indicates a programming error.
var ErrInvalidDayOfWeek = errors.New("invalid day of week")

// MealPlanDay is one calendar day of the plan and the recipes assigned to it.
// A recipe may appear more than once.
type MealPlanDay struct {
	Date  time.Time `json:"date"`
	Meals []Recipe  `json:"meals"`
}

// Clone returns a deep copy of d.
func (d MealPlanDay) Clone() MealPlanDay {
	c := MealPlanDay{Date: d.Date, Meals: make([]Recipe, len(d.Meals))}
	for i, m := range d.Meals {
		c.Meals[i] = m.Clone()
	}
	return c
}

// weekdayTable is the persisted day-of-week representation. It is also the
// filter key on load, so it must stay stable.
var weekdayTable = map[time.Weekday]int{
	time.Monday:    1,
	time.Tuesday:   2,
	time.Wednesday: 3,
	time.Thursday:  4,
	time.Friday:    5,
	time.Saturday:  6,
	time.Sunday:    7,
}

// DayOfWeekFor translates t into the persisted 1..7 representation
// (Monday=1, Sunday=7).
func DayOfWeekFor(t time.Time) (int, error) {
	dow, ok := weekdayTable[t.Weekday()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidDayOfWeek, t.Weekday())
	}
	return dow, nil
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the Sunday that begins t's week.
func WeekStart(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekWindow returns the seven empty days of the week containing t.
func WeekWindow(t time.Time) []MealPlanDay {
	start := WeekStart(t)
	days := make([]MealPlanDay, DaysPerWeek)
	for i := range days {
		days[i] = MealPlanDay{Date: start.AddDate(0, 0, i), Meals: []Recipe{}}
	}
	return days
}

// SameDay reports whether a and b fall on the same calendar day. b is
// converted into a's location first.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// RecipeSummary is the subset of recipe fields the meal plan store returns
// for a planned meal.
type RecipeSummary struct {
	ID          uuid.UUID
	Title       string
	Image       string
	PrepTime    int
	CookTime    int
	Servings    int
	Ingredients []Ingredient
	Influencer  InfluencerRef
}

// ToRecipe maps a summary to a Recipe. Fields the summary does not carry are
// left at their zero value.
func (s RecipeSummary) ToRecipe() Recipe {
	return Recipe{
		ID:          s.ID,
		Title:       s.Title,
		Image:       s.Image,
		PrepTime:    s.PrepTime,
		CookTime:    s.CookTime,
		Servings:    s.Servings,
		Tags:        []string{},
		Ingredients: append([]Ingredient(nil), s.Ingredients...),
		Influencer:  s.Influencer,
	}
}

// MealPlanRecord is one persisted meal plan row. Recipe is nil when the
// referenced recipe no longer exists.
type MealPlanRecord struct {
	DayOfWeek int
	Recipe    *RecipeSummary
}

// MealPlanRepository is the port for meal plan persistence.
// DeleteMealPlanEntry removes at most one matching row and does not fail
// when nothing matches.
type MealPlanRepository interface {
	FetchMealPlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]MealPlanRecord, error)
	WriteMealPlanEntry(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error
	DeleteMealPlanEntry(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error
}
