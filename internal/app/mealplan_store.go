package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mealplanner/internal/domain"
)

// MealPlanStore holds one identity's seven-day meal plan window and keeps it
// in step with the meal plan repository.
//
// Operations that talk to the repository (Sync, AddRecipe, RemoveRecipe) are
// serialized, so a load-sync never overwrites a mutation confirmed after its
// fetch began. SetIdentity does not wait for them; results computed under a
// previous identity are discarded instead.
//
// Every window change gets a version. Subscribers see versions in increasing
// order and a snapshot older than one already delivered is dropped, so the
// last snapshot a subscriber receives is always the current window.
type MealPlanStore struct {
	repo   domain.MealPlanRepository
	now    func() time.Time
	logger *slog.Logger

	opMu sync.Mutex

	mu          sync.RWMutex
	days        []domain.MealPlanDay
	identity    *uuid.UUID
	loading     bool
	synced      bool
	generation  uint64
	version     uint64
	subscribers []func([]domain.MealPlanDay)

	notifyMu  sync.Mutex
	delivered uint64
}

// windowChange is a window snapshot waiting to be delivered.
type windowChange struct {
	version uint64
	days    []domain.MealPlanDay
	subs    []func([]domain.MealPlanDay)
}

// NewMealPlanStore creates a store with an empty window for the current week
// and no identity.
func NewMealPlanStore(repo domain.MealPlanRepository, opts ...Option) *MealPlanStore {
	o := buildOptions(opts)
	return &MealPlanStore{
		repo:   repo,
		now:    o.now,
		logger: o.logger,
		days:   domain.WeekWindow(o.now()),
	}
}

// Subscribe registers fn to receive a copy of the window after every
// confirmed change. Callbacks run synchronously and must not call back into
// the store's mutating methods.
func (s *MealPlanStore) Subscribe(fn func([]domain.MealPlanDay)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// SetIdentity switches the signed-in user. A different identity resets the
// window to the current week's empty days. Loading stays set until the next
// Sync when an identity is present; with nil the store is local-only.
func (s *MealPlanStore) SetIdentity(userID *uuid.UUID) {
	s.mu.Lock()
	if sameIdentity(s.identity, userID) {
		s.mu.Unlock()
		return
	}
	if userID != nil {
		id := *userID
		s.identity = &id
	} else {
		s.identity = nil
	}
	s.generation++
	s.days = domain.WeekWindow(s.now())
	s.loading = userID != nil
	s.synced = false
	change := s.changeLocked()
	s.mu.Unlock()

	s.notify(change)
}

// Stale reports whether the window needs a load-sync: the identity has not
// been synced yet, the last sync failed, or the clock has moved into another
// week. Local-only stores are never stale.
func (s *MealPlanStore) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return false
	}
	return !s.synced || !s.days[0].Date.Equal(domain.WeekStart(s.now()))
}

// Sync fetches the persisted plan for the current week and replaces the
// window wholesale. With no identity it only clears the loading flag. A
// fetch failure keeps the window's contents when it still covers the current
// week, otherwise the window moves on empty; either way the error wraps
// ErrPersistence.
func (s *MealPlanStore) Sync(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	userID, gen := s.identity, s.generation
	if userID == nil {
		s.loading = false
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	window := domain.WeekWindow(s.now())
	weekStart := window[0].Date
	records, err := s.repo.FetchMealPlan(ctx, *userID, weekStart)
	if err != nil {
		s.logger.Warn("meal plan sync failed",
			"user_id", userID.String(),
			"week_start", weekStart.Format(time.DateOnly),
			"error", err)
		err = fmt.Errorf("%w: fetch: %w", ErrPersistence, err)
	} else {
		err = fillWindow(window, records)
	}

	s.mu.Lock()
	if s.generation != gen {
		// Identity changed while the fetch was in flight.
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	if err != nil {
		s.synced = false
		if s.days[0].Date.Equal(weekStart) {
			s.mu.Unlock()
			return err
		}
		s.days = domain.WeekWindow(weekStart)
		change := s.changeLocked()
		s.mu.Unlock()
		s.notify(change)
		return err
	}
	s.days = window
	s.synced = true
	change := s.changeLocked()
	s.mu.Unlock()

	s.notify(change)
	return nil
}

func fillWindow(window []domain.MealPlanDay, records []domain.MealPlanRecord) error {
	for i := range window {
		dow, err := domain.DayOfWeekFor(window[i].Date)
		if err != nil {
			return err
		}
		meals := []domain.Recipe{}
		for _, rec := range records {
			if rec.DayOfWeek == dow && rec.Recipe != nil {
				meals = append(meals, rec.Recipe.ToRecipe())
			}
		}
		window[i].Meals = meals
	}
	return nil
}

// AddRecipe plans recipe on date; the zero date means today. The write is
// persisted first and the window only changes once it succeeds. A date
// outside the current window is persisted without touching the window.
func (s *MealPlanStore) AddRecipe(ctx context.Context, recipe domain.Recipe, date time.Time) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	userID, gen, err := s.requireIdentity()
	if err != nil {
		return err
	}
	date = s.localDate(date)
	dow, err := domain.DayOfWeekFor(date)
	if err != nil {
		return err
	}

	if err := s.repo.WriteMealPlanEntry(ctx, userID, recipe.ID, domain.WeekStart(date), dow); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRecipeNotFound, recipe.ID)
		}
		s.logger.Warn("meal plan write failed",
			"user_id", userID.String(),
			"recipe_id", recipe.ID.String(),
			"date", date.Format(time.DateOnly),
			"error", err)
		return fmt.Errorf("%w: write: %w", ErrPersistence, err)
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return nil
	}
	changed := false
	for i := range s.days {
		if domain.SameDay(s.days[i].Date, date) {
			s.days[i].Meals = append(s.days[i].Meals, recipe.Clone())
			changed = true
			break
		}
	}
	if !changed {
		s.mu.Unlock()
		s.logger.Debug("planned recipe outside current window",
			"recipe_id", recipe.ID.String(),
			"date", date.Format(time.DateOnly))
		return nil
	}
	change := s.changeLocked()
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// RemoveRecipe deletes one planned instance of recipeID from date. The
// repository delete is issued even when the window holds no such instance.
func (s *MealPlanStore) RemoveRecipe(ctx context.Context, recipeID uuid.UUID, date time.Time) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	userID, gen, err := s.requireIdentity()
	if err != nil {
		return err
	}
	date = s.localDate(date)
	dow, err := domain.DayOfWeekFor(date)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteMealPlanEntry(ctx, userID, recipeID, domain.WeekStart(date), dow); err != nil {
		s.logger.Warn("meal plan delete failed",
			"user_id", userID.String(),
			"recipe_id", recipeID.String(),
			"date", date.Format(time.DateOnly),
			"error", err)
		return fmt.Errorf("%w: delete: %w", ErrPersistence, err)
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return nil
	}
	changed := false
	for i := range s.days {
		if !domain.SameDay(s.days[i].Date, date) {
			continue
		}
		meals := s.days[i].Meals
		for j := range meals {
			if meals[j].ID == recipeID {
				s.days[i].Meals = append(meals[:j:j], meals[j+1:]...)
				changed = true
				break
			}
		}
		break
	}
	if !changed {
		s.mu.Unlock()
		return nil
	}
	change := s.changeLocked()
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// Days returns a deep copy of the window.
func (s *MealPlanStore) Days() []domain.MealPlanDay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneDays(s.days)
}

// Loading reports whether a load-sync for the current identity is pending.
func (s *MealPlanStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Identity returns the signed-in user, or nil in local-only mode.
func (s *MealPlanStore) Identity() *uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// MealsOn returns the recipes planned on date, or an empty slice when date is
// outside the window.
func (s *MealPlanStore) MealsOn(date time.Time) []domain.Recipe {
	date = s.localDate(date)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.days {
		if domain.SameDay(d.Date, date) {
			return d.Clone().Meals
		}
	}
	return []domain.Recipe{}
}

func (s *MealPlanStore) requireIdentity() (uuid.UUID, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return uuid.Nil, 0, ErrNotAuthenticated
	}
	return *s.identity, s.generation, nil
}

// localDate resolves the zero date to today and moves date into the clock's
// location so weekday and week-start arithmetic agree with the window.
func (s *MealPlanStore) localDate(date time.Time) time.Time {
	now := s.now()
	if date.IsZero() {
		return now
	}
	return date.In(now.Location())
}

// changeLocked versions the current window. s.mu must be held for writing.
func (s *MealPlanStore) changeLocked() windowChange {
	s.version++
	c := windowChange{version: s.version}
	if len(s.subscribers) == 0 {
		return c
	}
	c.subs = make([]func([]domain.MealPlanDay), len(s.subscribers))
	copy(c.subs, s.subscribers)
	c.days = cloneDays(s.days)
	return c
}

func (s *MealPlanStore) notify(c windowChange) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if c.version <= s.delivered {
		return
	}
	s.delivered = c.version
	for _, fn := range c.subs {
		fn(c.days)
	}
}

func cloneDays(days []domain.MealPlanDay) []domain.MealPlanDay {
	out := make([]domain.MealPlanDay, len(days))
	for i, d := range days {
		out[i] = d.Clone()
	}
	return out
}

func sameIdentity(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
