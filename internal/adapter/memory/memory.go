// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mealplanner/internal/domain"
)

type mealPlanRow struct {
	id        int64
	userID    uuid.UUID
	recipeID  uuid.UUID
	weekStart string
	dayOfWeek int
}

// DB implements an in-memory database storage.
type DB struct {
	mu        sync.Mutex
	recipes   map[uuid.UUID]domain.Recipe
	mealPlans []mealPlanRow
	users     []*domain.User
	sessions  map[string]*domain.Session

	mealPlanIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		recipes:  make(map[uuid.UUID]domain.Recipe),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.RecipeCatalog = (*DB)(nil)
var _ domain.MealPlanRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- RecipeCatalog ---

// PutRecipe inserts or replaces a recipe. A nil ID is assigned a new one.
func (db *DB) PutRecipe(ctx context.Context, r domain.Recipe) (uuid.UUID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	db.recipes[r.ID] = r.Clone()
	return r.ID, nil
}

// GetRecipe retrieves a recipe by ID.
func (db *DB) GetRecipe(ctx context.Context, id uuid.UUID) (*domain.Recipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.recipes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := r.Clone()
	return &c, nil
}

// ListRecipes lists all recipes, newest first.
func (db *DB) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.Recipe, 0, len(db.recipes))
	for _, r := range db.recipes {
		result = append(result, r.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Title < result[j].Title
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// --- MealPlanRepository ---

func weekKey(weekStart time.Time) string {
	return weekStart.Format(time.DateOnly)
}

// FetchMealPlan returns the user's rows for the week in insertion order.
// Rows whose recipe has since disappeared carry a nil summary.
func (db *DB) FetchMealPlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]domain.MealPlanRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := weekKey(weekStart)
	result := []domain.MealPlanRecord{}
	for _, row := range db.mealPlans {
		if row.userID != userID || row.weekStart != key {
			continue
		}
		rec := domain.MealPlanRecord{DayOfWeek: row.dayOfWeek}
		if r, ok := db.recipes[row.recipeID]; ok {
			rec.Recipe = &domain.RecipeSummary{
				ID:          r.ID,
				Title:       r.Title,
				Image:       r.Image,
				PrepTime:    r.PrepTime,
				CookTime:    r.CookTime,
				Servings:    r.Servings,
				Ingredients: append([]domain.Ingredient(nil), r.Ingredients...),
				Influencer:  r.Influencer,
			}
		}
		result = append(result, rec)
	}
	return result, nil
}

// WriteMealPlanEntry records a planned recipe. The recipe must exist.
func (db *DB) WriteMealPlanEntry(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error {
	if dayOfWeek < 1 || dayOfWeek > domain.DaysPerWeek {
		return fmt.Errorf("%w: %d", domain.ErrInvalidDayOfWeek, dayOfWeek)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.recipes[recipeID]; !ok {
		return fmt.Errorf("recipe %s: %w", recipeID, domain.ErrNotFound)
	}

	db.mealPlanIDCounter++
	db.mealPlans = append(db.mealPlans, mealPlanRow{
		id:        db.mealPlanIDCounter,
		userID:    userID,
		recipeID:  recipeID,
		weekStart: weekKey(weekStart),
		dayOfWeek: dayOfWeek,
	})
	return nil
}

// DeleteMealPlanEntry removes the oldest matching row, if any.
func (db *DB) DeleteMealPlanEntry(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := weekKey(weekStart)
	for i, row := range db.mealPlans {
		if row.userID == userID && row.recipeID == recipeID && row.weekStart == key && row.dayOfWeek == dayOfWeek {
			db.mealPlans = append(db.mealPlans[:i], db.mealPlans[i+1:]...)
			return nil
		}
	}
	return nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserExists, username)
		}
	}

	u := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token. Expired sessions are dropped and
// reported as not found.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, token)
			return nil, domain.ErrNotFound
		}
		return s, nil
	}
	return nil, domain.ErrNotFound
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
