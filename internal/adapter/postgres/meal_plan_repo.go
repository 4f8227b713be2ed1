package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mealplanner/internal/domain"
)

func weekDate(weekStart time.Time) string {
	return weekStart.Format(time.DateOnly)
}

// FetchMealPlan returns the user's rows for the week in insertion order with
// a summary of each planned recipe.
func (d *DB) FetchMealPlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]domain.MealPlanRecord, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT mp.day_of_week, r.id, r.title, r.image_url, r.prep_time, r.cook_time,
			r.servings, r.ingredients, i.id, i.name, i.avatar_url
		FROM meal_plans mp
		LEFT JOIN recipes r ON r.id = mp.recipe_id
		LEFT JOIN influencers i ON i.id = r.influencer_id
		WHERE mp.user_id = $1 AND mp.week_start_date = $2::date
		ORDER BY mp.id;`,
		userID, weekDate(weekStart))
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.MealPlanRecord{}
	for rows.Next() {
		var (
			rec          domain.MealPlanRecord
			recipeID     uuid.NullUUID
			title, image *string
			prep, cook   *int
			servings     *int
			ingredients  []byte
			influencerID uuid.NullUUID
			infName      *string
			infAvatar    *string
		)
		if err := rows.Scan(&rec.DayOfWeek, &recipeID, &title, &image, &prep, &cook,
			&servings, &ingredients, &influencerID, &infName, &infAvatar); err != nil {
			return nil, err
		}
		if recipeID.Valid {
			s := &domain.RecipeSummary{
				ID:       recipeID.UUID,
				Title:    deref(title),
				Image:    deref(image),
				PrepTime: deref(prep),
				CookTime: deref(cook),
				Servings: deref(servings),
			}
			if len(ingredients) > 0 {
				if err := json.Unmarshal(ingredients, &s.Ingredients); err != nil {
					return nil, fmt.Errorf("recipe %s ingredients: %w", s.ID, err)
				}
			}
			if influencerID.Valid {
				s.Influencer = domain.InfluencerRef{ID: influencerID.UUID, Name: deref(infName), Avatar: deref(infAvatar)}
			}
			rec.Recipe = s
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// foreignKeyViolation is the SQLSTATE raised when recipe_id has no recipe.
const foreignKeyViolation = "23503"

// WriteMealPlanEntry inserts one planned recipe. The recipe must exist.
func (d *DB) WriteMealPlanEntry(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error {
	if dayOfWeek < 1 || dayOfWeek > domain.DaysPerWeek {
		return fmt.Errorf("%w: %d", domain.ErrInvalidDayOfWeek, dayOfWeek)
	}
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO meal_plans(user_id, recipe_id, week_start_date, day_of_week, created_at) VALUES($1, $2, $3::date, $4, $5);",
		userID, recipeID, weekDate(weekStart), dayOfWeek, time.Now().UTC())
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return fmt.Errorf("recipe %s: %w", recipeID, domain.ErrNotFound)
	}
	return err
}

// DeleteMealPlanEntry removes the oldest matching row, if any.
func (d *DB) DeleteMealPlanEntry(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error {
	_, err := d.sql.ExecContext(ctx, `
		DELETE FROM meal_plans WHERE id = (
			SELECT id FROM meal_plans
			WHERE user_id = $1 AND recipe_id = $2 AND week_start_date = $3::date AND day_of_week = $4
			ORDER BY id LIMIT 1
		);`,
		userID, recipeID, weekDate(weekStart), dayOfWeek)
	return err
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
