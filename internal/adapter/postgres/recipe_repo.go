package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"mealplanner/internal/domain"
)

const recipeColumns = `r.id, r.title, r.description, r.image_url, r.prep_time, r.cook_time,
	r.servings, r.calories, r.tags, r.ingredients, r.instructions, r.created_at,
	i.id, COALESCE(i.name, ''), COALESCE(i.avatar_url, '')`

const recipeFrom = `FROM recipes r LEFT JOIN influencers i ON i.id = r.influencer_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*domain.Recipe, error) {
	var (
		r            domain.Recipe
		tags         pq.StringArray
		ingredients  []byte
		instructions []byte
		influencerID uuid.NullUUID
	)
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Image, &r.PrepTime, &r.CookTime,
		&r.Servings, &r.Calories, &tags, &ingredients, &instructions, &r.CreatedAt,
		&influencerID, &r.Influencer.Name, &r.Influencer.Avatar)
	if err != nil {
		return nil, err
	}
	r.Tags = []string(tags)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if err := json.Unmarshal(ingredients, &r.Ingredients); err != nil {
		return nil, fmt.Errorf("recipe %s ingredients: %w", r.ID, err)
	}
	if err := json.Unmarshal(instructions, &r.Instructions); err != nil {
		return nil, fmt.Errorf("recipe %s instructions: %w", r.ID, err)
	}
	if influencerID.Valid {
		r.Influencer.ID = influencerID.UUID
	}
	return &r, nil
}

// GetRecipe retrieves a recipe by ID.
func (d *DB) GetRecipe(ctx context.Context, id uuid.UUID) (*domain.Recipe, error) {
	row := d.sql.QueryRowContext(ctx, "SELECT "+recipeColumns+" "+recipeFrom+" WHERE r.id = $1", id)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return r, err
}

// ListRecipes lists all recipes, newest first.
func (d *DB) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT "+recipeColumns+" "+recipeFrom+" ORDER BY r.created_at DESC, r.title")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// PutRecipe inserts or replaces a recipe and its influencer. A nil ID is
// assigned a new one.
func (d *DB) PutRecipe(ctx context.Context, r domain.Recipe) (uuid.UUID, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Ingredients == nil {
		r.Ingredients = []domain.Ingredient{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	ingredients, err := json.Marshal(r.Ingredients)
	if err != nil {
		return uuid.Nil, err
	}
	instructions, err := json.Marshal(r.Instructions)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	var influencerID uuid.NullUUID
	if r.Influencer.ID != uuid.Nil {
		influencerID = uuid.NullUUID{UUID: r.Influencer.ID, Valid: true}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO influencers (id, name, avatar_url) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, avatar_url = EXCLUDED.avatar_url`,
			r.Influencer.ID, r.Influencer.Name, r.Influencer.Avatar)
		if err != nil {
			return uuid.Nil, fmt.Errorf("upsert influencer: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, title, description, image_url, prep_time, cook_time, servings,
			calories, tags, ingredients, instructions, influencer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description, image_url = EXCLUDED.image_url,
			prep_time = EXCLUDED.prep_time, cook_time = EXCLUDED.cook_time, servings = EXCLUDED.servings,
			calories = EXCLUDED.calories, tags = EXCLUDED.tags, ingredients = EXCLUDED.ingredients,
			instructions = EXCLUDED.instructions, influencer_id = EXCLUDED.influencer_id`,
		r.ID, r.Title, r.Description, r.Image, r.PrepTime, r.CookTime, r.Servings,
		r.Calories, pq.StringArray(r.Tags), ingredients, instructions, influencerID, r.CreatedAt.UTC())
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert recipe: %w", err)
	}
	return r.ID, tx.Commit()
}
