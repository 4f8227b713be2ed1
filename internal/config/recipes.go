package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"mealplanner/internal/domain"
)

type recipeSeed struct {
	Recipes []seedRecipe `toml:"recipes"`
}

type seedRecipe struct {
	ID           string              `toml:"id"`
	Title        string              `toml:"title"`
	Description  string              `toml:"description"`
	Image        string              `toml:"image"`
	PrepTime     int                 `toml:"prep_time"`
	CookTime     int                 `toml:"cook_time"`
	Servings     int                 `toml:"servings"`
	Calories     int                 `toml:"calories"`
	Tags         []string            `toml:"tags"`
	Ingredients  []domain.Ingredient `toml:"ingredients"`
	Instructions []string            `toml:"instructions"`
	Influencer   seedInfluencer      `toml:"influencer"`
}

type seedInfluencer struct {
	ID     string `toml:"id"`
	Name   string `toml:"name"`
	Avatar string `toml:"avatar"`
}

// LoadRecipes reads a recipe catalog seed file. Missing ids are derived from
// the title (recipes) or name (influencers) so reseeding upserts in place.
func LoadRecipes(path string) ([]domain.Recipe, error) {
	var seed recipeSeed
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	out := make([]domain.Recipe, 0, len(seed.Recipes))
	for i, s := range seed.Recipes {
		if s.Title == "" {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("recipe %d: title is required", i)}
		}
		id, err := optionalUUID(s.ID)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("recipe %q: %w", s.Title, err)}
		}
		if id == uuid.Nil {
			id = stableID("recipe", s.Title)
		}
		infID, err := optionalUUID(s.Influencer.ID)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("recipe %q influencer: %w", s.Title, err)}
		}
		if infID == uuid.Nil && s.Influencer.Name != "" {
			infID = stableID("influencer", s.Influencer.Name)
		}
		out = append(out, domain.Recipe{
			ID:           id,
			Title:        s.Title,
			Description:  s.Description,
			Image:        s.Image,
			PrepTime:     s.PrepTime,
			CookTime:     s.CookTime,
			Servings:     s.Servings,
			Calories:     s.Calories,
			Tags:         s.Tags,
			Ingredients:  s.Ingredients,
			Instructions: s.Instructions,
			Influencer:   domain.InfluencerRef{ID: infID, Name: s.Influencer.Name, Avatar: s.Influencer.Avatar},
		})
	}
	return out, nil
}

func optionalUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s)
}

func stableID(kind, name string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(kind+":"+name))
}
