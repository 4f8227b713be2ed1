package app

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"mealplanner/internal/domain"
)

// CatalogService reads recipes from the catalog.
type CatalogService struct {
	catalog domain.RecipeCatalog
}

// NewCatalogService creates a CatalogService backed by the given catalog.
func NewCatalogService(catalog domain.RecipeCatalog) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// Get returns the recipe with id or ErrRecipeNotFound.
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*domain.Recipe, error) {
	r, err := s.catalog.GetRecipe(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && r == nil) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns every recipe in the catalog.
func (s *CatalogService) List(ctx context.Context) ([]domain.Recipe, error) {
	recipes, err := s.catalog.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []domain.Recipe{}
	}
	return recipes, nil
}
