package app

import "errors"

var (
	// ErrNotAuthenticated indicates a meal plan mutation was attempted with no
	// signed-in identity.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPersistence wraps failures reported by the meal plan repository.
	ErrPersistence = errors.New("meal plan persistence failed")
	// ErrItemNameRequired indicates a manual shopping item with a blank name.
	ErrItemNameRequired = errors.New("item name is required")
	// ErrInvalidCategory indicates a category outside the fixed set.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrRecipeNotFound indicates the requested recipe does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")
)
