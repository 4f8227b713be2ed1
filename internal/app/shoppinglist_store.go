package app

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"mealplanner/internal/domain"
)

const (
	defaultItemAmount = "1"
	defaultItemUnit   = "unit"
)

// NewItem is the user-supplied part of a manual shopping-list item.
type NewItem struct {
	Name     string                    `json:"name"`
	Amount   string                    `json:"amount"`
	Unit     string                    `json:"unit"`
	Category domain.IngredientCategory `json:"category"`
}

// CategoryGroup is one aisle of the grouped shopping list.
type CategoryGroup struct {
	Category domain.IngredientCategory `json:"category"`
	Items    []domain.ShoppingListItem `json:"items"`
}

// ShoppingListStore owns the shopping list: manual items added by the user
// followed by the items derived from the meal plan.
type ShoppingListStore struct {
	logger *slog.Logger
	newID  func() string

	mu    sync.RWMutex
	items []domain.ShoppingListItem
}

// NewShoppingListStore creates an empty shopping list.
func NewShoppingListStore(opts ...Option) *ShoppingListStore {
	o := buildOptions(opts)
	return &ShoppingListStore{
		logger: o.logger,
		newID:  o.newID,
		items:  []domain.ShoppingListItem{},
	}
}

// Attach regenerates from plan now and after every confirmed change to it.
func (s *ShoppingListStore) Attach(plan *MealPlanStore) {
	plan.Subscribe(s.Regenerate)
	s.Regenerate(plan.Days())
}

// Regenerate rebuilds the list from days: current manual items keep their
// order, ids and completed flags, followed by a fresh derived batch.
func (s *ShoppingListStore) Regenerate(days []domain.MealPlanDay) {
	var recipes []domain.Recipe
	for _, d := range days {
		recipes = append(recipes, d.Meals...)
	}
	derived := domain.GenerateShoppingList(recipes)

	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.ShoppingListItem, 0, len(s.items)+len(derived))
	for _, it := range s.items {
		if !it.Derived() {
			items = append(items, it)
		}
	}
	manual := len(items)
	s.items = append(items, derived...)
	s.logger.Debug("shopping list regenerated", "manual", manual, "derived", len(derived))
}

// AddItem appends a manual item. Blank amount, unit and category fall back to
// "1", "unit" and Other.
func (s *ShoppingListStore) AddItem(in NewItem) (domain.ShoppingListItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.ShoppingListItem{}, ErrItemNameRequired
	}
	category, ok := domain.ParseCategory(string(in.Category))
	if !ok {
		return domain.ShoppingListItem{}, fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}
	item := domain.ShoppingListItem{
		ID:       s.newID(),
		Name:     name,
		Amount:   orDefault(in.Amount, defaultItemAmount),
		Unit:     orDefault(in.Unit, defaultItemUnit),
		Category: category,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	return item, nil
}

// RemoveItem deletes the item with id, manual or derived. It reports whether
// anything was removed.
func (s *ShoppingListStore) RemoveItem(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// ToggleItem flips the completed flag of the item with id.
func (s *ShoppingListStore) ToggleItem(id string) (domain.ShoppingListItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Completed = !s.items[i].Completed
			return cloneItem(s.items[i]), true
		}
	}
	return domain.ShoppingListItem{}, false
}

// ClearCompleted removes every completed item and returns how many went.
func (s *ShoppingListStore) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	removed := 0
	for _, it := range s.items {
		if it.Completed {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	return removed
}

// Items returns the list in order.
func (s *ShoppingListStore) Items() []domain.ShoppingListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ShoppingListItem, len(s.items))
	for i, it := range s.items {
		out[i] = cloneItem(it)
	}
	return out
}

// ItemsByCategory returns the items in category, in list order.
func (s *ShoppingListStore) ItemsByCategory(category domain.IngredientCategory) []domain.ShoppingListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.ShoppingListItem{}
	for _, it := range s.items {
		if it.Category == category {
			out = append(out, cloneItem(it))
		}
	}
	return out
}

// Grouped returns the list split by category in display order. Empty
// categories are omitted.
func (s *ShoppingListStore) Grouped() []CategoryGroup {
	byCategory := make(map[domain.IngredientCategory][]domain.ShoppingListItem)
	for _, it := range s.Items() {
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}
	groups := []CategoryGroup{}
	for _, c := range domain.Categories {
		if items := byCategory[c]; len(items) > 0 {
			groups = append(groups, CategoryGroup{Category: c, Items: items})
		}
	}
	return groups
}

func cloneItem(it domain.ShoppingListItem) domain.ShoppingListItem {
	if it.Recipe != nil {
		ref := *it.Recipe
		it.Recipe = &ref
	}
	return it
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
