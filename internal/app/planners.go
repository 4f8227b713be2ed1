package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"mealplanner/internal/domain"
)

// Planner is one user's meal plan and the shopping list derived from it.
type Planner struct {
	MealPlan *MealPlanStore
	Shopping *ShoppingListStore
}

type plannerEntry struct {
	planner  *Planner
	lastUsed time.Time
}

// Planners keeps one Planner per signed-in user until it is forgotten or
// evicted for idleness.
type Planners struct {
	repo domain.MealPlanRepository
	opts []Option
	now  func() time.Time

	mu       sync.Mutex
	planners map[uuid.UUID]*plannerEntry
}

// NewPlanners creates an empty registry. opts are passed to every store it
// builds.
func NewPlanners(repo domain.MealPlanRepository, opts ...Option) *Planners {
	return &Planners{
		repo:     repo,
		opts:     opts,
		now:      buildOptions(opts).now,
		planners: make(map[uuid.UUID]*plannerEntry),
	}
}

// For returns the planner for userID, building it on first use. A planner
// whose window is stale (never synced, last sync failed, or a new week has
// started) is load-synced before it is returned. A failed sync is returned
// alongside the still usable planner.
func (p *Planners) For(ctx context.Context, userID uuid.UUID) (*Planner, error) {
	p.mu.Lock()
	e, ok := p.planners[userID]
	if !ok {
		pl := &Planner{
			MealPlan: NewMealPlanStore(p.repo, p.opts...),
			Shopping: NewShoppingListStore(p.opts...),
		}
		pl.Shopping.Attach(pl.MealPlan)
		pl.MealPlan.SetIdentity(&userID)
		e = &plannerEntry{planner: pl}
		p.planners[userID] = e
	}
	e.lastUsed = p.now()
	pl := e.planner
	p.mu.Unlock()

	if !pl.MealPlan.Stale() {
		return pl, nil
	}
	return pl, pl.MealPlan.Sync(ctx)
}

// Forget drops the cached planner for userID, e.g. on logout.
func (p *Planners) Forget(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.planners, userID)
}

// EvictIdle drops planners not requested for longer than maxIdle and returns
// how many went. Manual shopping items of an evicted planner are lost.
func (p *Planners) EvictIdle(maxIdle time.Duration) int {
	cutoff := p.now().Add(-maxIdle)
	p.mu.Lock()
	defer p.mu.Unlock()
	evicted := 0
	for id, e := range p.planners {
		if e.lastUsed.Before(cutoff) {
			delete(p.planners, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of cached planners.
func (p *Planners) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.planners)
}
