package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	adapthttp "mealplanner/internal/adapter/http"
	"mealplanner/internal/adapter/memory"
	"mealplanner/internal/app"
	"mealplanner/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock repositories (function-fields pattern)
// ---------------------------------------------------------------------------

// mockMealPlanRepo delegates to an in-memory store unless a function is set.
type mockMealPlanRepo struct {
	*memory.DB
	fetchFn func(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]domain.MealPlanRecord, error)
	writeFn func(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error
}

func (m *mockMealPlanRepo) FetchMealPlan(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]domain.MealPlanRecord, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, userID, weekStart)
	}
	return m.DB.FetchMealPlan(ctx, userID, weekStart)
}

func (m *mockMealPlanRepo) WriteMealPlanEntry(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error {
	if m.writeFn != nil {
		return m.writeFn(ctx, userID, recipeID, weekStart, dayOfWeek)
	}
	return m.DB.WriteMealPlanEntry(ctx, userID, recipeID, weekStart, dayOfWeek)
}

// ---------------------------------------------------------------------------
// Test-server helper
// ---------------------------------------------------------------------------

// Wednesday; the week starts Sunday 2026-10-11.
var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	ts     *httptest.Server
	db     *memory.DB
	repo   *mockMealPlanRepo
	recipe domain.Recipe
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := memory.New()
	recipe := domain.Recipe{
		Title: "Garlic Chicken",
		Ingredients: []domain.Ingredient{
			{Name: "garlic", Amount: "2", Unit: "clove"},
			{Name: "chicken breast", Amount: "500", Unit: "g"},
		},
	}
	id, err := db.PutRecipe(context.Background(), recipe)
	if err != nil {
		t.Fatal(err)
	}
	recipe.ID = id

	env := &testEnv{db: db, repo: &mockMealPlanRepo{DB: db}, recipe: recipe}
	env.ts = startServer(t, env.repo, db, true)
	t.Cleanup(env.ts.Close)
	return env
}

func startServer(t *testing.T, repo domain.MealPlanRepository, db *memory.DB, withoutAuth bool) *httptest.Server {
	t.Helper()
	return startServerWithOIDC(t, repo, db, withoutAuth, adapthttp.OIDCConfig{})
}

func startServerWithOIDC(t *testing.T, repo domain.MealPlanRepository, db *memory.DB, withoutAuth bool, oidcConfig adapthttp.OIDCConfig) *httptest.Server {
	t.Helper()

	clock := func() time.Time { return fixedNow }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	planners := app.NewPlanners(repo, app.WithClock(clock), app.WithLogger(logger))
	catalog := app.NewCatalogService(db)
	authSvc := app.NewAuthService(db, db.NewSessionRepo())

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o600); err != nil {
		t.Fatal(err)
	}

	srv := adapthttp.New(planners, catalog, authSvc, oidcConfig, webDir, logger).WithClock(clock)
	if withoutAuth {
		srv = srv.WithoutAuth()
	}
	return httptest.NewServer(srv.Handler())
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

func doJSON(t *testing.T, method, url string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func dayMeals(t *testing.T, body map[string]any, index int) []any {
	t.Helper()
	days, ok := body["days"].([]any)
	if !ok || len(days) != domain.DaysPerWeek {
		t.Fatalf("expected 7 days, got %v", body["days"])
	}
	meals, _ := days[index].(map[string]any)["meals"].([]any)
	return meals
}

// noRedirect returns redirect responses instead of following them.
var noRedirect = &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// doAuthed sends a JSON request carrying the session cookie.
func doAuthed(t *testing.T, method, url string, session *http.Cookie, payload any) *http.Response {
	t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if session != nil {
		req.AddCookie(session)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestMealPlanGet(t *testing.T) {
	env := newTestEnv(t)

	resp := doJSON(t, http.MethodGet, env.ts.URL+"/api/mealplan", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["weekStart"] != "2026-10-11" {
		t.Errorf("expected weekStart 2026-10-11, got %v", body["weekStart"])
	}
	if body["loading"] != false {
		t.Errorf("expected loading=false after initial sync, got %v", body["loading"])
	}
	for i := 0; i < domain.DaysPerWeek; i++ {
		if len(dayMeals(t, body, i)) != 0 {
			t.Errorf("day %d should be empty", i)
		}
	}
}

func TestMealAddAndShoppingList(t *testing.T) {
	env := newTestEnv(t)

	resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/mealplan/meals", map[string]any{
		"recipeId": env.recipe.ID.String(),
		"date":     "2026-10-13",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %v", resp.StatusCode, decodeBody(t, resp))
	}
	if meals := dayMeals(t, decodeBody(t, resp), 2); len(meals) != 1 {
		t.Fatalf("expected 1 meal on Tuesday, got %d", len(meals))
	}

	resp = doJSON(t, http.MethodGet, env.ts.URL+"/api/shopping", nil)
	items, _ := decodeBody(t, resp)["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected 2 shopping items, got %d", len(items))
	}
	first := items[0].(map[string]any)
	if first["name"] != "garlic" || first["category"] != "Produce" || first["completed"] != false {
		t.Errorf("unexpected first item: %v", first)
	}
	ref, _ := first["recipe"].(map[string]any)
	if ref["id"] != env.recipe.ID.String() || ref["title"] != "Garlic Chicken" {
		t.Errorf("unexpected recipe ref: %v", ref)
	}

	resp = doJSON(t, http.MethodGet, env.ts.URL+"/api/shopping?category=Meat%20%26%20Seafood", nil)
	items, _ = decodeBody(t, resp)["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["name"] != "chicken breast" {
		t.Errorf("unexpected category filter result: %v", items)
	}
}

func TestMealAddDefaultsToToday(t *testing.T) {
	env := newTestEnv(t)

	resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/mealplan/meals", map[string]any{
		"recipeId": env.recipe.ID.String(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, env.ts.URL+"/api/mealplan/today", nil)
	body := decodeBody(t, resp)
	if body["date"] != "2026-10-14" {
		t.Errorf("expected today 2026-10-14, got %v", body["date"])
	}
	if meals, _ := body["meals"].([]any); len(meals) != 1 {
		t.Errorf("expected 1 meal today, got %v", body["meals"])
	}
}

func TestMealAddValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
	}{
		{"bad recipe id", map[string]any{"recipeId": "abc"}, http.StatusBadRequest},
		{"bad date", map[string]any{"recipeId": env.recipe.ID.String(), "date": "13/10/2026"}, http.StatusBadRequest},
		{"unknown field", map[string]any{"recipeId": env.recipe.ID.String(), "servings": 2}, http.StatusBadRequest},
		{"unknown recipe", map[string]any{"recipeId": uuid.NewString()}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/mealplan/meals", tc.payload)
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestMealAddPersistenceFailure(t *testing.T) {
	env := newTestEnv(t)
	env.repo.writeFn = func(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error {
		return errors.New("db down")
	}

	resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/mealplan/meals", map[string]any{
		"recipeId": env.recipe.ID.String(),
		"date":     "2026-10-13",
	})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, env.ts.URL+"/api/mealplan", nil)
	if meals := dayMeals(t, decodeBody(t, resp), 2); len(meals) != 0 {
		t.Errorf("failed write must not change the plan, got %d meals", len(meals))
	}
}

func TestMealAddRecipeDeletedBeforeWrite(t *testing.T) {
	env := newTestEnv(t)
	env.repo.writeFn = func(ctx context.Context, userID, recipeID uuid.UUID, weekStart time.Time, dayOfWeek int) error {
		return fmt.Errorf("recipe %s: %w", recipeID, domain.ErrNotFound)
	}

	resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/mealplan/meals", map[string]any{
		"recipeId": env.recipe.ID.String(),
		"date":     "2026-10-13",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a recipe deleted before the write, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, env.ts.URL+"/api/shopping", nil)
	if items, _ := decodeBody(t, resp)["items"].([]any); len(items) != 0 {
		t.Errorf("rejected add must not derive shopping items, got %d", len(items))
	}
}

func TestMealRemove(t *testing.T) {
	env := newTestEnv(t)
	add := map[string]any{"recipeId": env.recipe.ID.String(), "date": "2026-10-13"}
	for i := 0; i < 2; i++ {
		if resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/mealplan/meals", add); resp.StatusCode != http.StatusCreated {
			t.Fatalf("add %d: expected 201, got %d", i, resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodDelete, env.ts.URL+"/api/mealplan/meals", add)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if meals := dayMeals(t, decodeBody(t, resp), 2); len(meals) != 1 {
		t.Fatalf("expected 1 meal left, got %d", len(meals))
	}

	// The persisted plan agrees after a resync.
	resp = doJSON(t, http.MethodPost, env.ts.URL+"/api/mealplan/sync", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync: expected 200, got %d", resp.StatusCode)
	}
	if meals := dayMeals(t, decodeBody(t, resp), 2); len(meals) != 1 {
		t.Fatalf("expected 1 persisted meal, got %d", len(meals))
	}

	resp = doJSON(t, http.MethodDelete, env.ts.URL+"/api/mealplan/meals", map[string]any{"recipeId": env.recipe.ID.String()})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing date: expected 400, got %d", resp.StatusCode)
	}
}

func TestMealPlanSyncFailure(t *testing.T) {
	env := newTestEnv(t)
	env.repo.fetchFn = func(ctx context.Context, userID uuid.UUID, weekStart time.Time) ([]domain.MealPlanRecord, error) {
		return nil, errors.New("db down")
	}

	// The first request still gets an (empty) plan.
	resp := doJSON(t, http.MethodGet, env.ts.URL+"/api/mealplan", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, env.ts.URL+"/api/mealplan/sync", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestShoppingItems(t *testing.T) {
	env := newTestEnv(t)

	resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/shopping/items", map[string]any{"name": " napkins "})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	item := decodeBody(t, resp)["item"].(map[string]any)
	if item["name"] != "napkins" || item["amount"] != "1" || item["unit"] != "unit" || item["category"] != "Other" {
		t.Errorf("unexpected defaults: %v", item)
	}
	if _, ok := item["recipe"]; ok {
		t.Error("manual items carry no recipe")
	}
	id := item["id"].(string)

	resp = doJSON(t, http.MethodPost, env.ts.URL+"/api/shopping/items/"+id+"/toggle", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle: expected 200, got %d", resp.StatusCode)
	}
	if decodeBody(t, resp)["item"].(map[string]any)["completed"] != true {
		t.Error("expected item to be completed")
	}

	resp = doJSON(t, http.MethodPost, env.ts.URL+"/api/shopping/clear-completed", nil)
	if got := decodeBody(t, resp)["removed"]; got != float64(1) {
		t.Errorf("expected 1 removed, got %v", got)
	}

	resp = doJSON(t, http.MethodDelete, env.ts.URL+"/api/shopping/items/"+id, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for removed item, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, env.ts.URL+"/api/shopping/items/missing/toggle", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 toggling missing item, got %d", resp.StatusCode)
	}
}

func TestShoppingItemValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"blank name", map[string]any{"name": "  "}},
		{"unknown category", map[string]any{"name": "ice", "category": "Frozen"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, env.ts.URL+"/api/shopping/items", tc.payload)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}

	resp := doJSON(t, http.MethodGet, env.ts.URL+"/api/shopping?category=Frozen", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category filter, got %d", resp.StatusCode)
	}
}

func TestShoppingGrouped(t *testing.T) {
	env := newTestEnv(t)
	doJSON(t, http.MethodPost, env.ts.URL+"/api/mealplan/meals", map[string]any{
		"recipeId": env.recipe.ID.String(),
		"date":     "2026-10-12",
	})
	doJSON(t, http.MethodPost, env.ts.URL+"/api/shopping/items", map[string]any{"name": "soap"})

	resp := doJSON(t, http.MethodGet, env.ts.URL+"/api/shopping?grouped=1", nil)
	groups, _ := decodeBody(t, resp)["groups"].([]any)
	want := []string{"Produce", "Meat & Seafood", "Other"}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, g := range groups {
		if c := g.(map[string]any)["category"]; c != want[i] {
			t.Errorf("group %d: expected %s, got %v", i, want[i], c)
		}
	}
}

func TestRecipes(t *testing.T) {
	env := newTestEnv(t)

	resp := doJSON(t, http.MethodGet, env.ts.URL+"/api/recipes", nil)
	if items, _ := decodeBody(t, resp)["items"].([]any); len(items) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(items))
	}

	resp = doJSON(t, http.MethodGet, env.ts.URL+"/api/recipes/"+env.recipe.ID.String(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, env.ts.URL+"/api/recipes/"+uuid.NewString(), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, env.ts.URL+"/api/recipes/not-a-uuid", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	db := memory.New()
	ts := startServer(t, db, db, false)
	defer ts.Close()

	for _, path := range []string{"/api/mealplan", "/api/shopping", "/api/recipes"} {
		resp := doJSON(t, http.MethodGet, ts.URL+path, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestSetupLoginAndMealPlan(t *testing.T) {
	db := memory.New()
	ts := startServer(t, db, db, false)
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/config", nil)
	if decodeBody(t, resp)["needs_setup"] != true {
		t.Fatal("expected needs_setup before any user exists")
	}

	creds := map[string]any{"username": "alice", "password": "s3cret"}
	if resp := doJSON(t, http.MethodPost, ts.URL+"/api/setup", creds); resp.StatusCode != http.StatusOK {
		t.Fatalf("setup: expected 200, got %d", resp.StatusCode)
	}
	if resp := doJSON(t, http.MethodPost, ts.URL+"/api/setup", creds); resp.StatusCode != http.StatusConflict {
		t.Fatalf("second setup: expected 409, got %d", resp.StatusCode)
	}

	bad := map[string]any{"username": "alice", "password": "wrong"}
	if resp := doJSON(t, http.MethodPost, ts.URL+"/api/login", bad); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/login", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			session = c
		}
	}
	if session == nil {
		t.Fatal("expected session cookie")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/mealplan", nil)
	req.AddCookie(session)
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer authed.Body.Close() //nolint:errcheck
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", authed.StatusCode)
	}
}

func TestForwardAuthHeader(t *testing.T) {
	db := memory.New()
	ts := startServer(t, db, db, false)
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/shopping", nil)
	req.Header.Set("Remote-User", "proxyuser")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if _, err := db.GetByUsername(context.Background(), "proxyuser"); err != nil {
		t.Errorf("expected proxy user to be provisioned: %v", err)
	}
}

func TestSSODisabled(t *testing.T) {
	env := newTestEnv(t)

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Get(env.ts.URL + "/api/sso/login")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 with SSO disabled, got %d", resp.StatusCode)
	}
}

func TestSPAFallback(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/some/client/route")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Error("expected no-store cache header")
	}
}

func TestAuthRoutesRejectWrongMethod(t *testing.T) {
	db := memory.New()
	ts := startServer(t, db, db, false)
	defer ts.Close()

	for _, path := range []string{"/api/login", "/api/logout", "/api/setup"} {
		resp := doJSON(t, http.MethodGet, ts.URL+path, nil)
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET %s: expected 405, got %d", path, resp.StatusCode)
		}
	}
}

func TestSetupValidation(t *testing.T) {
	db := memory.New()
	ts := startServer(t, db, db, false)
	defer ts.Close()

	tests := []struct {
		name    string
		payload any
	}{
		{"blank username", map[string]any{"username": "", "password": "pw"}},
		{"blank password", map[string]any{"username": "alice", "password": ""}},
		{"not an object", []string{"alice"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/setup", tc.payload)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if _, ok := decodeBody(t, resp)["error"]; !ok {
				t.Error("expected a JSON error body")
			}
		})
	}
	if n, _ := db.Count(context.Background()); n != 0 {
		t.Errorf("rejected setup must not create users, got %d", n)
	}
}

func TestLogoutDropsPlanner(t *testing.T) {
	db := memory.New()
	ts := startServer(t, db, db, false)
	defer ts.Close()

	creds := map[string]any{"username": "alice", "password": "s3cret"}
	if resp := doJSON(t, http.MethodPost, ts.URL+"/api/setup", creds); resp.StatusCode != http.StatusOK {
		t.Fatalf("setup: expected 200, got %d", resp.StatusCode)
	}
	login := func() *http.Cookie {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/login", creds)
		session := findCookie(resp, "session")
		if resp.StatusCode != http.StatusOK || session == nil {
			t.Fatalf("login: expected 200 with session cookie, got %d", resp.StatusCode)
		}
		return session
	}

	session := login()
	resp := doAuthed(t, http.MethodPost, ts.URL+"/api/shopping/items", session, map[string]any{"name": "napkins"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add item: expected 201, got %d", resp.StatusCode)
	}

	resp = doAuthed(t, http.MethodPost, ts.URL+"/api/logout", session, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	if c := findCookie(resp, "session"); c == nil || c.MaxAge >= 0 {
		t.Error("expected logout to expire the session cookie")
	}
	if resp := doAuthed(t, http.MethodGet, ts.URL+"/api/shopping", session, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("old session: expected 401, got %d", resp.StatusCode)
	}

	resp = doAuthed(t, http.MethodGet, ts.URL+"/api/shopping", login(), nil)
	if items, _ := decodeBody(t, resp)["items"].([]any); len(items) != 0 {
		t.Errorf("expected a fresh planner after logout, got %d items", len(items))
	}
}

func TestSSOEnabled(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer idp.Close()

	db := memory.New()
	ts := startServerWithOIDC(t, db, db, false, adapthttp.OIDCConfig{
		Enabled: true,
		OAuth2Config: oauth2.Config{
			ClientID:    "planner",
			RedirectURL: "http://planner.example.com/api/sso/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://auth.example.com/authorize",
				TokenURL: idp.URL + "/token",
			},
		},
	})
	defer ts.Close()

	resp, err := noRedirect.Get(ts.URL + "/api/sso/login")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	state := findCookie(resp, "oauth_state")
	if state == nil || state.Value == "" {
		t.Fatal("expected oauth_state cookie")
	}
	loc, err := resp.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.Host != "auth.example.com" || loc.Query().Get("state") != state.Value || loc.Query().Get("client_id") != "planner" {
		t.Errorf("unexpected redirect %s", loc)
	}

	callback := func(query string, cookie *http.Cookie) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/sso/callback?"+query, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		resp, err := noRedirect.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	if resp := callback("code=abc&state=forged", state); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("mismatched state: expected 400, got %d", resp.StatusCode)
	}
	if resp := callback("code=abc&state="+state.Value, nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing state cookie: expected 400, got %d", resp.StatusCode)
	}
	if resp := callback("code=abc&state="+state.Value, state); resp.StatusCode != http.StatusBadGateway {
		t.Errorf("failed token exchange: expected 502, got %d", resp.StatusCode)
	}
	if n, _ := db.Count(context.Background()); n != 0 {
		t.Errorf("failed SSO must not provision users, got %d", n)
	}
}
