package adapthttp

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"mealplanner/internal/app"
)

// LocalUserID is the identity used for every request when auth is disabled.
var LocalUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// OIDCConfig holds the single sign-on provider settings. Provider and
// OAuth2Config are only read when Enabled is set.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	planners   *app.Planners
	catalog    *app.CatalogService
	authSvc    *app.AuthService
	oidcConfig OIDCConfig
	webDir     string
	logger     *slog.Logger
	now        func() time.Time

	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(planners *app.Planners, catalog *app.CatalogService, authSvc *app.AuthService, oidcConfig OIDCConfig, webDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		planners:   planners,
		catalog:    catalog,
		authSvc:    authSvc,
		oidcConfig: oidcConfig,
		webDir:     webDir,
		logger:     logger,
		now:        time.Now,
	}
}

// WithoutAuth disables authentication; every request runs as a single local
// user. Intended for tests and single-user deployments.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// WithClock overrides the time source used to resolve "today".
func (s *Server) WithClock(now func() time.Time) *Server {
	if now != nil {
		s.now = now
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("GET /config", s.handleConfig)

	api.HandleFunc("POST /login", s.handleLogin)
	api.HandleFunc("POST /logout", s.handleLogout)
	api.HandleFunc("POST /setup", s.handleSetupUser)
	api.HandleFunc("GET /sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /sso/callback", s.handleSSOCallback)

	api.Handle("GET /recipes", s.protect(s.handleRecipeList))
	api.Handle("GET /recipes/{id}", s.protect(s.handleRecipeGet))

	api.Handle("GET /mealplan", s.protect(s.handleMealPlan))
	api.Handle("POST /mealplan/meals", s.protect(s.handleMealAdd))
	api.Handle("DELETE /mealplan/meals", s.protect(s.handleMealRemove))
	api.Handle("POST /mealplan/sync", s.protect(s.handleMealPlanSync))
	api.Handle("GET /mealplan/today", s.protect(s.handleMealPlanToday))

	api.Handle("GET /shopping", s.protect(s.handleShoppingList))
	api.Handle("POST /shopping/items", s.protect(s.handleShoppingAdd))
	api.Handle("DELETE /shopping/items/{id}", s.protect(s.handleShoppingRemove))
	api.Handle("POST /shopping/items/{id}/toggle", s.protect(s.handleShoppingToggle))
	api.Handle("POST /shopping/clear-completed", s.protect(s.handleShoppingClearCompleted))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}

func (s *Server) protect(h http.HandlerFunc) http.Handler {
	return s.authMiddleware(h)
}
