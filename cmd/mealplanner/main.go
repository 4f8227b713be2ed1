package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	adapthttp "mealplanner/internal/adapter/http"
	"mealplanner/internal/adapter/memory"
	"mealplanner/internal/adapter/postgres"
	"mealplanner/internal/app"
	"mealplanner/internal/config"
	"mealplanner/internal/domain"
)

// store is what both storage backends provide.
type store interface {
	domain.RecipeCatalog
	domain.MealPlanRepository
	domain.UserRepository
	PutRecipe(ctx context.Context, r domain.Recipe) (uuid.UUID, error)
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	db, sessions, closeDB, err := openStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer closeDB()
	logger.Info("storage ready", "driver", cfg.Storage.Driver)

	if cfg.Catalog.SeedFile != "" {
		if err := seedCatalog(ctx, db, cfg.Catalog.SeedFile, logger); err != nil {
			return err
		}
	}

	oidcConfig, err := setupOIDC(ctx, cfg.OIDC)
	if err != nil {
		return err
	}

	authSvc := app.NewAuthService(db, sessions).WithSessionTTL(cfg.Auth.TTL())
	planners := app.NewPlanners(db, app.WithLogger(logger))
	catalog := app.NewCatalogService(db)

	srv := adapthttp.New(planners, catalog, authSvc, oidcConfig, cfg.Server.WebDir, logger)
	if cfg.Auth.Disabled {
		logger.Warn("authentication disabled; all requests run as the local user")
		srv.WithoutAuth()
	}

	go cleanup(ctx, sessions, planners, cfg.Auth.TTL(), time.Hour, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStore(cfg config.StorageConfig) (store, domain.SessionRepository, func(), error) {
	switch cfg.Driver {
	case config.StoragePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("db open: %w", err)
		}
		return db, postgres.NewSessionRepo(db), func() { _ = db.Close() }, nil
	default:
		db := memory.New()
		return db, db.NewSessionRepo(), func() {}, nil
	}
}

func seedCatalog(ctx context.Context, db store, path string, logger *slog.Logger) error {
	recipes, err := config.LoadRecipes(path)
	if err != nil {
		return err
	}
	for _, r := range recipes {
		if _, err := db.PutRecipe(ctx, r); err != nil {
			return fmt.Errorf("seeding recipe %q: %w", r.Title, err)
		}
	}
	logger.Info("seeded recipe catalog", "path", path, "count", len(recipes))
	return nil
}

func setupOIDC(ctx context.Context, cfg config.OIDCConfig) (adapthttp.OIDCConfig, error) {
	if !cfg.Enabled() {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, fmt.Errorf("oidc provider %s: %w", cfg.Issuer, err)
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// cleanup removes expired sessions and drops planners idle for longer than a
// session can live.
func cleanup(ctx context.Context, sessions domain.SessionRepository, planners *app.Planners, maxIdle, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessions.DeleteExpired(ctx); err != nil {
				logger.Warn("session cleanup failed", "error", err)
			}
			if n := planners.EvictIdle(maxIdle); n > 0 {
				logger.Info("evicted idle planners", "count", n, "remaining", planners.Len())
			}
		}
	}
}
