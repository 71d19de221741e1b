package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/woowonjae/blogauth/internal/auth/http"
	"github.com/woowonjae/blogauth/internal/auth/service"
	"github.com/woowonjae/blogauth/internal/auth/store"
	"github.com/woowonjae/blogauth/internal/auth/store/drivers/sqlite"
	"github.com/woowonjae/blogauth/pkg/cryptox"
	"github.com/woowonjae/blogauth/pkg/jwtx"
	"github.com/woowonjae/blogauth/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires concrete store, codec and token implementations into the
// services and owns the HTTP server lifecycle.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   jwtx.Signer
	verifier jwtx.Verifier

	authService      *service.AuthService
	migrationService *service.PasswordMigrationService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "blog-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetCost(cfg.BcryptCost)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initTokenProvider(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// MigratePasswords runs the credential migration batch once, for the offline
// path (cmd/auth -migrate-passwords).
func (app *Application) MigratePasswords(ctx context.Context) (service.MigrationReport, error) {
	return app.migrationService.MigratePasswords(slogx.WithContext(ctx, app.logger))
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	return app.Close()
}

// Close releases the database without touching the HTTP server. Used by the
// offline migration path, where no server was started.
func (app *Application) Close() error {
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initTokenProvider() error {
	key := []byte(app.cfg.SigningSecret)

	signer, err := jwtx.NewSignerHS256(key)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}

	verifier, err := jwtx.NewVerifierHS256(key, jwtx.VerifyOptions{
		Issuer: app.cfg.Issuer,
		Leeway: app.cfg.TokenLeeway,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	app.signer = signer
	app.verifier = verifier
	return nil
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:       app.db,
		Signer:      app.signer,
		Issuer:      app.cfg.Issuer,
		AccessTTL:   app.cfg.AccessTTL,
		DefaultRole: app.cfg.DefaultRole,
		LazyRehash:  app.cfg.LazyRehash,
	}

	app.migrationService = &service.PasswordMigrationService{Store: app.db}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.cfg.AdminRole,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.MigrationService = app.migrationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
