// Package app wires configuration, logging, the database and the HTTP handler for the
// stocktake binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"stocktake/m/internal/api"
	"stocktake/m/internal/config"
	"stocktake/m/internal/database"
	"stocktake/m/internal/logger"
	"stocktake/m/internal/metrics"
	"stocktake/m/internal/migrations"
	"stocktake/m/internal/session"
	"stocktake/m/internal/store"
)

type App struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *sqlx.DB
}

// Bootstrap loads .env and configuration, connects to the database and brings the
// schema up to date.
func Bootstrap(ctx context.Context, service string) (*App, error) {
	logg := logger.New(logger.Options{ServiceName: service})
	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: service,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	applied, err := migrations.Run(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"driver":  cfg.DB.Driver,
		"applied": applied,
	}), "database ready")

	return &App{Config: cfg, Logger: logg, DB: db}, nil
}

// Handler builds the HTTP handler for one portal over the app's database.
func (a *App) Handler(portal session.Portal) *api.Handler {
	return api.New(api.Deps{
		Users:    store.NewUsers(a.DB),
		Drugs:    store.NewDrugs(a.DB),
		Tables:   store.NewTables(a.DB),
		Records:  store.NewRecords(a.DB),
		Sessions: session.NewManager(a.Config.Session.Secret, a.Config.Session.TTL),
		Logger:   a.Logger,
		Metrics:  metrics.New(string(portal)),
		DB:       a.DB,
	})
}

// Serve runs handler on port until ctx is cancelled, then drains in-flight requests.
func (a *App) Serve(ctx context.Context, port string, handler http.Handler) error {
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := a.Logger.WithFields(ctx, map[string]any{
		"env":  a.Config.App.Env,
		"addr": addr,
	})
	a.Logger.Info(logCtx, "starting server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info(logCtx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if err := a.DB.Close(); err != nil {
		a.Logger.Error(context.Background(), "error closing database", err)
	}
}
