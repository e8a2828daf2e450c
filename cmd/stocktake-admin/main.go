package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stocktake/m/internal/app"
	"stocktake/m/internal/logger"
	"stocktake/m/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Bootstrap(ctx, "stocktake-admin")
	if err != nil {
		logger.New(logger.Options{ServiceName: "stocktake-admin"}).Error(ctx, "failed to bootstrap", err)
		os.Exit(1)
	}
	defer a.Close()

	handler := a.Handler(session.PortalAdmin)
	if err := a.Serve(ctx, a.Config.App.AdminPort, handler.AdminRouter()); err != nil {
		a.Logger.Error(ctx, "admin server stopped unexpectedly", err)
		os.Exit(1)
	}
}
