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

	a, err := app.Bootstrap(ctx, "stocktake-user")
	if err != nil {
		logger.New(logger.Options{ServiceName: "stocktake-user"}).Error(ctx, "failed to bootstrap", err)
		os.Exit(1)
	}
	defer a.Close()

	handler := a.Handler(session.PortalUser)
	if err := a.Serve(ctx, a.Config.App.UserPort, handler.UserRouter()); err != nil {
		a.Logger.Error(ctx, "user server stopped unexpectedly", err)
		os.Exit(1)
	}
}
