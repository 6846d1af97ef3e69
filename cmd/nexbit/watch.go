package main

import (
	"context"
	"log/slog"
)

// runWatch mantiene el dashboard sincronizado hasta SIGINT/SIGTERM.
// Con credenciales en el entorno también carga la cartera.
func runWatch(ctx context.Context, a *app, once bool) error {
	if a.cfg.API.Email != "" {
		if err := a.login(ctx); err != nil {
			slog.Warn("login failed, continuing without portfolio", "err", err)
		}
	}

	if once {
		if err := a.syncer.RefreshQuotes(ctx); err != nil {
			slog.Warn("quotes fetch failed", "err", err)
		}
		if err := a.syncer.RefreshPrediction(ctx); err != nil {
			slog.Warn("prediction fetch failed", "err", err)
		}
		if a.session.Authenticated() {
			a.printPortfolio(ctx)
		}
		return nil
	}

	if err := a.syncer.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	slog.Info("shutting down")
	a.syncer.Stop()

	if a.session.Authenticated() {
		a.printPortfolio(context.Background())
	}
	return nil
}
