package main

import (
	"context"
	"net/http"
	"time"
)

func (app *application) healthz(w http.ResponseWriter, r *http.Request) {
	if err := app.writeJSON(w, http.StatusOK, envelope{"status": "alive"}, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}

// readyz reports whether the store answers a ping.
func (app *application) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, body := http.StatusOK, envelope{"status": "ready"}
	if err := app.store.Ping(ctx); err != nil {
		app.logger.WarnContext(r.Context(), "Readiness check failed", "error", err.Error())
		status, body = http.StatusServiceUnavailable, envelope{"status": "not ready"}
	}

	if err := app.writeJSON(w, status, body, nil); err != nil {
		app.internalErrorResponse(w, r, err)
	}
}
