package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mdobak/go-xerrors"
)

func (app *application) serve() error {
	server := &http.Server{
		Addr:         app.config.HTTP.Addr,
		Handler:      app.routes(),
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		IdleTimeout:  app.config.HTTP.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	shutdownError := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("Shutting down server", slog.String("signal", s.String()))

		ctx, cancel := context.WithTimeout(context.Background(), app.config.HTTP.ShutdownTimeout)
		defer cancel()
		shutdownError <- server.Shutdown(ctx)
	}()

	app.logger.Info("Starting server",
		slog.String("addr", server.Addr),
		slog.String("store", app.config.StoreDriver),
	)

	err := server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return xerrors.New(err)
	}
	if err := <-shutdownError; err != nil {
		return xerrors.New(err)
	}

	app.logger.Info("Server stopped", slog.String("addr", server.Addr))
	return nil
}
