package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
	_ "github.com/lib/pq"
	"github.com/mdobak/go-xerrors"
	"github.com/siahsang/articles/internal/auth"
	"github.com/siahsang/articles/internal/config"
	"github.com/siahsang/articles/internal/core"
	"github.com/siahsang/articles/internal/store"
	"github.com/spf13/pflag"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type application struct {
	config *config.Config
	logger *slog.Logger
	auth   *auth.Auth
	core   *core.Core
	store  pinger
}

func main() {
	var (
		envFile     string
		addr        string
		migrateOnly bool
	)

	flagSet := pflag.NewFlagSet("articles", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "read environment variables from this file when it exists")
	flagSet.StringVar(&addr, "addr", "", "listen address, overrides HTTP_ADDR")
	flagSet.BoolVar(&migrateOnly, "migrate", false, "apply database migrations and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.HTTP.Addr = addr
	}

	logger := configLogger(cfg.Log)
	if err := run(cfg, logger, migrateOnly); err != nil {
		logger.Error("Application stopped", slog.String("stack", xerrors.Sprint(err)))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, migrateOnly bool) error {
	var (
		articles core.ArticleRepository
		users    core.UserRepository
		health   pinger
	)

	switch cfg.StoreDriver {
	case config.DriverMemory:
		if migrateOnly {
			return xerrors.New("--migrate requires STORE_DRIVER=postgres")
		}
		memory := store.NewMemoryStore()
		articles, users, health = memory, memory, memory
		logger.Warn("Using the in-memory store, data is lost on exit")
	default:
		if err := store.Migrate(cfg.DB.URL, cfg.DB.MigrationsPath, logger); err != nil {
			return err
		}
		if migrateOnly {
			return nil
		}

		db, err := openDBConnection(cfg.DB)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("Errors closing database connection", slog.String("error", err.Error()))
			}
		}()
		logger.Info("Database connection established successfully")

		postgres := store.NewPostgresStore(db, logger, cfg.DB.QueryTimeout)
		articles, users, health = postgres, postgres, postgres
	}

	app := &application{
		config: cfg,
		logger: logger,
		auth:   auth.New(cfg.JWTSecret),
		core:   core.NewCore(articles, users, logger),
		store:  health,
	}

	if err := app.core.SeedUsers(context.Background(), cfg.SeedUsers); err != nil {
		return err
	}

	return app.serve()
}

func configLogger(cfg config.LogConfig) *slog.Logger {
	handlerOptions := &slog.HandlerOptions{
		AddSource: true,
		Level:     cfg.Level,
	}

	if cfg.Format == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, handlerOptions))
	}

	handler := devslog.NewHandler(
		os.Stdout, &devslog.Options{
			HandlerOptions:  handlerOptions,
			NewLineAfterLog: false,
		})
	return slog.New(handler)
}

func openDBConnection(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, xerrors.New(err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, xerrors.Newf("pinging database: %w", err)
	}

	return db, nil
}
