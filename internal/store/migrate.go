package store

import (
	"errors"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/mdobak/go-xerrors"
)

// Migrate applies every pending migration found in migrationsPath.
func Migrate(databaseURL, migrationsPath string, log *slog.Logger) error {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return xerrors.New(err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Warn("failed to close migrator", slog.Any("source_error", sourceErr), slog.Any("database_error", dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("database schema is up to date")
			return nil
		}
		return xerrors.New(err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return xerrors.New(err)
	}
	log.Info("database migrated", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}
