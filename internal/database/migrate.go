package database

import (
	"errors"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // Driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // Source
)

func RunMigrations(sourceURL, dbURL string, logger *slog.Logger) error {
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return err
	}

	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	logger.Info("Migrations applied successfully")
	return nil
}
