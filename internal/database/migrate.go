package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"ghostlounge_backend/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded schema for the given driver.
func RunMigrations(db *sql.DB, driver string) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	var (
		instance database.Driver
		err      error
	)
	switch driver {
	case config.DriverPostgres:
		instance, err = postgres.WithInstance(db, &postgres.Config{})
	case config.DriverSQLite:
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return fmt.Errorf("unsupported migration driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	sub, err := fs.Sub(embeddedMigrations, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, driver, instance)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
