package back

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3" // migrate driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"rallyrank/internal/logging"
	"rallyrank/resources"
)

// Migrate brings the database at path to the latest schema version.
func Migrate(path string) error {
	src, err := iofs.New(resources.Migrations, "migrations")
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+path)
	if err != nil {
		return fmt.Errorf("unable to open %s for migration: %w", path, err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}

		return fmt.Errorf("unable to migrate %s: %w", path, err)
	}

	version, _, err := migrator.Version()
	if err != nil {
		return err
	}
	logging.Info().Str("path", path).Uint("version", version).Msg("database migrated")

	return nil
}
