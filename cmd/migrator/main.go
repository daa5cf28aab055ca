package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/niksmo/artshop/internal/adapter/storage"
	"github.com/spf13/pflag"
)

const (
	storagePathFlag   = "storage-path"
	migrationPathFlag = "migrations-path"
)

// migrator applies the schema bundled into the binary, or the one in
// --migrations-path when given.
func main() {
	storagePath, migrationsPath := getFlagsValues()
	validateFlags(storagePath)

	log := storage.NewMigrationLogger(true)

	var err error
	if migrationsPath == "" {
		err = storage.Migrate(storagePath, log)
	} else {
		err = migrateFromDir(storagePath, migrationsPath, log)
	}
	if err != nil {
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
}

func getFlagsValues() (storage, migrations string) {
	storagePath := pflag.StringP(storagePathFlag, "s", "", "postgres:// url")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "", "migrations dir")
	pflag.Parse()
	return *storagePath, *migrationsPath
}

func validateFlags(storagePath string) {
	if storagePath == "" {
		slog.Error("too few args", "err", fmt.Errorf("--%s flag: required", storagePathFlag))
		fallDown()
	}
}

func migrateFromDir(storagePath, migrationsPath string, log migrate.Logger) error {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		storage.PGX5URL(storagePath),
	)
	if err != nil {
		return err
	}
	defer m.Close()

	m.Log = log

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return nil
		}
		return err
	}
	m.Log.Printf("migration applied")
	return nil
}

func fallDown() {
	os.Exit(2)
}
