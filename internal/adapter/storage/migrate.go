package storage

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type MigrationLogger struct {
	logger  *slog.Logger
	verbose bool
}

func NewMigrationLogger(verbose bool) *MigrationLogger {
	return &MigrationLogger{
		logger:  slog.Default().With("op", "migrate"),
		verbose: verbose,
	}
}

func (ml *MigrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml *MigrationLogger) Verbose() bool {
	return ml.verbose
}

// Migrate applies the embedded migrations. dsn is a postgres:// URL.
func Migrate(dsn string, log migrate.Logger) error {
	const op = "Migrate"

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, PGX5URL(dsn))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	m.Log = log

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	version, dirty, _ := m.Version()
	m.Log.Printf("migrations applied, version %d, dirty %t", version, dirty)
	return nil
}

// PGX5URL rewrites a postgres:// url for the migrate pgx/v5 driver.
func PGX5URL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}
