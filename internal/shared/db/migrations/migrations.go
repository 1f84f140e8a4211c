package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/cristianortiz/eventauction/internal/shared/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

var log = logger.GetLogger() // Instancia logger para el pakg

//go:embed sql
var files embed.FS

// RunPostgres applies the postgres migrations against the database at dsn
func RunPostgres(dsn string) error {
	src, err := iofs.New(files, "sql/postgres")
	if err != nil {
		return fmt.Errorf("load postgres migrations: %w", err)
	}
	log.Info("Running postgres migrations")
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("init postgres migrations: %w", err)
	}
	defer m.Close()
	return up(m)
}

// RunSQLite applies the sqlite migrations on an already opened database.
// The migrate instance is not closed, closing it would close db.
func RunSQLite(db *sql.DB) error {
	src, err := iofs.New(files, "sql/sqlite")
	if err != nil {
		return fmt.Errorf("load sqlite migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("init sqlite migration driver: %w", err)
	}
	log.Info("Running sqlite migrations")
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init sqlite migrations: %w", err)
	}
	return up(m)
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	log.Info("Database migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
