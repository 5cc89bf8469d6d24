package migration

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// versionTable keeps the migration bookkeeping apart from the ledger tables
// so a schema dump reads cleanly.
const versionTable = "ledger_schema_migrations"

// Runner applies SQL migrations to the ledger schema using golang-migrate
type Runner struct {
	migrate *migrate.Migrate
	log     *zap.Logger
}

// New creates a Runner bound to an open database handle and a directory of
// .up.sql/.down.sql pairs.
func New(db *sql.DB, migrationsDir string, log *zap.Logger) (*Runner, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: versionTable,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsDir),
		"postgres",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Runner{migrate: m, log: log.Named("migration")}, nil
}

// Up applies every pending migration
func (r *Runner) Up() error {
	r.log.Info("applying pending migrations")

	err := r.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		r.log.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return r.logVersion("migrations applied")
}

// Down rolls back every applied migration
func (r *Runner) Down() error {
	r.log.Info("rolling back all migrations")

	err := r.migrate.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		r.log.Info("nothing to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}
	r.log.Info("all migrations rolled back")
	return nil
}

// Steps applies n migrations, negative n rolls back
func (r *Runner) Steps(n int) error {
	r.log.Info("stepping migrations", zap.Int("steps", n))

	err := r.migrate.Steps(n)
	if errors.Is(err, migrate.ErrNoChange) {
		r.log.Info("schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return r.logVersion("migration steps applied")
}

// GoTo migrates up or down to the given version
func (r *Runner) GoTo(version uint) error {
	r.log.Info("migrating to version", zap.Uint("target", version))

	err := r.migrate.Migrate(version)
	if errors.Is(err, migrate.ErrNoChange) {
		r.log.Info("already at target version")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration to version %d failed: %w", version, err)
	}
	r.log.Info("target version reached", zap.Uint("version", version))
	return nil
}

// Version reports the current schema version. A pristine database reports
// version 0, not an error.
func (r *Runner) Version() (uint, bool, error) {
	version, dirty, err := r.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force overwrites the recorded version without running migrations. Only for
// repairing a dirty state after a failed migration.
func (r *Runner) Force(version int) error {
	r.log.Warn("forcing schema version", zap.Int("version", version))

	if err := r.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the database, ledger data included
func (r *Runner) Drop() error {
	r.log.Warn("dropping all database objects")

	if err := r.migrate.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	r.log.Info("database dropped")
	return nil
}

// Close releases the source and database handles
func (r *Runner) Close() error {
	sourceErr, dbErr := r.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}

func (r *Runner) logVersion(msg string) error {
	version, dirty, err := r.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	r.log.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
