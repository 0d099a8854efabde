// Package database opens a pooled Postgres connection, applies versioned SQL
// migrations, and gates startup readiness on the schema version lying in
// [min, max]. Built against raw jackc/pgx/v5 plus go:embed-driven
// golang-migrate rather than a code-generating ORM, so schema changes need
// only a new migration file and no generation step.
package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/specialist-gateway/gateway/internal/gwerrors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// latestMigrationVersion is the highest version number among the embedded
// migrations. Updated by hand whenever a new migration file is added.
const latestMigrationVersion = 1

// Config configures the pooled connection and the migration gate.
type Config struct {
	DSN                 string
	ConnectTimeout      time.Duration
	AutoMigrate         bool
	MinSupportedVersion int
	MaxSupportedVersion int
	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetime     time.Duration
}

// Client wraps a pgx connection pool. It owns no other process-wide state.
type Client struct {
	Pool          *pgxpool.Pool
	schemaVersion int
}

// LatestMigrationVersion is the highest version number among the embedded
// migrations, used by the `db bootstrap-local` command as the supported
// maximum version and in its report.
func LatestMigrationVersion() int { return latestMigrationVersion }

// NewClient opens a pooled connection, applies pending migrations (or fails
// fast if auto-migrate is off and migrations are pending), and verifies the
// resulting schema version is within the supported range.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing DSN: %v", gwerrors.ErrPersistence, err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: opening connection pool: %v", gwerrors.ErrPersistence, err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging database: %v", gwerrors.ErrPersistence, err)
	}

	schemaVersion, err := runMigrations(cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Client{Pool: pool, schemaVersion: schemaVersion}, nil
}

// Close releases the pool.
func (c *Client) Close() {
	c.Pool.Close()
}

// runMigrations applies every pending migration (or fails with
// PendingMigrations when auto-migrate is disabled), then confirms the
// resulting version lies in [min, max] or fails with SchemaOutOfRange.
//
// Uses database/sql + golang-migrate rather than driving migrations through
// the pgxpool directly: golang-migrate's postgres driver only integrates
// with database/sql, so a short-lived stdlib connection is opened
// specifically for migration purposes and closed before returning — the
// long-lived application pool above is the pgxpool used for everything else.
func runMigrations(cfg Config) (int, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("%w: loading embedded migrations: %v", gwerrors.ErrPersistence, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, cfg.DSN)
	if err != nil {
		return 0, fmt.Errorf("%w: constructing migrator: %v", gwerrors.ErrPersistence, err)
	}
	// The migrator opened its own connection from the DSN rather than
	// sharing the application pool, so closing it here is safe and expected.
	defer m.Close()

	version, dirty, verErr := m.Version()
	currentVersion := int(version)
	if verErr != nil {
		if verErr != migrate.ErrNilVersion {
			return 0, fmt.Errorf("%w: reading schema version: %v", gwerrors.ErrPersistence, verErr)
		}
		currentVersion = 0
	}
	if dirty {
		return 0, fmt.Errorf("%w: schema is in a dirty state at version %d", gwerrors.ErrPersistence, version)
	}

	if currentVersion < latestMigrationVersion {
		if !cfg.AutoMigrate {
			return 0, fmt.Errorf("%w: schema at version %d, latest available is %d", gwerrors.ErrPendingMigrations, currentVersion, latestMigrationVersion)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return 0, fmt.Errorf("%w: applying migrations: %v", gwerrors.ErrPersistence, err)
		}
	}

	finalVersion, _, err := m.Version()
	if err != nil {
		if err == migrate.ErrNilVersion {
			return 0, fmt.Errorf("%w: no migrations applied", gwerrors.ErrSchemaOutOfRange)
		}
		return 0, fmt.Errorf("%w: reading final schema version: %v", gwerrors.ErrPersistence, err)
	}

	if int(finalVersion) < cfg.MinSupportedVersion || int(finalVersion) > cfg.MaxSupportedVersion {
		return 0, fmt.Errorf("%w: schema version %d not in [%d, %d]", gwerrors.ErrSchemaOutOfRange, finalVersion, cfg.MinSupportedVersion, cfg.MaxSupportedVersion)
	}

	return int(finalVersion), nil
}
