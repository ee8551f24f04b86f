// Package database provides database connection and migration functionality.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"net/url"
	"strings"
	"sync"

	"devopsquiz/internal/config"
	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"
	// Import pure-Go SQLite driver for database/sql
	_ "modernc.org/sqlite"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// OpenTelemetry SQL instrumentation
	"go.nhat.io/otelsql"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Manager handles database operations with proper logging
type Manager struct {
	logger *observability.Logger
}

var (
	otelDriverMu    sync.Mutex
	otelDriverNames = map[string]string{}
)

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// DefaultDatabaseConfig returns the default pool configuration
func DefaultDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:          config.DatabaseDriverPostgres,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: config.DatabaseConnMaxLifetime,
	}
}

// InitDB opens the database and applies all pending migrations
func (dm *Manager) InitDB(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "InitDB",
		attribute.String("db.system", cfg.Driver),
		attribute.String("db.name", extractDatabaseName(cfg.URL)),
		attribute.Bool("migrations.enabled", true),
	)
	defer observability.FinishSpan(span, &err)

	db, err := dm.InitDBWithoutMigrations(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := dm.RunMigrations(ctx, db, cfg.Driver); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database after migration failure", closeErr)
		}
		return nil, err
	}

	return db, nil
}

// InitDBWithoutMigrations opens an instrumented connection pool and pings it
func (dm *Manager) InitDBWithoutMigrations(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "InitDBWithoutMigrations",
		attribute.String("db.system", cfg.Driver),
		attribute.Int("db.max_open_conns", cfg.MaxOpenConns),
		attribute.Int("db.max_idle_conns", cfg.MaxIdleConns),
		attribute.String("db.conn_max_lifetime", cfg.ConnMaxLifetime.String()),
	)
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(cfg.URL) == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "database url is required")
	}

	driverName, err := registerOtelDriver(cfg)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to register otelsql driver: %w", err)
	}

	db, err := sql.Open(driverName, cfg.URL)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to open database connection: %w", err)
	}

	if cfg.Driver == config.DatabaseDriverSQLite {
		// SQLite allows a single writer, and an in-memory database lives only as long as its connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after ping failure", closeErr)
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to ping database: %w", err)
	}

	dm.logger.Info(ctx, "Database connection established", map[string]interface{}{
		"driver":            cfg.Driver,
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})

	return db, nil
}

// registerOtelDriver wraps the raw driver with otelsql once per driver and returns the wrapped name
func registerOtelDriver(cfg config.DatabaseConfig) (string, error) {
	otelDriverMu.Lock()
	defer otelDriverMu.Unlock()

	if name, ok := otelDriverNames[cfg.Driver]; ok {
		return name, nil
	}

	var system attribute.KeyValue
	switch cfg.Driver {
	case config.DatabaseDriverPostgres:
		system = semconv.DBSystemPostgreSQL
	case config.DatabaseDriverSQLite:
		system = semconv.DBSystemSqlite
	default:
		return "", contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unsupported database driver %q", cfg.Driver)
	}

	name, err := otelsql.Register(cfg.Driver,
		otelsql.WithDatabaseName(extractDatabaseName(cfg.URL)),
		otelsql.TraceQueryWithArgs(),
		otelsql.WithSystem(system),
		otelsql.TraceRowsAffected(),
	)
	if err != nil {
		return "", err
	}
	otelDriverNames[cfg.Driver] = name
	return name, nil
}

// RunMigrations applies the embedded migrations for driver to db
func (dm *Manager) RunMigrations(ctx context.Context, db *sql.DB, driver string) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "RunMigrations",
		attribute.String("db.system", driver),
		attribute.String("migration.type", "golang_migrate"),
	)
	defer observability.FinishSpan(span, &err)

	dm.logger.Info(ctx, "Starting database migrations...", map[string]interface{}{"driver": driver})

	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseMigration, "failed to open embedded migrations for %s: %w", driver, err)
	}

	var m *migrate.Migrate
	switch driver {
	case config.DatabaseDriverPostgres:
		// A dedicated connection; closing the migrator returns it to the pool
		conn, connErr := db.Conn(ctx)
		if connErr != nil {
			return contextutils.WrapErrorf(contextutils.ErrDatabaseConnection, "failed to acquire migration connection: %w", connErr)
		}
		target, drvErr := migratepostgres.WithConnection(ctx, conn, &migratepostgres.Config{})
		if drvErr != nil {
			_ = conn.Close()
			return contextutils.WrapErrorf(contextutils.ErrDatabaseMigration, "failed to initialize postgres migration driver: %w", drvErr)
		}
		m, err = migrate.NewWithInstance("iofs", source, driver, target)
		if err != nil {
			return contextutils.WrapErrorf(contextutils.ErrDatabaseMigration, "failed to initialize golang-migrate: %w", err)
		}
		defer func() {
			if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
				dm.logger.Error(ctx, "Error closing migration", errors.Join(srcErr, dbErr))
			}
		}()
	case config.DatabaseDriverSQLite:
		target, drvErr := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if drvErr != nil {
			return contextutils.WrapErrorf(contextutils.ErrDatabaseMigration, "failed to initialize sqlite migration driver: %w", drvErr)
		}
		m, err = migrate.NewWithInstance("iofs", source, driver, target)
		if err != nil {
			return contextutils.WrapErrorf(contextutils.ErrDatabaseMigration, "failed to initialize golang-migrate: %w", err)
		}
		// The sqlite migration driver closes the shared *sql.DB on Close, so only the source is released
		defer func() {
			if srcErr := source.Close(); srcErr != nil {
				dm.logger.Error(ctx, "Error closing migration source", srcErr)
			}
		}()
	default:
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unsupported database driver %q", driver)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		dm.logger.Info(ctx, "No new migrations to apply")
		return nil
	}
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseMigration, "golang-migrate up failed: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		span.SetAttributes(attribute.Int("migration.version", int(version)), attribute.Bool("migration.dirty", dirty))
	}
	dm.logger.Info(ctx, "Database migrations applied successfully", map[string]interface{}{"version": version})
	return nil
}

// extractDatabaseName extracts the database name from a connection string or sqlite path
func extractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && u.Scheme != "" && u.Host != "" {
		if dbName := strings.TrimPrefix(u.Path, "/"); dbName != "" {
			return dbName
		}
	}
	if strings.TrimSpace(databaseURL) == "" || strings.Contains(databaseURL, ":memory:") {
		return "devops_quiz"
	}
	if i := strings.Index(databaseURL, "?"); i != -1 {
		databaseURL = databaseURL[:i]
	}
	if i := strings.LastIndex(databaseURL, "/"); i != -1 {
		databaseURL = databaseURL[i+1:]
	}
	return strings.TrimPrefix(databaseURL, "file:")
}
