// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"devopsquiz/internal/catalog"
	"devopsquiz/internal/config"
	"devopsquiz/internal/database"
	"devopsquiz/internal/di"
	"devopsquiz/internal/observability"
	"devopsquiz/internal/secrets"
	contextutils "devopsquiz/internal/utils"

	"golang.org/x/term"
)

// Env carries the configuration shared by every command. Expensive
// resources are opened by the commands that need them.
type Env struct {
	Config *config.Config
	Logger *observability.Logger

	// Resolver finds and stores the completion API key
	Resolver *secrets.Resolver
	// ContainerOptions are passed to the service container built by ask
	ContainerOptions []di.Option
	// ReadSecret reads a value from the terminal without echo
	ReadSecret func(prompt string) (string, error)
}

// NewEnv creates the default environment for cfg
func NewEnv(cfg *config.Config, logger *observability.Logger) *Env {
	return &Env{
		Config:     cfg,
		Logger:     logger,
		Resolver:   secrets.NewResolver(cfg.AWS, logger),
		ReadSecret: readTerminalSecret,
	}
}

func (e *Env) loadCatalog() (*catalog.Catalog, error) {
	return catalog.Load(e.Config.Catalog.Path)
}

// openDatabase connects without migrating; callers decide whether to migrate
func (e *Env) openDatabase(ctx context.Context) (*sql.DB, *database.Manager, error) {
	if !e.Config.UsageStatsEnabled() {
		return nil, nil, contextutils.WrapError(contextutils.ErrMissingRequired, "database.url is not configured")
	}
	dm := database.NewManager(e.Logger)
	db, err := dm.InitDBWithoutMigrations(ctx, e.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, dm, nil
}

func (e *Env) closeDatabase(ctx context.Context, db *sql.DB) {
	if err := db.Close(); err != nil {
		e.Logger.Warn(ctx, "Failed to close database connection", map[string]interface{}{
			"error":  err.Error(),
			"db_url": maskDatabaseURL(e.Config.Database.URL),
		})
	}
}

func readTerminalSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read secret: %w", err)
	}
	return string(value), nil
}
