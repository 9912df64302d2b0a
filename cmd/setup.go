package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ldx/internal/repositories"
	"github.com/desertthunder/ldx/internal/services"
	"github.com/desertthunder/ldx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Load resolves the configuration, opens the database and builds the API service.
//
// A database that cannot be opened is not fatal: the token is then kept in memory
// and commands that need local storage fail on their own.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	configPath := cmd.String("config")

	config, err := shared.ResolveConfig(configPath)
	if err != nil {
		return ctx, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return ctx, err
	}
	r.config = config
	r.configPath = configPath
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))

	var tokens services.TokenStore
	if db, err := shared.OpenDatabase(config.Database); err != nil {
		r.logger.Warn("database unavailable, access token will not persist", "path", config.Database.Path, "error", err)
		tokens = services.NewMemoryTokenStore("")
	} else {
		r.db = db
		r.scans = repositories.NewScanRepository(db)
		tokens = repositories.NewSettingsRepository(db)
	}

	if preset := shared.NormalizeToken(config.Auth.Token); preset != "" {
		if err := tokens.SetToken(ctx, preset); err != nil {
			r.logger.Warn("failed to store preset token", "error", err)
		}
	}

	r.api = services.NewAPIService(config.API.BaseURL, r.httpClient, tokens)
	r.api.SetLogger(r.logger)
	r.api.OnError(func(err error) {
		r.logger.Debug("backend request failed", "error", err)
	})
	r.api.OnUnauthorized(func() {
		r.logger.Warn("access token missing or rejected, sign in with `ldx auth login`")
	})
	return ctx, nil
}

// Close releases the database.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	r.scans = nil
	return err
}

// SetupDatabase creates the config file when missing, initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	config := r.config
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.ResolveConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ Setup complete\n")
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url in %s to your LDDB server\n", configPath)
	r.writePlain("2. Run 'ldx auth login' to store your access token\n")
	return nil
}

// MigrateStatus prints every embedded migration with its applied state.
func (r *Runner) MigrateStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	statuses, err := shared.MigrationStatuses(r.db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations")
	for _, st := range statuses {
		if st.Applied && st.AppliedAt != nil {
			r.writePlain("✓ %03d %s (applied %s)\n", st.Version, st.Name, formatTime(*st.AppliedAt))
		} else {
			r.writePlain("○ %03d %s (pending)\n", st.Version, st.Name)
		}
	}
	return nil
}

// MigrateUp applies pending migrations.
func (r *Runner) MigrateUp(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	if err := shared.RunMigrations(r.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return r.writePlain("✓ Migrations applied\n")
}

// MigrateRollback rolls back the most recent migration.
func (r *Runner) MigrateRollback(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	if err := shared.RollbackMigration(r.db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	r.logger.Info("rolled back latest migration")
	return r.writePlain("✓ Rolled back the latest migration\n")
}
