package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/imgmatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
//
// A missing config file is created from the embedded example first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.config

	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		config = loaded
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using current settings", "error", err)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		version, err := shared.MigrateDown(ctx, db)
		if err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}
		r.writePlain("✓ Rolled back migration %04d\n", version)
		return nil
	}

	r.logger.Info("running database migrations")
	applied, err := shared.MigrateUp(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, err := shared.SchemaVersion(ctx, db)
	if err != nil {
		return err
	}

	r.logger.Debug("migrations applied", "count", len(applied))
	r.writePlain("✓ Database ready: %s (schema %04d)\n", config.Database.Path, version)
	return nil
}

// SetupConfig writes the embedded example configuration to --path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set cloudinary.cloud_name and cloudinary.upload_preset (or %s / %s in .env)\n", shared.EnvCloudName, shared.EnvUploadPreset)
	r.writePlain("2. Point matcher.base_url at the match service and run 'imgmatch match health'\n")
	return nil
}
