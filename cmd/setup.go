package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/squadify/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a config file from the bundled example.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("%s Wrote %s\n", r.styles.OK("✓"), configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Adjust the [collab] tunables in %s\n", configPath)
	r.writePlain("2. Run 'squadify setup database' to create the run history\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
//
// The config file is created from the bundled example when it does not exist yet.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using current config", "error", err)
		}
	}

	if config, err := shared.LoadConfig(configPath); err == nil {
		if err := config.ApplyEnv(os.LookupEnv); err != nil {
			return err
		}
		r.config = config
	} else {
		r.logger.Warn("failed to load config, using current config", "error", err)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlain("%s Database ready at %s\n", r.styles.OK("✓"), r.config.Database.Path)
	return nil
}
