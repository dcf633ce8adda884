package main

import (
	"context"
	"os"

	"github.com/desertthunder/squadify/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnvFile(".env"); err != nil {
		logger.Warn("ignoring .env", "error", err)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		logger.Fatalf("invalid environment: %v", err)
	}

	if level, err := shared.ParseLogLevel(config.Log.Level); err == nil {
		shared.SetLogLevel(logger, level)
	} else {
		logger.Warn("unknown log level, using info", "level", config.Log.Level)
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:    "squadify",
		Usage:   "Merge a squad's playlists into one collab playlist",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   runner.before,
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
