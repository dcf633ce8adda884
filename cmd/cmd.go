// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/squadify/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (txt, csv, md, json)",
		Value:   value,
	}
}

// collabFlags override the [collab] section of the config for a single command.
func collabFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "seed",
			Usage: "Seed for the tie-breaking shuffle (random when omitted)",
		},
		&cli.IntFlag{
			Name:  "max",
			Usage: "Maximum number of tracks in the collab",
		},
		&cli.IntFlag{
			Name:  "min-frequency",
			Usage: "Minimum number of members sharing a track",
		},
		&cli.FloatFlag{
			Name:  "min-share",
			Usage: "Fraction of a fair share guaranteed to every member (0-1)",
		},
		&cli.BoolFlag{
			Name:  "share-below-floor",
			Usage: "Let the minimum share use tracks below the frequency floor",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Record the run in the history database",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write Prometheus metrics to this file (node_exporter textfile format)",
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and initialize the history database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the bundled example",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

func compileCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:     "squad",
			Aliases:  []string{"s"},
			Usage:    "Path to the squad manifest",
			Required: true,
		},
		formatFlag(string(formatter.FormatText)),
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the collab to this file instead of stdout",
		},
		&cli.BoolFlag{
			Name:  "ids",
			Usage: "Also print the collab's track ids in batches of --chunk",
		},
		&cli.IntFlag{
			Name:  "chunk",
			Usage: "Track ids per batch",
			Value: formatter.DefaultChunkSize,
		},
	}

	return &cli.Command{
		Name:   "compile",
		Usage:  "Build a squad's collab playlist",
		Flags:  append(flags, collabFlags()...),
		Action: r.Compile,
	}
}

func batchCommand(r *Runner) *cli.Command {
	flags := []cli.Flag{
		configFlag(),
		formatFlag(string(formatter.FormatCSV)),
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Directory for the collab files (default: collabs_{timestamp})",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of squads compiled concurrently",
			Value:   4,
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the batch summary as JSON",
		},
	}

	return &cli.Command{
		Name:      "batch",
		Usage:     "Build the collabs of several squads",
		ArgsUsage: "<squad.toml>...",
		Flags:     append(flags, collabFlags()...),
		Action:    r.Batch,
	}
}

func runArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"runs"},
		Usage:   "Inspect and replay recorded runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded runs, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "squad",
						Usage: "Only runs of this squad",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:      "show",
				Usage:     "Print a recorded collab",
				ArgsUsage: "<id|sequence>",
				Arguments: runArg(),
				Flags: []cli.Flag{
					configFlag(),
					formatFlag(string(formatter.FormatText)),
				},
				Action: r.HistoryShow,
			},
			{
				Name:      "replay",
				Usage:     "Rebuild a recorded run with its seed and tunables",
				ArgsUsage: "<id|sequence>",
				Arguments: runArg(),
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:     "squad",
						Aliases:  []string{"s"},
						Usage:    "Path to the squad manifest",
						Required: true,
					},
					formatFlag(string(formatter.FormatText)),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the rebuilt collab to this file",
					},
				},
				Action: r.HistoryReplay,
			},
			{
				Name:      "delete",
				Usage:     "Remove a run from the history",
				ArgsUsage: "<id|sequence>",
				Arguments: runArg(),
				Flags:     []cli.Flag{configFlag()},
				Action:    r.HistoryDelete,
			},
		},
	}
}
