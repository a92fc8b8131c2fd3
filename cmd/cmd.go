// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/imgmatch/internal/formatter"
	"github.com/urfave/cli/v3"
)

// setupCommand handles setup operations for the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration instead of applying pending ones",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Destination path",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// uploadCommand sends local files or URLs through the upload capability.
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload images to the reference slot or the gallery",
		ArgsUsage: "<reference|gallery> <path|url|camera>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Upload,
	}
}

// galleryCommand handles the persisted gallery list.
func galleryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "gallery",
		Usage: "Persisted gallery operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List gallery images",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.GalleryList,
			},
			{
				Name:      "add",
				Usage:     "Append already hosted image URLs to the gallery",
				ArgsUsage: "<url>...",
				Action:    r.GalleryAdd,
			},
			{
				Name:   "watch",
				Usage:  "Print the gallery whenever another process changes it",
				Action: r.GalleryWatch,
			},
		},
	}
}

// matchCommand handles match submissions.
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Match the reference image against the gallery",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Submit a match request and print the result",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "reference",
						Aliases: []string{"r"},
						Usage:   "Reference image URL",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Result format: " + formatUsage(),
						Value:   formatter.FormatText,
					},
					&cli.BoolFlag{
						Name:    "download",
						Aliases: []string{"d"},
						Usage:   "Download all matched images",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Download directory (default from config)",
					},
				},
				Action: r.MatchRun,
			},
			{
				Name:   "health",
				Usage:  "Check that the match service is reachable",
				Action: r.MatchHealth,
			},
		},
	}
}

// historyCommand handles recorded match runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Recorded match runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent match runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "state",
						Usage: "Only runs in this state (succeeded or failed)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to return",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Export one match run",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: " + formatUsage(),
						Value:   formatter.FormatText,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the export to a file instead of stdout",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}

// serveCommand starts the web front-end.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the web front-end",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (default from config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the page in the default browser",
			},
		},
		Action: r.Serve,
	}
}

func formatUsage() string {
	return strings.Join(formatter.Formats, ", ")
}
