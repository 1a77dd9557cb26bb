// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the database and config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Initialize config file, database and migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the review API server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override the configured listen port",
			},
		},
		Action: r.Serve,
	}
}

// rescoreCommand re-runs sentiment classification over stored reviews.
func rescoreCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "rescore",
		Usage:  "Re-run sentiment scoring over all stored reviews",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Rescore,
	}
}

// topCommand launches the leaderboard TUI.
func topCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "top",
		Aliases: []string{"tui"},
		Usage:   "Browse the song and album leaderboards interactively",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of entries per board",
				Value: 20,
			},
		},
		Action: r.Top,
	}
}
