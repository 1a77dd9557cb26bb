package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/beating-app/beating/internal/analytics"
	"github.com/beating-app/beating/internal/server"
	"github.com/beating-app/beating/internal/shared"
	"github.com/beating-app/beating/internal/ui"
)

// Setup creates the config file when missing, then initializes the database
// and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		config = r.loadConfig(configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			config = r.loadConfig(configPath)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app := server.NewApp(config, db, r.logger)

	serveCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.ListenAndServe(serveCtx)
}

// Rescore re-runs classification over every stored review and reports how
// many sentiments changed.
func (r *Runner) Rescore(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	app := server.NewApp(config, db, r.logger)

	report, err := app.Reviews.Rescore(ctx)
	if err != nil {
		return fmt.Errorf("rescore failed: %w", err)
	}

	r.writePlain("Rescored %d review(s): %d changed, %d drifted beyond tolerance\n",
		report.Total, report.Changed, report.Drifted)
	return nil
}

// Top launches the leaderboard TUI.
func (r *Runner) Top(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := analytics.NewEngine(db)
	return ui.Run(ctx, engine, int(cmd.Int("limit")))
}
