// Package main is the entry point for the TimeGuard API server.
//
// Commands: serve (the default) runs the HTTP server, migrate applies
// pending migrations and seeds, version prints build information and task
// runs a single maintenance task once.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/yasinhessnawi1/timeguard/internal/config"
	"github.com/yasinhessnawi1/timeguard/internal/constants"
	"github.com/yasinhessnawi1/timeguard/internal/database"
	"github.com/yasinhessnawi1/timeguard/internal/server"
	"github.com/yasinhessnawi1/timeguard/internal/utils"
	"github.com/yasinhessnawi1/timeguard/migrations"
	"github.com/yasinhessnawi1/timeguard/scripts"
)

// Set at build time through linker flags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// A missing .env file is fine; configuration may come from the environment.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found or couldn't be loaded")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	err := newApp().Run(os.Args)
	if closeErr := utils.CloseLogger(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", closeErr)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("timeguard failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "timeguard",
		Usage:   "Timesheet API with request admission control",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   constants.DefaultConfigPath,
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"TIMEGUARD_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations and exit",
				Action: migrate,
			},
			{
				Name:  "version",
				Usage: "print build information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "TimeGuard API Server\nVersion: %s\nCommit: %s\nBuild Date: %s\n", version, commit, buildDate)
					return nil
				},
			},
			{
				Name:      "task",
				Usage:     "run one maintenance task immediately",
				ArgsUsage: "<task name>",
				Action:    runTask,
			},
		},
	}
}

// loadConfig reads the configuration and initializes logging and validation.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if version != "dev" {
		cfg.App.Version = version
	}

	utils.InitLogger(cfg)
	utils.InitValidator()
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", cfg.App.Version).
		Str("environment", cfg.App.Environment).
		Msg("Starting TimeGuard API server")

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start()
}

func migrate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.NewMigrator(db).RunMigrations(c.Context); err != nil {
		return err
	}
	return scripts.NewSeeder(db).SeedDatabase(c.Context)
}

func runTask(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return cli.Exit("missing task name", 2)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := server.New(cfg, db)
	if err != nil {
		return err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := srv.RunMaintenanceTask(ctx, name); err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(srv.MaintenanceTasks(), ", "))
	}
	return nil
}
