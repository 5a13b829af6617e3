package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/invoicedesk-backend/pkg/config"
	"github.com/angelmondragon/invoicedesk-backend/pkg/db"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
	"github.com/angelmondragon/invoicedesk-backend/pkg/migrate"
)

const usageText = `Manage the Invoice Desk billing schema (tenants, fee schedules, fee tiers,
gateway configs, payment links).

Usage:
  migrate [-dir DIR] -cmd COMMAND [options]

Commands:
  up        apply every pending migration
  down      roll back the latest migration
  status    list applied and pending migrations
  version   migrate up or down to -version (YYYYMMDDHHMMSS)
  create    scaffold a new SQL migration named -name
  validate  check file names and goose annotations without a database

Database settings come from INVOICEDESK_DB_DSN or the discrete INVOICEDESK_DB_* variables.

Flags:
`

// offlineCommands run without opening the database.
var offlineCommands = map[string]bool{"create": true, "validate": true}

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	opts := parseFlags(flag.CommandLine, os.Args[1:])

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	if offlineCommands[opts.cmd] {
		if err := runOffline(os.Stdout, opts); err != nil {
			logg.Error(context.Background(), "migration command failed", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": opts.cmd,
		"dir": opts.dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to extract sql database", err)
		os.Exit(1)
	}

	if err := runOnline(ctx, sqlDB, opts); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration command completed")
}

func parseFlags(fs *flag.FlagSet, args []string) options {
	var opts options
	fs.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	fs.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	fs.StringVar(&opts.name, "name", "", "migration name for -cmd=create, e.g. add_link_reminders")
	fs.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageText)
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)
	return opts
}

func runOffline(out io.Writer, opts options) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Fprintln(out, "created migration:", path)
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return fmt.Errorf("validate migrations: %w", err)
		}
		fmt.Fprintln(out, "migration validation passed")
	default:
		return fmt.Errorf("%s needs a database", opts.cmd)
	}
	return nil
}

func runOnline(ctx context.Context, sqlDB *sql.DB, opts options) error {
	switch opts.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
}
