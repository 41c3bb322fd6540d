// hotelctl runs one-off admin jobs against the hotel database: schema
// migration, catalog seeding, backups, invoice audits and order exports.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"hotelpos/internal/config"
	"hotelpos/internal/database"
	"hotelpos/internal/logging"
	"hotelpos/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"migrate", "create or update the database schema", runMigrate},
	{"seed", "load rooms, rate products and menu items from YAML", runSeed},
	{"backup", "write a SQLite backup and prune old ones", runBackup},
	{"reconcile", "recompute every invoice and report drift", runReconcile},
	{"export-orders", "write the orders workbook for a date range", runExportOrders},
	{"next-number", "show the next invoice numbers without using them", runNextNumber},
}

// env is what every subcommand works with.
type env struct {
	cfg    *config.Config
	db     *database.DB
	svc    *service.Services
	logger *zerolog.Logger
	out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	flagSet := pflag.NewFlagSet("hotelctl", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	configPath := flagSet.StringP("config", "c", defaultConfigPath(), "path to config YAML")
	flagSet.SetInterspersed(false)
	flagSet.Usage = func() { printHelp(out, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(out, flagSet)
		return errors.New("no command given")
	}
	cmd, ok := lookup(rest[0])
	if !ok {
		return fmt.Errorf("unknown command %q", rest[0])
	}

	e, cleanup, err := setup(*configPath, out)
	if err != nil {
		return err
	}
	defer cleanup()

	return cmd.run(ctx, e, rest[1:])
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func defaultConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func setup(configPath string, out io.Writer) (*env, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	base, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(base, "hotelctl")

	db, err := database.Open(cfg.Database, &logger)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		_ = db.Close()
		if closer != nil {
			_ = closer.Close()
		}
	}
	return &env{
		cfg:    cfg,
		db:     db,
		svc:    service.New(db, nil, nil, cfg, &logger),
		logger: &logger,
		out:    out,
	}, cleanup, nil
}

func printHelp(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(out, "usage: hotelctl [--config path] <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-14s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "flags:")
	fmt.Fprint(out, flagSet.FlagUsages())
}
