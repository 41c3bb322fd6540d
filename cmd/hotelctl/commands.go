package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelpos/internal/database"
	"hotelpos/internal/domain"
	"hotelpos/internal/models"
	"hotelpos/internal/report"
	"hotelpos/internal/seed"
	"hotelpos/internal/worker"

	"github.com/spf13/pflag"
)

const dateLayout = "2006-01-02"

// errDryRun rolls back a transaction that only looked at the sequences.
var errDryRun = errors.New("dry run")

func subcommandFlags(name string, e *env) *pflag.FlagSet {
	fs := pflag.NewFlagSet("hotelctl "+name, pflag.ContinueOnError)
	fs.SetOutput(e.out)
	return fs
}

func runMigrate(ctx context.Context, e *env, args []string) error {
	if err := subcommandFlags("migrate", e).Parse(args); err != nil {
		return err
	}
	if err := e.db.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "schema up to date (%s)\n", e.db.Driver())
	return nil
}

func runSeed(ctx context.Context, e *env, args []string) error {
	fs := subcommandFlags("seed", e)
	path := fs.StringP("file", "f", e.cfg.Seed.Path, "catalog YAML")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("seed: --file is required")
	}

	catalog, err := seed.Load(*path)
	if err != nil {
		return err
	}
	res, err := seed.Apply(ctx, catalog, e.svc.Rooms, e.svc.Catalog, e.logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "created %d rooms, %d rate products, %d items\n", res.Rooms, res.RateProducts, res.Items)
	return nil
}

func runBackup(ctx context.Context, e *env, args []string) error {
	fs := subcommandFlags("backup", e)
	prune := fs.Bool("prune", true, "remove backups past retention")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if e.db.Driver() != "sqlite" {
		return fmt.Errorf("backup: only sqlite databases can be backed up, got %s", e.db.Driver())
	}

	svc := database.NewBackupService(e.db.Path(), e.cfg.Backup, e.logger)
	path, err := svc.PerformBackup(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "backup written to %s\n", path)
	if *prune {
		fmt.Fprintf(e.out, "removed %d old backups\n", svc.CleanupOldBackups())
	}
	return nil
}

func runReconcile(ctx context.Context, e *env, args []string) error {
	if err := subcommandFlags("reconcile", e).Parse(args); err != nil {
		return err
	}
	res, err := worker.NewReconcileWorker(e.db, e.svc.Invoices, e.cfg.Worker, e.logger).RunOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "scanned %d invoices, %d drifted, %d failed\n", res.Scanned, res.Drifted, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("reconcile: %d invoices could not be recomputed", res.Failed)
	}
	return nil
}

func runExportOrders(ctx context.Context, e *env, args []string) error {
	fs := subcommandFlags("export-orders", e)
	fromFlag := fs.String("from", "", "first business day, YYYY-MM-DD (default today)")
	toFlag := fs.String("to", "", "day after the last business day, YYYY-MM-DD")
	dir := fs.String("dir", e.cfg.Reports.Path, "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	loc := e.cfg.App.Location()
	from := models.StartOfDay(time.Now(), loc)
	if *fromFlag != "" {
		t, err := time.ParseInLocation(dateLayout, *fromFlag, loc)
		if err != nil {
			return fmt.Errorf("export-orders: bad --from %q", *fromFlag)
		}
		from = t
	}
	var to time.Time
	if *toFlag != "" {
		t, err := time.ParseInLocation(dateLayout, *toFlag, loc)
		if err != nil {
			return fmt.Errorf("export-orders: bad --to %q", *toFlag)
		}
		if !t.After(from) {
			return errors.New("export-orders: --to must be after --from")
		}
		to = t
	}

	exporter := report.NewExporter(e.svc.Orders, e.svc.Invoices, loc, *dir, e.logger)
	path, err := exporter.SaveOrders(ctx, from, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "orders written to %s\n", path)
	return nil
}

// runNextNumber draws from both sequences inside a transaction that is then
// rolled back, so nothing is consumed.
func runNextNumber(ctx context.Context, e *env, args []string) error {
	if err := subcommandFlags("next-number", e).Parse(args); err != nil {
		return err
	}
	inv := e.cfg.Invoicing
	floors := []struct {
		label    string
		sequence string
		floor    int
	}{
		{"manual", models.SequenceNormal, inv.NormalBase},
		{"check-in", models.SequenceNormal, inv.CheckInBase},
		{"cancelled", models.SequenceCancelled, inv.CancelledBase},
	}

	for _, f := range floors {
		var number string
		err := e.db.InTx(ctx, func(tx domain.Store) error {
			n, err := tx.AllocateInvoiceNumber(ctx, f.sequence, int64(f.floor), inv.NumberWidth)
			if err != nil {
				return err
			}
			number = n
			return errDryRun
		})
		if err != nil && !errors.Is(err, errDryRun) {
			return err
		}
		fmt.Fprintf(e.out, "%-10s %s\n", f.label, number)
	}
	return nil
}
