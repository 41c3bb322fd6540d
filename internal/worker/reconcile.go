package worker

import (
	"context"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/domain"
	"hotelpos/internal/metrics"
	"hotelpos/internal/models"

	"github.com/rs/zerolog"
)

const reconcileWorkerName = "reconcile"

type InvoiceLister interface {
	ListInvoices(ctx context.Context, f domain.InvoiceFilter) ([]*models.Invoice, error)
}

// Recomputer rebuilds the derived totals of one invoice.
type Recomputer interface {
	Recompute(ctx context.Context, id int64) (*models.Invoice, error)
}

type AuditResult struct {
	Scanned int
	Drifted int
	Failed  int
}

// ReconcileWorker periodically recomputes every invoice and reports the ones
// whose stored totals had drifted from their constituents.
type ReconcileWorker struct {
	store      InvoiceLister
	recomputer Recomputer
	interval   time.Duration
	batchSize  int
	logger     zerolog.Logger
}

func NewReconcileWorker(store InvoiceLister, recomputer Recomputer, cfg config.WorkerConfig, logger *zerolog.Logger) *ReconcileWorker {
	w := &ReconcileWorker{
		store:      store,
		recomputer: recomputer,
		interval:   cfg.ReconcileInterval,
		batchSize:  cfg.ReconcileBatch,
		logger:     zerolog.Nop(),
	}
	if logger != nil {
		w.logger = logger.With().Str("component", "reconcile_worker").Logger()
	}
	if w.interval <= 0 {
		w.interval = 15 * time.Minute
	}
	if w.batchSize <= 0 {
		w.batchSize = 200
	}
	return w
}

func (w *ReconcileWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("started")
	defer w.logger.Info().Msg("stopped")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error().Err(err).Msg("audit failed")
			}
		}
	}
}

// RunOnce walks every invoice oldest first in batches. A failure on one
// invoice is logged and counted; listing failures abort the pass.
func (w *ReconcileWorker) RunOnce(ctx context.Context) (AuditResult, error) {
	var (
		res    AuditResult
		lastID int64
	)

	for {
		batch, err := w.store.ListInvoices(ctx, domain.InvoiceFilter{AfterID: lastID, Limit: w.batchSize, OldestFirst: true})
		if err != nil {
			metrics.IncWorkerRun(reconcileWorkerName, err)
			return res, err
		}

		for _, inv := range batch {
			if err := ctx.Err(); err != nil {
				metrics.IncWorkerRun(reconcileWorkerName, err)
				return res, err
			}
			lastID = inv.ID
			res.Scanned++

			updated, err := w.recomputer.Recompute(ctx, inv.ID)
			if err != nil {
				res.Failed++
				w.logger.Error().Err(err).Int64("invoice_id", inv.ID).Msg("recompute failed")
				continue
			}
			if drifted(inv, updated) {
				res.Drifted++
				w.logger.Warn().
					Int64("invoice_id", inv.ID).
					Str("invoice_number", inv.InvoiceNumber).
					Str("stored_total", inv.TotalUSD.StringFixed(2)).
					Str("total", updated.TotalUSD.StringFixed(2)).
					Str("stored_remaining", inv.RemainingBalanceUSD.StringFixed(2)).
					Str("remaining", updated.RemainingBalanceUSD.StringFixed(2)).
					Msg("invoice totals drifted")
			}
		}

		if len(batch) < w.batchSize {
			break
		}
	}

	metrics.AddReconcileDrift(res.Drifted)
	metrics.IncWorkerRun(reconcileWorkerName, nil)
	w.logger.Info().Int("scanned", res.Scanned).Int("drifted", res.Drifted).Int("failed", res.Failed).Msg("audit finished")
	return res, nil
}

func drifted(before, after *models.Invoice) bool {
	return !before.TotalUSD.Equal(after.TotalUSD) || !before.RemainingBalanceUSD.Equal(after.RemainingBalanceUSD)
}
