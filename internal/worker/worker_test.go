package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hotelpos/internal/config"
	"hotelpos/internal/domain"
	"hotelpos/internal/models"

	"github.com/shopspring/decimal"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}
}

func TestRetryPolicyDo(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond}
	errBusy := errors.New("busy")

	calls := 0
	err := policy.Do(context.Background(), nil, func() error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got err=%v calls=%d", err, calls)
	}

	calls = 0
	err = policy.Do(context.Background(), nil, func() error {
		calls++
		return errBusy
	})
	if !errors.Is(err, errBusy) || calls != 3 {
		t.Fatalf("expected last error after 3 calls, got err=%v calls=%d", err, calls)
	}

	calls = 0
	fatal := errors.New("fatal")
	err = policy.Do(context.Background(), func(err error) bool { return errors.Is(err, errBusy) }, func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) || calls != 1 {
		t.Fatalf("non-retryable error should stop at once, got err=%v calls=%d", err, calls)
	}
}

func TestRetryPolicyDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{MaxRetries: 5, InitialDelay: time.Hour}
	err := policy.Do(ctx, nil, func() error { return errors.New("busy") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakeLister struct {
	invoices []*models.Invoice
	calls    int
	err      error
}

func (f *fakeLister) ListInvoices(_ context.Context, filter domain.InvoiceFilter) ([]*models.Invoice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Invoice
	for _, inv := range f.invoices {
		if inv.ID <= filter.AfterID {
			continue
		}
		out = append(out, inv)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

type fakeRecomputer struct {
	totals map[int64]decimal.Decimal
	failOn int64
	seen   []int64
}

func (f *fakeRecomputer) Recompute(_ context.Context, id int64) (*models.Invoice, error) {
	f.seen = append(f.seen, id)
	if id == f.failOn {
		return nil, domain.Internal(nil, "aggregate failed")
	}
	total := f.totals[id]
	return &models.Invoice{ID: id, TotalUSD: total, RemainingBalanceUSD: total}, nil
}

func invoice(id int64, total string) *models.Invoice {
	d := decimal.RequireFromString(total)
	return &models.Invoice{ID: id, InvoiceNumber: fmt.Sprintf("%06d", 1219+id), TotalUSD: d, RemainingBalanceUSD: d}
}

func TestReconcileWorkerRunOnce(t *testing.T) {
	lister := &fakeLister{invoices: []*models.Invoice{
		invoice(1, "100"),
		invoice(2, "50"),
		invoice(3, "0"),
		invoice(4, "20"),
		invoice(5, "10"),
	}}
	recomputer := &fakeRecomputer{
		totals: map[int64]decimal.Decimal{
			1: decimal.RequireFromString("100"),
			2: decimal.RequireFromString("75"),
			3: decimal.Zero,
			5: decimal.RequireFromString("10.00"),
		},
		failOn: 4,
	}

	w := NewReconcileWorker(lister, recomputer, config.WorkerConfig{ReconcileBatch: 2}, nil)
	res, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.Scanned != 5 {
		t.Fatalf("expected 5 scanned, got %d", res.Scanned)
	}
	if res.Drifted != 1 {
		t.Fatalf("expected 1 drifted, got %d", res.Drifted)
	}
	if res.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", res.Failed)
	}
	if len(recomputer.seen) != 5 {
		t.Fatalf("expected every invoice recomputed once, got %v", recomputer.seen)
	}
	// batches of 2: [1,2] [3,4] [5]
	if lister.calls != 3 {
		t.Fatalf("expected 3 list calls, got %d", lister.calls)
	}
}

func TestReconcileWorkerListError(t *testing.T) {
	lister := &fakeLister{err: errors.New("db down")}
	w := NewReconcileWorker(lister, &fakeRecomputer{}, config.WorkerConfig{}, nil)

	if _, err := w.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected list error")
	}
}

func TestReconcileWorkerStartStops(t *testing.T) {
	lister := &fakeLister{}
	w := NewReconcileWorker(lister, &fakeRecomputer{}, config.WorkerConfig{ReconcileInterval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop")
	}
}
