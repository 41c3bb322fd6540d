package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveHTTP("/api/v1/invoices", 200, 15*time.Millisecond)
		IncGRPC("GetInvoice", "OK")
		IncWorkerRun("reconcile", nil)
		IncWorkerRun("reconcile", errors.New("x"))
	})
}

func TestInvoiceCounters(t *testing.T) {
	before := testutil.ToFloat64(invoiceNumbers.WithLabelValues("CANCELLED"))
	IncInvoiceNumber("CANCELLED")
	assert.Equal(t, before+1, testutil.ToFloat64(invoiceNumbers.WithLabelValues("CANCELLED")))

	okBefore := testutil.ToFloat64(invoiceRecomputes.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(invoiceRecomputes.WithLabelValues("error"))
	IncRecompute(true)
	IncRecompute(false)
	IncRecompute(false)
	assert.Equal(t, okBefore+1, testutil.ToFloat64(invoiceRecomputes.WithLabelValues("ok")))
	assert.Equal(t, errBefore+2, testutil.ToFloat64(invoiceRecomputes.WithLabelValues("error")))

	driftBefore := testutil.ToFloat64(reconcileDrift)
	AddReconcileDrift(3)
	assert.Equal(t, driftBefore+3, testutil.ToFloat64(reconcileDrift))
}
