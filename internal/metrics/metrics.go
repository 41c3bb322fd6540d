package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hotelpos"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	grpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "gRPC requests by method and code.",
		},
		[]string{"method", "code"},
	)

	invoiceRecomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_recomputations_total",
			Help:      "Invoice total recomputations by result.",
		},
		[]string{"result"},
	)

	invoiceNumbers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_numbers_allocated_total",
			Help:      "Invoice numbers handed out per sequence.",
		},
		[]string{"sequence"},
	)

	reconcileDrift = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_drift_total",
			Help:      "Invoices whose stored totals disagreed with their constituents during an audit.",
		},
	)

	workerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_runs_total",
			Help:      "Background worker runs by worker and result.",
		},
		[]string{"worker", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, grpcRequests, invoiceRecomputes,
			invoiceNumbers, reconcileDrift, workerRuns)
	})
}

func ObserveHTTP(endpoint string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func IncGRPC(method, code string) {
	grpcRequests.WithLabelValues(method, code).Inc()
}

// IncRecompute counts a reconciliation; ok=false means it failed.
func IncRecompute(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	invoiceRecomputes.WithLabelValues(result).Inc()
}

func IncInvoiceNumber(sequence string) {
	invoiceNumbers.WithLabelValues(sequence).Inc()
}

func AddReconcileDrift(n int) {
	reconcileDrift.Add(float64(n))
}

func IncWorkerRun(worker string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	workerRuns.WithLabelValues(worker, result).Inc()
}
