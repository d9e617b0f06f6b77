package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twarb/block-prover/logging"
)

var (
	ProvedHeightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "proved_block_height",
		Help: "Height of the last block the prover exited successfully for.",
	})

	FinishedHeightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finished_block_height",
		Help: "Height last acknowledged to the host node, all blocks up to it have been proved and submitted.",
	})

	BatchCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "processed_batches_total",
		Help: "Committed batches fully processed.",
	})

	ProvingDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "block_proving_duration_seconds",
		Help:    "Wall-clock time spent in the external prover per block.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	ProvingResultCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "block_proving_results_total",
		Help: "Proving outcomes by result.",
	}, []string{"result"})

	SubmissionResultCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proof_submission_results_total",
		Help: "Submission outcomes by sink and result.",
	}, []string{"sink", "result"})

	InvalidatedProofCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invalidated_proofs_total",
		Help: "Proofs whose block was reorged or reverted after proving.",
	})

	MetricsItems = []prometheus.Collector{
		ProvedHeightGauge,
		FinishedHeightGauge,
		BatchCounter,
		ProvingDurationHistogram,
		ProvingResultCounter,
		SubmissionResultCounter,
		InvalidatedProofCounter,
	}
)

type Metrics struct {
	httpAddress string
	registry    *prometheus.Registry
	router      *mux.Router
	httpServer  *http.Server
}

func NewMetrics(address string) *Metrics {
	m := &Metrics{
		httpAddress: address,
		registry:    prometheus.NewRegistry(),
		router:      mux.NewRouter(),
	}
	m.router.Path("/metrics").Handler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return m
}

// Handle mounts an extra route next to /metrics.
func (m *Metrics) Handle(path string, handler http.HandlerFunc, methods ...string) {
	route := m.router.HandleFunc(path, handler)
	if len(methods) > 0 {
		route.Methods(methods...)
	}
}

func (m *Metrics) Router() *mux.Router {
	return m.router
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Register() {
	m.registry.MustRegister(MetricsItems...)
}

// Serve registers the collectors and blocks serving HTTP until ctx is done.
func (m *Metrics) Serve(ctx context.Context) error {
	m.Register()
	m.httpServer = &http.Server{
		Addr:              m.httpAddress,
		Handler:           m.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.httpServer.Shutdown(shutdownCtx)
	}()
	logging.Logger.Infof("serving metrics, address=%s", m.httpAddress)
	if err := m.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Logger.Errorf("failed to listen and serve, err=%s", err.Error())
		return err
	}
	return nil
}
