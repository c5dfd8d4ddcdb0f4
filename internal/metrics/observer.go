package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"webmc/internal/progress"
)

// jobObserver implements progress.Reporter using the metrics declared in
// this package.
type jobObserver struct{}

// NewReporter returns a progress.Reporter that records job metrics.
func NewReporter() progress.Reporter {
	return jobObserver{}
}

func (jobObserver) Update(progress.Update) {
	ProgressSamplesTotal.Inc()
}

func (jobObserver) Result(r progress.Result) {
	switch r.Step {
	case progress.StepFirst:
		FirstPassDuration.Observe(r.Duration.Seconds())
	case progress.StepSecond:
		JobsFinishedTotal.WithLabelValues("complete").Inc()
		JobDuration.Observe(r.Duration.Seconds())
	default:
		JobsFinishedTotal.WithLabelValues("error").Inc()
		JobFailuresTotal.WithLabelValues(strconv.Itoa(r.Pass)).Inc()
	}
}

// Queue is the scheduler view exported as gauges.
type Queue interface {
	ActiveCount() int
	Parallelism() int
}

// RegisterQueue exports the processing count and parallelism limit of q.
func RegisterQueue(reg prometheus.Registerer, q Queue) error {
	active := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "webmc_jobs_processing",
		Help: "Number of jobs currently processing",
	}, func() float64 { return float64(q.ActiveCount()) })
	limit := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "webmc_parallelism_limit",
		Help: "Configured limit of concurrently processing jobs",
	}, func() float64 { return float64(q.Parallelism()) })

	if err := reg.Register(active); err != nil {
		return err
	}
	return reg.Register(limit)
}

// Handler returns the Prometheus metrics handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
