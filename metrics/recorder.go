package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soocke/screenshare-test/domain/screenshare"
)

// Recorder turns capture session transitions into Prometheus metrics. It is
// attached to a controller with AddListener(r.Observe).
type Recorder struct {
	reg *prometheus.Registry

	transitions *prometheus.CounterVec
	acquisition *prometheus.HistogramVec
	live        prometheus.Gauge
	sessions    *prometheus.HistogramVec

	mu          sync.Mutex
	requestedAt time.Time
	grantedAt   time.Time
	now         func() time.Time
}

// NewRecorder registers the session metrics on a fresh registry together
// with the Go and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "screenshare_state_transitions_total",
			Help: "Capture session transitions by entered status",
		}, []string{"status"}),
		acquisition: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screenshare_acquisition_duration_seconds",
			Help:    "Time from capture request to its outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),
		live: f.NewGauge(prometheus.GaugeOpts{
			Name: "screenshare_live_streams",
			Help: "1 while a capture stream is owned by the session",
		}),
		sessions: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screenshare_stream_lifetime_seconds",
			Help:    "How long granted streams stayed live, by how they ended",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 3600},
		}, []string{"end"}),
		now: time.Now,
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observe is a screenshare.StateListener. It runs under the controller lock
// and only touches in-memory collectors.
func (r *Recorder) Observe(prev, next screenshare.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.transitions.WithLabelValues(next.Status.String()).Inc()

	if prev.Status == screenshare.StatusPermissionGranted && next.Status != screenshare.StatusPermissionGranted {
		r.live.Set(0)
		if !r.grantedAt.IsZero() {
			r.sessions.WithLabelValues(endReason(next.Status)).Observe(now.Sub(r.grantedAt).Seconds())
			r.grantedAt = time.Time{}
		}
	}

	switch next.Status {
	case screenshare.StatusRequestingPermission:
		r.requestedAt = now
	case screenshare.StatusPermissionGranted:
		r.live.Set(1)
		r.grantedAt = now
		r.observeAcquisition(next.Status, now)
	case screenshare.StatusUserCancelled, screenshare.StatusPermissionDenied, screenshare.StatusUnexpectedError:
		r.observeAcquisition(next.Status, now)
	case screenshare.StatusIdle:
		r.requestedAt = time.Time{}
	}
}

func (r *Recorder) observeAcquisition(s screenshare.Status, now time.Time) {
	if r.requestedAt.IsZero() {
		return
	}
	r.acquisition.WithLabelValues(s.String()).Observe(now.Sub(r.requestedAt).Seconds())
	r.requestedAt = time.Time{}
}

func endReason(s screenshare.Status) string {
	switch s {
	case screenshare.StatusStreamEnded:
		return "ended"
	case screenshare.StatusIdle:
		return "cleanup"
	case screenshare.StatusRequestingPermission:
		return "restarted"
	default:
		return "other"
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
