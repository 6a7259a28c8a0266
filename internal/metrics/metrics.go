package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts normalized events per trigger name.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircrelay_events_total",
			Help: "Total number of normalized IRC events per trigger",
		},
		[]string{"trigger"},
	)

	// DispatchErrors counts events the sink failed to accept.
	DispatchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ircrelay_dispatch_errors_total",
		Help: "Total number of failed trigger dispatches",
	})

	// Connected tracks the last observed registration state: set on
	// welcome, cleared on stop or a fatal auth error. The IRC library
	// reconnects on its own after transient drops, so during a reconnect
	// window the gauge still shows the last registration.
	Connected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ircrelay_connected",
		Help: "Last observed IRC registration state: 1 after welcome, 0 after stop or fatal auth error",
	})
)

// Serve exposes /metrics and /healthz on addr in the background.
func Serve(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics listener failed", "addr", addr, "error", err)
		}
	}()
}
