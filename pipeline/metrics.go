package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "adminctl"

// Outcome labels shared by the pipeline counters.
const (
	OutcomeOK             = "ok"
	OutcomeAPIError       = "api_error"
	OutcomeTransportError = "transport_error"
	OutcomeSessionEnded   = "session_ended"
	OutcomeSuccess        = "success"
	OutcomeFailure        = "failure"
	OutcomeNoRefreshToken = "no_refresh_token"
)

// Metrics holds the Prometheus collectors of one client.
type Metrics struct {
	Requests      *prometheus.CounterVec
	Refreshes     *prometheus.CounterVec
	Replays       *prometheus.CounterVec
	Waiting       prometheus.Gauge
	ForcedLogouts prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered, which suits tests and short-lived CLIs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Requests completed by the pipeline, by method and outcome",
		}, []string{"method", "outcome"}),

		Refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "token_refreshes_total",
			Help:      "Token refresh episodes, by outcome",
		}, []string{"outcome"}),

		Replays: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "replays_total",
			Help:      "Requests replayed after a refresh, by outcome",
		}, []string{"outcome"}),

		Waiting: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_waiters",
			Help:      "Requests currently queued behind an in-flight refresh",
		}),

		ForcedLogouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "forced_logouts_total",
			Help:      "Sessions ended because they could not be recovered",
		}),
	}
}
