package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OAuth flow metrics. Defined in a standalone package so the flow, the HTTP
// layer and the CLI can share them without import cycles.

var (
	FlowOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_flow_operations_total",
		Help: "Operaciones del flujo OAuth2 por proveedor, operación y resultado",
	}, []string{"provider", "op", "result"})

	FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oauth_fetch_duration_seconds",
		Help:    "Latencia de las llamadas a los endpoints del proveedor",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "endpoint"})

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "oauth_rate_limited_total",
		Help: "Requests rechazadas por el rate limiter",
	}, []string{"path"})
)

// Flow operation results.
const (
	ResultRedirect      = "redirect"
	ResultAuthorized    = "authorized"
	ResultUnauthorized  = "unauthorized"
	ResultParseError    = "parse_error"
	ResultProviderError = "provider_error"
	ResultNetworkError  = "network_error"
	ResultNoop          = "noop"
)

// RegisterOAuth registers the flow metrics on the given registry (or default if nil).
func RegisterOAuth(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{FlowOperations, FetchDuration, RateLimited} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
