package jsonrpc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	ethconnector "github.com/branched-services/go-ethconnector"
)

// Request outcomes used as the "outcome" label.
const (
	outcomeOK        = "ok"
	outcomeRPCError  = "rpc_error"
	outcomeContract  = "contract_error"
	outcomeTransport = "transport_error"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newMetrics creates the client collectors and registers them on reg.
// A nil reg leaves them unregistered. Collectors already registered by
// another Client are reused.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ethconnector",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Contract requests submitted over JSON-RPC.",
		}, []string{"method", "kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ethconnector",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Latency of contract requests including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		return m, nil
	}

	if err := reg.Register(m.requests); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		m.requests = existing
	}
	if err := reg.Register(m.duration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		m.duration = existing
	}
	return m, nil
}

// observe records one finished request.
func (m *metrics) observe(inv ethconnector.Invocation, err error, elapsed time.Duration) {
	m.requests.WithLabelValues(inv.Method, inv.Kind.String(), outcomeOf(err)).Inc()
	m.duration.WithLabelValues(inv.Kind.String()).Observe(elapsed.Seconds())
}

func outcomeOf(err error) string {
	var (
		rpcErr  *RPCError
		viewErr *ViewError
		execErr *ExecutionError
	)
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &rpcErr):
		return outcomeRPCError
	case errors.As(err, &viewErr), errors.As(err, &execErr):
		return outcomeContract
	default:
		return outcomeTransport
	}
}
