package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// RPC latency here includes the gateway round trip, so the buckets run
// well past the default 10s ceiling.
var rpcDurationBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30}

var (
	rpcHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payin_rpc_handled_total",
			Help: "Completed payin RPCs by method and final gRPC code",
		},
		[]string{"method", "code"},
	)

	rpcDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payin_rpc_duration_seconds",
			Help:    "End-to-end payin RPC latency, gateway calls included",
			Buckets: rpcDurationBuckets,
		},
		[]string{"method"},
	)

	rpcInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payin_rpc_in_flight",
			Help: "Payin RPCs currently being handled",
		},
	)
)

// UnaryServerInterceptor records per-method RPC metrics.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		rpcInFlight.Inc()
		start := time.Now()

		resp, err := handler(ctx, req)

		rpcInFlight.Dec()
		recordRPC(info.FullMethod, err, time.Since(start))
		return resp, err
	}
}

func recordRPC(method string, err error, elapsed time.Duration) {
	code := "OK"
	if err != nil {
		st, _ := status.FromError(err)
		code = st.Code().String()
	}
	rpcHandled.WithLabelValues(method, code).Inc()
	rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
