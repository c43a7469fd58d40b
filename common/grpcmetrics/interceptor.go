/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package grpcmetrics

import (
	"context"
	"strings"
	"time"

	"github.com/hyperledger/fabric-asset-gateway/common/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	clientRequestDuration = metrics.HistogramOpts{
		Namespace:  "grpc",
		Subsystem:  "client",
		Name:       "unary_request_duration",
		Help:       "The time to complete a unary request issued by the gateway client.",
		LabelNames: []string{"service", "method", "code"},
		Buckets:    []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}
	clientRequestsSent = metrics.CounterOpts{
		Namespace:  "grpc",
		Subsystem:  "client",
		Name:       "unary_requests_sent",
		Help:       "The number of unary requests sent.",
		LabelNames: []string{"service", "method"},
	}
	clientRequestsCompleted = metrics.CounterOpts{
		Namespace:  "grpc",
		Subsystem:  "client",
		Name:       "unary_requests_completed",
		Help:       "The number of unary requests completed.",
		LabelNames: []string{"service", "method", "code"},
	}
)

type UnaryMetrics struct {
	RequestDuration   metrics.Histogram
	RequestsSent      metrics.Counter
	RequestsCompleted metrics.Counter
}

func NewUnaryMetrics(p metrics.Provider) *UnaryMetrics {
	return &UnaryMetrics{
		RequestDuration:   p.NewHistogram(clientRequestDuration),
		RequestsSent:      p.NewCounter(clientRequestsSent),
		RequestsCompleted: p.NewCounter(clientRequestsCompleted),
	}
}

func UnaryClientInterceptor(um *UnaryMetrics) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, fullMethod string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		service, method := serviceMethod(fullMethod)
		um.RequestsSent.With("service", service, "method", method).Add(1)

		startTime := time.Now()
		err := invoker(ctx, fullMethod, req, reply, cc, opts...)
		st, _ := status.FromError(err)
		duration := time.Since(startTime)

		um.RequestDuration.With(
			"service", service, "method", method, "code", st.Code().String(),
		).Observe(duration.Seconds())
		um.RequestsCompleted.With("service", service, "method", method, "code", st.Code().String()).Add(1)

		return err
	}
}

func serviceMethod(fullMethod string) (service, method string) {
	normalizedMethod := strings.Replace(fullMethod, ".", "_", -1)
	parts := strings.SplitN(normalizedMethod, "/", -1)
	if len(parts) != 3 {
		return "unknown", "unknown"
	}
	return parts[1], parts[2]
}
