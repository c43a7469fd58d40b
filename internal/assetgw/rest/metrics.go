/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import "github.com/hyperledger/fabric-asset-gateway/common/metrics"

var (
	requestsTotalOpts = metrics.CounterOpts{
		Namespace:  "assetgw",
		Subsystem:  "api",
		Name:       "requests_total",
		Help:       "The number of API requests handled.",
		LabelNames: []string{"route", "code"},
	}
	requestDurationOpts = metrics.HistogramOpts{
		Namespace:  "assetgw",
		Subsystem:  "api",
		Name:       "request_duration",
		Help:       "The time to handle an API request in seconds.",
		LabelNames: []string{"route"},
		Buckets:    []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}
)

type Metrics struct {
	RequestsTotal   metrics.Counter
	RequestDuration metrics.Histogram
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		RequestsTotal:   p.NewCounter(requestsTotalOpts),
		RequestDuration: p.NewHistogram(requestDurationOpts),
	}
}
