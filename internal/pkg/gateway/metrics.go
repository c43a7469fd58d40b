/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import "github.com/hyperledger/fabric-asset-gateway/common/metrics"

var (
	transactionsTotal = metrics.CounterOpts{
		Namespace:  "assetgw",
		Subsystem:  "ledger",
		Name:       "transactions_total",
		Help:       "The number of transactions invoked, by the state they finished in.",
		LabelNames: []string{"function", "mode", "state"},
	}
	invocationDuration = metrics.HistogramOpts{
		Namespace:  "assetgw",
		Subsystem:  "ledger",
		Name:       "invocation_duration",
		Help:       "The time taken to evaluate or submit a transaction.",
		LabelNames: []string{"function", "mode"},
		Buckets:    []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}
)

type Metrics struct {
	TransactionsTotal  metrics.Counter
	InvocationDuration metrics.Histogram
}

func NewMetrics(p metrics.Provider) *Metrics {
	return &Metrics{
		TransactionsTotal:  p.NewCounter(transactionsTotal),
		InvocationDuration: p.NewHistogram(invocationDuration),
	}
}
