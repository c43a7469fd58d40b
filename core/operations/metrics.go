/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import (
	"sync"

	"github.com/hyperledger/fabric-asset-gateway/common/metrics"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics/prometheus"
)

var (
	gatewayVersion = metrics.GaugeOpts{
		Namespace:  "assetgw",
		Name:       "version",
		Help:       "The active version of the asset gateway.",
		LabelNames: []string{"version"},
	}

	gaugeLock        sync.Mutex
	promVersionGauge metrics.Gauge
)

// The prometheus collector can only be registered once per process.
func versionGauge(provider metrics.Provider) metrics.Gauge {
	switch provider.(type) {
	case *prometheus.Provider:
		gaugeLock.Lock()
		defer gaugeLock.Unlock()
		if promVersionGauge == nil {
			promVersionGauge = provider.NewGauge(gatewayVersion)
		}
		return promVersionGauge

	default:
		return provider.NewGauge(gatewayVersion)
	}
}
