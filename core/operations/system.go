/*
Copyright IBM Corp All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package operations

import (
	"os"

	"github.com/hyperledger/fabric-asset-gateway/common/fabhttp"
	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/common/flogging/httpadmin"
	"github.com/hyperledger/fabric-asset-gateway/common/metadata"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics/disabled"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics/prometheus"
	"github.com/hyperledger/fabric-lib-go/healthz"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsOptions struct {
	Provider string
}

type Options struct {
	fabhttp.Options
	Metrics MetricsOptions
	Version string
}

// System hosts the operational endpoints of the gateway: health, metrics,
// log level administration, and version information.
type System struct {
	*fabhttp.Server
	metrics.Provider

	logger        *flogging.FabricLogger
	healthHandler *healthz.HealthHandler
	options       Options
	versionGauge  metrics.Gauge
}

func NewSystem(o Options) *System {
	logger := flogging.MustGetLogger("operations.runner")
	if o.Logger == nil {
		o.Logger = logger
	}

	s := fabhttp.NewServer(o.Options)

	system := &System{
		Server:  s,
		logger:  logger,
		options: o,
	}

	system.initializeHealthCheckHandler()
	system.initializeLoggingHandler()
	system.initializeMetricsProvider()
	system.initializeVersionInfoHandler()

	return system
}

func (s *System) Start() error {
	s.versionGauge.With("version", s.options.Version).Set(1)

	return s.Server.Start()
}

// Run starts the system as an ifrit process and stops it when signalled.
func (s *System) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	if err := s.Start(); err != nil {
		return err
	}

	close(ready)

	<-signals
	return s.Stop()
}

func (s *System) RegisterChecker(component string, checker healthz.HealthChecker) error {
	return s.healthHandler.RegisterChecker(component, checker)
}

func (s *System) initializeMetricsProvider() {
	m := s.options.Metrics
	providerType := m.Provider
	switch providerType {
	case "prometheus":
		s.Provider = &prometheus.Provider{}
		s.versionGauge = versionGauge(s.Provider)
		s.RegisterHandler("/metrics", promhttp.Handler(), s.options.TLS.Enabled)

	default:
		if providerType != "disabled" {
			s.options.Logger.Warnf("Unknown provider type: %s; metrics disabled", providerType)
		}

		s.Provider = &disabled.Provider{}
		s.versionGauge = versionGauge(s.Provider)
	}
}

func (s *System) initializeLoggingHandler() {
	s.RegisterHandler("/logspec", httpadmin.NewSpecHandler(), s.options.TLS.Enabled)
}

func (s *System) initializeHealthCheckHandler() {
	s.healthHandler = healthz.NewHealthHandler()
	s.RegisterHandler("/healthz", s.healthHandler, false)
}

func (s *System) initializeVersionInfoHandler() {
	versionInfo := &VersionInfoHandler{
		Logger:    s.logger,
		CommitSHA: metadata.CommitSHA,
		Version:   s.options.Version,
	}
	if versionInfo.Version == "" {
		versionInfo.Version = metadata.Version
	}
	s.RegisterHandler("/version", versionInfo, false)
}
