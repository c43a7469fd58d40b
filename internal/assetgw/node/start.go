/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"os"
	"os/signal"
	"time"

	"github.com/hyperledger/fabric-asset-gateway/common/fabhttp"
	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/common/grpclogging"
	"github.com/hyperledger/fabric-asset-gateway/common/grpcmetrics"
	"github.com/hyperledger/fabric-asset-gateway/common/metadata"
	"github.com/hyperledger/fabric-asset-gateway/core/operations"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/asset"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/events"
	"github.com/hyperledger/fabric-asset-gateway/internal/assetgw/rest"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/comm"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/credentials"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway/hash"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/sigmon"
	"google.golang.org/grpc"
)

var logger = flogging.MustGetLogger("assetgw.node")

var configFile string

// Cmd returns the cobra command that starts the gateway.
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Starts the asset gateway.",
		Long:  `Starts the asset gateway and serves the REST API until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return errors.New("trailing args detected")
			}
			// Parsing of the command line is done so silence cmd usage
			cmd.SilenceUsage = true
			return serve()
		},
	}
	addConfigFlag(cmd)
	return cmd
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "path to the configuration file")
}

func serve() error {
	config, err := Load(configFile)
	if err != nil {
		return err
	}

	flogging.Init(flogging.Config{
		Format:  config.Logging.Format,
		LogSpec: config.Logging.Spec,
		Writer:  os.Stderr,
	})

	server, err := NewServer(config)
	if err != nil {
		return err
	}

	handleSignals(addPlatformSignals(map[os.Signal]func(){}))

	logger.Infof("Starting asset gateway version %s for chaincode %s on channel %s", metadata.Version, config.Ledger.Chaincode, config.Ledger.Channel)
	process := ifrit.Invoke(sigmon.New(server))
	return <-process.Wait()
}

// Server assembles the operations system, the peer sessions and the REST API
// of one gateway process.
type Server struct {
	Operations *operations.System
	API        *fabhttp.Server
	Service    *asset.Service
	Sessions   asset.SessionProvider
	Publisher  events.Publisher

	pool *comm.Pool
}

// NewServer wires the components described by config. Nothing listens until
// the server is run.
func NewServer(config *Config) (*Server, error) {
	opsSystem := newOperationsSystem(config)
	metricsProvider := opsSystem.Provider

	sessionConfig, err := newSessionConfig(config, gateway.NewMetrics(metricsProvider), grpcmetrics.NewUnaryMetrics(metricsProvider))
	if err != nil {
		return nil, err
	}

	s := &Server{Operations: opsSystem}

	if config.Ledger.Connection.Pooled {
		s.pool = comm.NewPool(sessionConfig.Dial, comm.PoolOptions{
			MaxConnections: config.Ledger.Connection.MaxConnections,
			IdleTimeout:    config.Ledger.Connection.IdleTimeout,
			DialTimeout:    config.Ledger.Connection.DialTimeout,
			Metrics:        metricsProvider,
			Logger:         flogging.MustGetLogger("comm.pool"),
		})
		cache := credentials.NewCache(credentials.Loader{Selection: sessionConfig.Selection}, 1, config.Ledger.CredentialCacheTTL)
		pooled := asset.NewPooledSessions(sessionConfig, cache, s.pool)
		if err := opsSystem.RegisterChecker("peer", pooled); err != nil {
			return nil, errors.WithMessage(err, "failed to register peer health checker")
		}
		s.Sessions = pooled
	} else {
		s.Sessions = &asset.PerRequestSessions{Config: sessionConfig}
	}

	s.Publisher, err = newPublisher(config.Events)
	if err != nil {
		return nil, err
	}

	s.Service = asset.NewService(
		s.Sessions,
		asset.WithPublisher(s.Publisher),
		asset.WithRetry(gateway.RetryPolicy{
			MaxAttempts:     config.Ledger.Retry.MaxAttempts,
			InitialInterval: config.Ledger.Retry.InitialInterval,
			MaxInterval:     config.Ledger.Retry.MaxInterval,
		}),
	)

	s.API = fabhttp.NewServer(fabhttp.Options{
		Logger:        flogging.MustGetLogger("assetgw.api"),
		ListenAddress: config.API.ListenAddress,
		TLS:           fabhttpTLS(config.API.TLS),
		WriteTimeout:  writeTimeout(config.API.RequestTimeout),
	})
	s.API.RegisterHandler("/", rest.NewHandler(s.Service, rest.Options{
		Logger:         flogging.MustGetLogger("assetgw.rest"),
		Metrics:        metricsProvider,
		RequestTimeout: config.API.RequestTimeout,
		MaxInflight:    config.API.MaxInflight,
		AllowedOrigins: config.API.AllowedOrigins,
		UniformErrors:  config.Compatibility.UniformErrors,
	}), config.API.TLS.ClientAuthRequired)

	return s, nil
}

// Run runs the operations system, the connection pool and the API server as
// an ordered group. Members stop in reverse order.
func (s *Server) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	members := grouper.Members{
		{Name: "operations", Runner: s.Operations},
		{Name: "events", Runner: ifrit.RunFunc(s.closeOnSignal)},
	}
	if s.pool != nil {
		members = append(members, grouper.Member{Name: "pool", Runner: s.pool})
	}
	members = append(members, grouper.Member{Name: "api", Runner: s.API})

	return grouper.NewOrdered(os.Interrupt, members).Run(signals, ready)
}

func (s *Server) closeOnSignal(signals <-chan os.Signal, ready chan<- struct{}) error {
	close(ready)
	<-signals
	if err := s.Sessions.Close(); err != nil {
		logger.Warnf("Failed closing peer sessions: %s", err)
	}
	return s.Publisher.Close()
}

// APIAddr returns the address the API server listens on once started.
func (s *Server) APIAddr() string {
	return s.API.Addr()
}

// writeTimeout leaves room for the error response of a request that ran out
// of time.
func writeTimeout(requestTimeout time.Duration) time.Duration {
	if requestTimeout <= 0 {
		return 0
	}
	return requestTimeout + 5*time.Second
}

func newOperationsSystem(config *Config) *operations.System {
	return operations.NewSystem(operations.Options{
		Options: fabhttp.Options{
			Logger:        flogging.MustGetLogger("assetgw.operations"),
			ListenAddress: config.Operations.ListenAddress,
			TLS:           fabhttpTLS(config.Operations.TLS),
		},
		Metrics: operations.MetricsOptions{
			Provider: config.Operations.Metrics.Provider,
		},
		Version: metadata.Version,
	})
}

func fabhttpTLS(t TLS) fabhttp.TLS {
	return fabhttp.TLS{
		Enabled:            t.Enabled,
		CertFile:           t.Cert,
		KeyFile:            t.Key,
		ClientCertRequired: t.ClientAuthRequired,
		ClientCACertFiles:  t.ClientRootCAs,
	}
}

func newSessionConfig(config *Config, gwMetrics *gateway.Metrics, rpcMetrics *grpcmetrics.UnaryMetrics) (asset.SessionConfig, error) {
	l := config.Ledger

	selection, err := credentials.ParseSelection(l.CredentialSelection)
	if err != nil {
		return asset.SessionConfig{}, err
	}
	h, err := hash.ByName(l.Hash)
	if err != nil {
		return asset.SessionConfig{}, err
	}

	return asset.SessionConfig{
		Channel:       l.Channel,
		Chaincode:     l.Chaincode,
		MspID:         l.MspID,
		PeerEndpoint:  l.PeerEndpoint,
		PeerHostAlias: l.PeerHostAlias,
		TLSRootCert:   l.TLSRootCert,
		CertPath:      l.Signcerts,
		KeyPath:       l.Keystore,
		Selection:     selection,
		Client: comm.ClientConfig{
			KaOpts:         comm.DefaultKeepaliveOptions,
			MaxRecvMsgSize: comm.DefaultMaxRecvMsgSize,
			MaxSendMsgSize: comm.DefaultMaxSendMsgSize,
			Interceptors: []grpc.UnaryClientInterceptor{
				grpclogging.UnaryClientInterceptor(flogging.MustGetLogger("comm.grpc.client").Zap()),
				grpcmetrics.UnaryClientInterceptor(rpcMetrics),
			},
		},
		Options: []gateway.ConnectOption{
			gateway.WithHash(h),
			gateway.WithEvaluateTimeout(l.Timeouts.Evaluate),
			gateway.WithEndorseTimeout(l.Timeouts.Endorse),
			gateway.WithSubmitTimeout(l.Timeouts.Submit),
			gateway.WithCommitStatusTimeout(l.Timeouts.CommitStatus),
			gateway.WithMetrics(gwMetrics),
		},
	}, nil
}

func newPublisher(config Events) (events.Publisher, error) {
	if !config.Kafka.Enabled {
		return events.Noop{}, nil
	}
	publisher, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: config.Kafka.Brokers,
		Topic:   config.Kafka.Topic,
		Version: config.Kafka.Version,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create commit event publisher")
	}
	return publisher, nil
}

func handleSignals(handlers map[os.Signal]func()) {
	if len(handlers) == 0 {
		return
	}

	var signals []os.Signal
	for sig := range handlers {
		signals = append(signals, sig)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, signals...)

	go func() {
		for sig := range signalChan {
			logger.Infof("Received signal: %d (%s)", sig, sig)
			handlers[sig]()
		}
	}()
}
