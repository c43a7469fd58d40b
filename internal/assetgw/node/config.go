/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/common/viperutil"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/comm"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/credentials"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway/hash"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// Prefix is the prefix of environment variables that override
	// configuration keys, e.g. ASSETGW_LEDGER_PEERENDPOINT.
	Prefix = "ASSETGW"
	// ConfigName is the base name of the configuration file.
	ConfigName = "assetgw"
)

// Config is the top level configuration of the asset gateway.
type Config struct {
	API           API           `yaml:"api"`
	Operations    Operations    `yaml:"operations"`
	Logging       Logging       `yaml:"logging"`
	Ledger        Ledger        `yaml:"ledger"`
	Events        Events        `yaml:"events"`
	Compatibility Compatibility `yaml:"compatibility"`
}

type TLS struct {
	Enabled            bool     `yaml:"enabled"`
	Cert               string   `yaml:"cert"`
	Key                string   `yaml:"key"`
	ClientAuthRequired bool     `yaml:"clientAuthRequired"`
	ClientRootCAs      []string `yaml:"clientRootCAs"`
}

// API configures the REST listener.
type API struct {
	ListenAddress  string        `yaml:"listenAddress"`
	TLS            TLS           `yaml:"tls"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MaxInflight    int           `yaml:"maxInflight"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// Operations configures the health, metrics and log level endpoints.
type Operations struct {
	ListenAddress string  `yaml:"listenAddress"`
	TLS           TLS     `yaml:"tls"`
	Metrics       Metrics `yaml:"metrics"`
}

type Metrics struct {
	Provider string `yaml:"provider"`
}

type Logging struct {
	Spec   string `yaml:"spec"`
	Format string `yaml:"format"`
}

// Ledger locates the peer, the chaincode and the user credentials.
type Ledger struct {
	Channel             string        `yaml:"channel"`
	Chaincode           string        `yaml:"chaincode"`
	MspID               string        `yaml:"mspID"`
	PeerEndpoint        string        `yaml:"peerEndpoint"`
	PeerHostAlias       string        `yaml:"peerHostAlias"`
	TLSRootCert         string        `yaml:"tlsRootCert"`
	Keystore            string        `yaml:"keystore"`
	Signcerts           string        `yaml:"signcerts"`
	CredentialSelection string        `yaml:"credentialSelection"`
	Hash                string        `yaml:"hash"`
	Timeouts            Timeouts      `yaml:"timeouts"`
	Connection          Connection    `yaml:"connection"`
	CredentialCacheTTL  time.Duration `yaml:"credentialCacheTTL"`
	Retry               Retry         `yaml:"retry"`
}

type Timeouts struct {
	Evaluate     time.Duration `yaml:"evaluate"`
	Endorse      time.Duration `yaml:"endorse"`
	Submit       time.Duration `yaml:"submit"`
	CommitStatus time.Duration `yaml:"commitStatus"`
}

// Connection selects between a connection per request and a shared pool.
type Connection struct {
	Pooled         bool          `yaml:"pooled"`
	MaxConnections int           `yaml:"maxConnections"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	DialTimeout    time.Duration `yaml:"dialTimeout"`
}

type Retry struct {
	MaxAttempts     int           `yaml:"maxAttempts"`
	InitialInterval time.Duration `yaml:"initialInterval"`
	MaxInterval     time.Duration `yaml:"maxInterval"`
}

type Events struct {
	Kafka Kafka `yaml:"kafka"`
}

type Kafka struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Version string   `yaml:"version"`
}

type Compatibility struct {
	UniformErrors bool `yaml:"uniformErrors"`
}

const cryptoPath = "../../test-network/organizations/peerOrganizations/org1.example.com"

// Defaults carries the values used for keys missing from the configuration
// file and the environment.
var Defaults = Config{
	API: API{
		ListenAddress:  "0.0.0.0:3000",
		RequestTimeout: 2 * time.Minute,
		MaxInflight:    0,
	},
	Operations: Operations{
		ListenAddress: "127.0.0.1:9443",
		Metrics:       Metrics{Provider: "prometheus"},
	},
	Logging: Logging{
		Spec:   "info",
		Format: "console",
	},
	Ledger: Ledger{
		Channel:             "mychannel",
		Chaincode:           "basic",
		MspID:               "Org1MSP",
		PeerEndpoint:        "localhost:7051",
		PeerHostAlias:       "peer0.org1.example.com",
		TLSRootCert:         cryptoPath + "/peers/peer0.org1.example.com/tls/ca.crt",
		Keystore:            cryptoPath + "/users/User1@org1.example.com/msp/keystore",
		Signcerts:           cryptoPath + "/users/User1@org1.example.com/msp/signcerts",
		CredentialSelection: "first",
		Hash:                "SHA256",
		Timeouts: Timeouts{
			Evaluate:     gateway.DefaultEvaluateTimeout,
			Endorse:      gateway.DefaultEndorseTimeout,
			Submit:       gateway.DefaultSubmitTimeout,
			CommitStatus: gateway.DefaultCommitStatusTimeout,
		},
		Connection: Connection{
			Pooled:         false,
			MaxConnections: 10,
			IdleTimeout:    5 * time.Minute,
			DialTimeout:    comm.DefaultConnectionTimeout,
		},
		CredentialCacheTTL: time.Hour,
		Retry: Retry{
			MaxAttempts:     1,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     2 * time.Second,
		},
	},
	Events: Events{
		Kafka: Kafka{
			Topic:   "asset-events",
			Version: "1.0.0",
		},
	},
}

// Load reads the configuration from configFile, or from assetgw.yaml on the
// config search path when configFile is empty. A missing file on the search
// path is not an error; the defaults and the environment are used instead.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	viperutil.InitViper(v, ConfigName, configFile)
	v.SetEnvPrefix(Prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	baseDir := "."
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, errors.Wrapf(err, "error reading configuration from %s", v.ConfigFileUsed())
		}
		logger.Warnf("No %s.yaml found on the config path, using defaults", ConfigName)
	} else {
		baseDir = filepath.Dir(v.ConfigFileUsed())
		logger.Infof("Loaded configuration from %s", v.ConfigFileUsed())
	}

	var config Config
	if err := viperutil.EnhancedExactUnmarshal(v, &config); err != nil {
		return nil, errors.WithMessage(err, "error unmarshalling config into struct")
	}

	if err := config.completeInitialization(baseDir); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults
	v.SetDefault("api.listenAddress", d.API.ListenAddress)
	v.SetDefault("api.tls.enabled", d.API.TLS.Enabled)
	v.SetDefault("api.tls.cert", d.API.TLS.Cert)
	v.SetDefault("api.tls.key", d.API.TLS.Key)
	v.SetDefault("api.tls.clientAuthRequired", d.API.TLS.ClientAuthRequired)
	v.SetDefault("api.tls.clientRootCAs", d.API.TLS.ClientRootCAs)
	v.SetDefault("api.requestTimeout", d.API.RequestTimeout)
	v.SetDefault("api.maxInflight", d.API.MaxInflight)
	v.SetDefault("api.allowedOrigins", d.API.AllowedOrigins)
	v.SetDefault("operations.listenAddress", d.Operations.ListenAddress)
	v.SetDefault("operations.tls.enabled", d.Operations.TLS.Enabled)
	v.SetDefault("operations.tls.cert", d.Operations.TLS.Cert)
	v.SetDefault("operations.tls.key", d.Operations.TLS.Key)
	v.SetDefault("operations.tls.clientAuthRequired", d.Operations.TLS.ClientAuthRequired)
	v.SetDefault("operations.tls.clientRootCAs", d.Operations.TLS.ClientRootCAs)
	v.SetDefault("operations.metrics.provider", d.Operations.Metrics.Provider)
	v.SetDefault("logging.spec", d.Logging.Spec)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("ledger.channel", d.Ledger.Channel)
	v.SetDefault("ledger.chaincode", d.Ledger.Chaincode)
	v.SetDefault("ledger.mspID", d.Ledger.MspID)
	v.SetDefault("ledger.peerEndpoint", d.Ledger.PeerEndpoint)
	v.SetDefault("ledger.peerHostAlias", d.Ledger.PeerHostAlias)
	v.SetDefault("ledger.tlsRootCert", d.Ledger.TLSRootCert)
	v.SetDefault("ledger.keystore", d.Ledger.Keystore)
	v.SetDefault("ledger.signcerts", d.Ledger.Signcerts)
	v.SetDefault("ledger.credentialSelection", d.Ledger.CredentialSelection)
	v.SetDefault("ledger.hash", d.Ledger.Hash)
	v.SetDefault("ledger.timeouts.evaluate", d.Ledger.Timeouts.Evaluate)
	v.SetDefault("ledger.timeouts.endorse", d.Ledger.Timeouts.Endorse)
	v.SetDefault("ledger.timeouts.submit", d.Ledger.Timeouts.Submit)
	v.SetDefault("ledger.timeouts.commitStatus", d.Ledger.Timeouts.CommitStatus)
	v.SetDefault("ledger.connection.pooled", d.Ledger.Connection.Pooled)
	v.SetDefault("ledger.connection.maxConnections", d.Ledger.Connection.MaxConnections)
	v.SetDefault("ledger.connection.idleTimeout", d.Ledger.Connection.IdleTimeout)
	v.SetDefault("ledger.connection.dialTimeout", d.Ledger.Connection.DialTimeout)
	v.SetDefault("ledger.credentialCacheTTL", d.Ledger.CredentialCacheTTL)
	v.SetDefault("ledger.retry.maxAttempts", d.Ledger.Retry.MaxAttempts)
	v.SetDefault("ledger.retry.initialInterval", d.Ledger.Retry.InitialInterval)
	v.SetDefault("ledger.retry.maxInterval", d.Ledger.Retry.MaxInterval)
	v.SetDefault("events.kafka.enabled", d.Events.Kafka.Enabled)
	v.SetDefault("events.kafka.brokers", d.Events.Kafka.Brokers)
	v.SetDefault("events.kafka.topic", d.Events.Kafka.Topic)
	v.SetDefault("events.kafka.version", d.Events.Kafka.Version)
	v.SetDefault("compatibility.uniformErrors", d.Compatibility.UniformErrors)
}

func (c *Config) completeInitialization(baseDir string) error {
	for _, p := range []*string{
		&c.Ledger.TLSRootCert,
		&c.Ledger.Keystore,
		&c.Ledger.Signcerts,
		&c.API.TLS.Cert,
		&c.API.TLS.Key,
		&c.Operations.TLS.Cert,
		&c.Operations.TLS.Key,
	} {
		translatePathInPlace(baseDir, p)
	}
	for _, paths := range [][]string{c.API.TLS.ClientRootCAs, c.Operations.TLS.ClientRootCAs} {
		for i := range paths {
			translatePathInPlace(baseDir, &paths[i])
		}
	}

	if _, err := credentials.ParseSelection(c.Ledger.CredentialSelection); err != nil {
		return errors.WithMessage(err, "invalid ledger.credentialSelection")
	}
	if _, err := hash.ByName(c.Ledger.Hash); err != nil {
		return errors.WithMessage(err, "invalid ledger.hash")
	}
	if c.API.MaxInflight < 0 {
		return errors.Errorf("invalid api.maxInflight %d: must not be negative", c.API.MaxInflight)
	}
	for _, t := range []struct {
		name  string
		value *time.Duration
		def   time.Duration
	}{
		{"ledger.timeouts.evaluate", &c.Ledger.Timeouts.Evaluate, Defaults.Ledger.Timeouts.Evaluate},
		{"ledger.timeouts.endorse", &c.Ledger.Timeouts.Endorse, Defaults.Ledger.Timeouts.Endorse},
		{"ledger.timeouts.submit", &c.Ledger.Timeouts.Submit, Defaults.Ledger.Timeouts.Submit},
		{"ledger.timeouts.commitStatus", &c.Ledger.Timeouts.CommitStatus, Defaults.Ledger.Timeouts.CommitStatus},
		{"ledger.connection.dialTimeout", &c.Ledger.Connection.DialTimeout, Defaults.Ledger.Connection.DialTimeout},
	} {
		if err := defaultDuration(t.name, t.value, t.def); err != nil {
			return err
		}
	}
	if c.Ledger.Connection.IdleTimeout < 0 {
		return errors.Errorf("invalid ledger.connection.idleTimeout %s: must not be negative", c.Ledger.Connection.IdleTimeout)
	}
	if c.Ledger.Connection.Pooled && c.Ledger.Connection.MaxConnections <= 0 {
		logger.Infof("ledger.connection.maxConnections unset, setting to %d", Defaults.Ledger.Connection.MaxConnections)
		c.Ledger.Connection.MaxConnections = Defaults.Ledger.Connection.MaxConnections
	}
	if c.Events.Kafka.Enabled && len(c.Events.Kafka.Brokers) == 0 {
		return errors.New("events.kafka.brokers is required when Kafka events are enabled")
	}
	if c.Logging.Spec != "" {
		if err := (&flogging.LoggerLevels{}).ActivateSpec(c.Logging.Spec); err != nil {
			return errors.WithMessage(err, "invalid logging.spec")
		}
	}
	return nil
}

// defaultDuration replaces a zero duration with def. Negative durations are
// rejected.
func defaultDuration(name string, d *time.Duration, def time.Duration) error {
	switch {
	case *d < 0:
		return errors.Errorf("invalid %s %s: must not be negative", name, *d)
	case *d == 0:
		logger.Infof("%s unset, setting to %s", name, def)
		*d = def
	}
	return nil
}

// translatePathInPlace resolves a relative path against the directory of the
// configuration file.
func translatePathInPlace(base string, p *string) {
	if *p == "" || filepath.IsAbs(*p) {
		return
	}
	*p = filepath.Join(base, *p)
}
