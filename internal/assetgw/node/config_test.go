/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package node

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "assetgw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ASSETGW_CFG_PATH", t.TempDir())

	config, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:3000", config.API.ListenAddress)
	require.Equal(t, "mychannel", config.Ledger.Channel)
	require.Equal(t, "basic", config.Ledger.Chaincode)
	require.Equal(t, "Org1MSP", config.Ledger.MspID)
	require.Equal(t, "localhost:7051", config.Ledger.PeerEndpoint)
	require.Equal(t, "peer0.org1.example.com", config.Ledger.PeerHostAlias)
	require.Equal(t, Defaults.Ledger.Keystore, config.Ledger.Keystore)
	require.Equal(t, 15*time.Second, config.Ledger.Timeouts.Endorse)
	require.Equal(t, time.Minute, config.Ledger.Timeouts.CommitStatus)
	require.False(t, config.Ledger.Connection.Pooled)
	require.Equal(t, "prometheus", config.Operations.Metrics.Provider)
	require.False(t, config.Compatibility.UniformErrors)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `---
api:
  listenAddress: 127.0.0.1:8080
  allowedOrigins: ["https://example.com"]
ledger:
  channel: assets
  tlsRootCert: crypto/ca.crt
  keystore: /etc/keys
  timeouts:
    evaluate: 2s
  connection:
    pooled: true
compatibility:
  uniformErrors: true
`)

	config, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8080", config.API.ListenAddress)
	require.Equal(t, []string{"https://example.com"}, config.API.AllowedOrigins)
	require.Equal(t, "assets", config.Ledger.Channel)
	require.Equal(t, "basic", config.Ledger.Chaincode)
	require.Equal(t, filepath.Join(filepath.Dir(path), "crypto", "ca.crt"), config.Ledger.TLSRootCert)
	require.Equal(t, "/etc/keys", config.Ledger.Keystore)
	require.Equal(t, 2*time.Second, config.Ledger.Timeouts.Evaluate)
	require.Equal(t, 5*time.Second, config.Ledger.Timeouts.Submit)
	require.True(t, config.Ledger.Connection.Pooled)
	require.Equal(t, 10, config.Ledger.Connection.MaxConnections)
	require.True(t, config.Compatibility.UniformErrors)
}

func TestLoadFromConfigPath(t *testing.T) {
	path := writeConfig(t, "ledger:\n  chaincode: events\n")
	t.Setenv("ASSETGW_CFG_PATH", filepath.Dir(path))

	config, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "events", config.Ledger.Chaincode)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "ledger:\n  peerEndpoint: peer0:7051\n")
	t.Setenv("ASSETGW_LEDGER_PEERENDPOINT", "peer1:9051")
	t.Setenv("ASSETGW_LEDGER_RETRY_MAXATTEMPTS", "3")
	t.Setenv("ASSETGW_EVENTS_KAFKA_ENABLED", "true")
	t.Setenv("ASSETGW_EVENTS_KAFKA_BROKERS", "[kafka0:9092, kafka1:9092]")

	config, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "peer1:9051", config.Ledger.PeerEndpoint)
	require.Equal(t, 3, config.Ledger.Retry.MaxAttempts)
	require.True(t, config.Events.Kafka.Enabled)
	require.Equal(t, []string{"kafka0:9092", "kafka1:9092"}, config.Events.Kafka.Brokers)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		errMsg   string
	}{
		{
			name:     "unknown key",
			contents: "ledger:\n  bogus: true\n",
			errMsg:   "bogus",
		},
		{
			name:     "credential selection",
			contents: "ledger:\n  credentialSelection: random\n",
			errMsg:   "invalid ledger.credentialSelection: unknown credential selection 'random'",
		},
		{
			name:     "hash",
			contents: "ledger:\n  hash: MD5\n",
			errMsg:   "invalid ledger.hash: unsupported hash function: MD5",
		},
		{
			name:     "negative inflight limit",
			contents: "api:\n  maxInflight: -1\n",
			errMsg:   "invalid api.maxInflight -1: must not be negative",
		},
		{
			name:     "kafka without brokers",
			contents: "events:\n  kafka:\n    enabled: true\n",
			errMsg:   "events.kafka.brokers is required when Kafka events are enabled",
		},
		{
			name:     "negative phase timeout",
			contents: "ledger:\n  timeouts:\n    submit: -1s\n",
			errMsg:   "invalid ledger.timeouts.submit -1s: must not be negative",
		},
		{
			name:     "negative idle timeout",
			contents: "ledger:\n  connection:\n    idleTimeout: -5m\n",
			errMsg:   "invalid ledger.connection.idleTimeout -5m0s: must not be negative",
		},
		{
			name:     "logging spec",
			contents: "logging:\n  spec: chatty\n",
			errMsg:   "invalid logging.spec: invalid logging specification 'chatty': bad segment 'chatty'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			require.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestLoadZeroTimeoutsUseDefaults(t *testing.T) {
	config, err := Load(writeConfig(t, `
ledger:
  timeouts:
    evaluate: 0s
    commitStatus: 0s
  connection:
    dialTimeout: 0s
`))
	require.NoError(t, err)
	require.Equal(t, Defaults.Ledger.Timeouts.Evaluate, config.Ledger.Timeouts.Evaluate)
	require.Equal(t, Defaults.Ledger.Timeouts.CommitStatus, config.Ledger.Timeouts.CommitStatus)
	require.Equal(t, Defaults.Ledger.Connection.DialTimeout, config.Ledger.Connection.DialTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "error reading configuration from")
}

func TestTranslatePathInPlace(t *testing.T) {
	p := "tls/ca.crt"
	translatePathInPlace("/etc/assetgw", &p)
	require.Equal(t, "/etc/assetgw/tls/ca.crt", p)

	p = "/abs/ca.crt"
	translatePathInPlace("/etc/assetgw", &p)
	require.Equal(t, "/abs/ca.crt", p)

	p = ""
	translatePathInPlace("/etc/assetgw", &p)
	require.Equal(t, "", p)
}
