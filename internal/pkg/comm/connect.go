/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import (
	"net"
	"os"
	"strings"

	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
)

var commLogger = flogging.MustGetLogger("comm")

// Connect creates a TLS client connection to a peer endpoint. The trust anchor
// at tlsRootCertPath is the only root accepted and hostAlias is the name
// verified against the peer's certificate. The connection is lazy: the first
// RPC performs the handshake.
func Connect(endpoint, hostAlias, tlsRootCertPath string, config ClientConfig) (*grpc.ClientConn, error) {
	rootCert, err := os.ReadFile(tlsRootCertPath)
	if err != nil {
		return nil, gateway.NewError(gateway.TrustAnchorUnreadable, "connect", errors.Wrapf(err, "failed to read TLS root certificate %s", tlsRootCertPath))
	}

	config.SecOpts.UseTLS = true
	config.SecOpts.ServerRootCAs = [][]byte{rootCert}
	config.SecOpts.ServerNameOverride = hostAlias

	if _, err := config.SecOpts.TLSConfig(); err != nil {
		return nil, gateway.NewError(gateway.TrustAnchorUnreadable, "connect", errors.WithMessagef(err, "invalid TLS root certificate %s", tlsRootCertPath))
	}

	if err := validateEndpoint(endpoint); err != nil {
		return nil, gateway.NewError(gateway.ConnectionError, "connect", err)
	}

	client, err := NewGRPCClient(config)
	if err != nil {
		return nil, gateway.NewError(gateway.ConnectionError, "connect", err)
	}

	conn, err := client.NewConnection(endpoint, ServerNameOverride(hostAlias))
	if err != nil {
		return nil, gateway.NewError(gateway.ConnectionError, "connect", err)
	}

	commLogger.Debugw("Created peer connection", "endpoint", endpoint, "hostAlias", hostAlias)
	return conn, nil
}

// validateEndpoint accepts host:port addresses and targets carrying an
// explicit resolver scheme.
func validateEndpoint(endpoint string) error {
	if strings.Contains(endpoint, "://") || strings.HasPrefix(endpoint, "unix:") {
		return nil
	}
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return errors.Wrapf(err, "invalid peer endpoint '%s'", endpoint)
	}
	if host == "" || port == "" {
		return errors.Errorf("invalid peer endpoint '%s': host and port are required", endpoint)
	}
	return nil
}
