/*
Copyright 2021 IBM All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package gateway

import (
	"sync/atomic"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics/disabled"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway/hash"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/identity"
	gp "github.com/hyperledger/fabric-protos-go/gateway"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
)

var logger = flogging.MustGetLogger("gateway")

const (
	DefaultEvaluateTimeout     = 5 * time.Second
	DefaultEndorseTimeout      = 15 * time.Second
	DefaultSubmitTimeout       = 5 * time.Second
	DefaultCommitStatusTimeout = time.Minute
)

// Options holds the per-phase deadlines applied to the Gateway RPCs. A caller
// context with an earlier deadline always wins.
type Options struct {
	EvaluateTimeout     time.Duration
	EndorseTimeout      time.Duration
	SubmitTimeout       time.Duration
	CommitStatusTimeout time.Duration
}

// Gateway binds a connection to a peer with the identity and signer used to
// transact through it.
type Gateway struct {
	client  gp.GatewayClient
	id      identity.Identity
	creator []byte
	sign    identity.Sign
	hash    hash.Hash
	signer  identity.SignerSerializer
	options Options
	metrics *Metrics
	clock   clock.Clock
	closed  int32
}

// ConnectOption configures a Gateway.
type ConnectOption func(*Gateway) error

// WithSign sets the function used to sign proposals, transactions and
// commit status requests.
func WithSign(sign identity.Sign) ConnectOption {
	return func(gw *Gateway) error {
		gw.sign = sign
		return nil
	}
}

// WithHash sets the function used to digest messages before signing. The
// default is SHA256.
func WithHash(h hash.Hash) ConnectOption {
	return func(gw *Gateway) error {
		if h == nil {
			return errors.New("hash function must not be nil")
		}
		gw.hash = h
		return nil
	}
}

func WithEvaluateTimeout(timeout time.Duration) ConnectOption {
	return func(gw *Gateway) error {
		gw.options.EvaluateTimeout = timeout
		return nil
	}
}

func WithEndorseTimeout(timeout time.Duration) ConnectOption {
	return func(gw *Gateway) error {
		gw.options.EndorseTimeout = timeout
		return nil
	}
}

func WithSubmitTimeout(timeout time.Duration) ConnectOption {
	return func(gw *Gateway) error {
		gw.options.SubmitTimeout = timeout
		return nil
	}
}

func WithCommitStatusTimeout(timeout time.Duration) ConnectOption {
	return func(gw *Gateway) error {
		gw.options.CommitStatusTimeout = timeout
		return nil
	}
}

// WithMetrics records transaction outcomes with m.
func WithMetrics(m *Metrics) ConnectOption {
	return func(gw *Gateway) error {
		gw.metrics = m
		return nil
	}
}

// WithClock replaces the clock used for retry backoff.
func WithClock(c clock.Clock) ConnectOption {
	return func(gw *Gateway) error {
		gw.clock = c
		return nil
	}
}

// Connect creates a Gateway for id over conn. No network calls are made; the
// connection is owned by the caller and is not closed by the Gateway.
func Connect(conn *grpc.ClientConn, id identity.Identity, opts ...ConnectOption) (*Gateway, error) {
	if conn == nil {
		return nil, NewError(ConnectionError, "connect", errors.New("a gRPC connection is required"))
	}
	if id == nil {
		return nil, NewError(CredentialNotFound, "connect", errors.New("an identity is required"))
	}

	creator, err := identity.Serialize(id)
	if err != nil {
		return nil, NewError(Unknown, "connect", errors.WithMessage(err, "failed to serialize identity"))
	}

	gw := &Gateway{
		client:  gp.NewGatewayClient(conn),
		id:      id,
		creator: creator,
		hash:    hash.SHA256,
		options: Options{
			EvaluateTimeout:     DefaultEvaluateTimeout,
			EndorseTimeout:      DefaultEndorseTimeout,
			SubmitTimeout:       DefaultSubmitTimeout,
			CommitStatusTimeout: DefaultCommitStatusTimeout,
		},
		metrics: NewMetrics(&disabled.Provider{}),
		clock:   clock.NewClock(),
	}
	for _, opt := range opts {
		if err := opt(gw); err != nil {
			return nil, err
		}
	}
	if gw.sign != nil {
		gw.signer = identity.NewSigningIdentity(id, gw.sign, gw.hash)
	}

	return gw, nil
}

// Identity returns the identity transactions are created for.
func (gw *Gateway) Identity() identity.Identity {
	return gw.id
}

// Signer returns the identity used to sign messages, or nil when no signing
// implementation was supplied.
func (gw *Gateway) Signer() identity.SignerSerializer {
	return gw.signer
}

// Options returns the deadlines in effect.
func (gw *Gateway) Options() Options {
	return gw.options
}

// GetNetwork returns the Network for a channel.
func (gw *Gateway) GetNetwork(channel string) *Network {
	return &Network{gateway: gw, name: channel}
}

// Close marks the Gateway as closed. The underlying connection is left open.
func (gw *Gateway) Close() error {
	atomic.StoreInt32(&gw.closed, 1)
	return nil
}

func (gw *Gateway) isClosed() bool {
	return atomic.LoadInt32(&gw.closed) == 1
}

func (gw *Gateway) signDigest(message []byte) ([]byte, error) {
	if gw.signer == nil {
		return nil, errors.New("no signing implementation supplied")
	}
	return gw.signer.Sign(message)
}

// Network is a channel reached through a Gateway.
type Network struct {
	gateway *Gateway
	name    string
}

func (n *Network) Name() string { return n.name }

// GetContract returns the Contract for a chaincode deployed on the channel.
func (n *Network) GetContract(chaincode string) *Contract {
	return &Contract{gateway: n.gateway, channel: n.name, chaincode: chaincode}
}
