/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package asset

import (
	"context"
	"sync"

	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/comm"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/credentials"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SessionConfig locates the peer, the chaincode and the credentials used to
// sign transactions.
type SessionConfig struct {
	Channel       string
	Chaincode     string
	MspID         string
	PeerEndpoint  string
	PeerHostAlias string
	TLSRootCert   string
	// CertPath and KeyPath name a file or a directory of candidates.
	CertPath  string
	KeyPath   string
	Selection credentials.Selection
	Client    comm.ClientConfig
	// Options are applied to every gateway after the signer.
	Options []gateway.ConnectOption
}

// Dial opens a connection to the configured peer endpoint.
func (c SessionConfig) Dial(endpoint string) (*grpc.ClientConn, error) {
	return comm.Connect(endpoint, c.PeerHostAlias, c.TLSRootCert, c.Client)
}

func (c SessionConfig) source() credentials.Source {
	return credentials.Source{MspID: c.MspID, CertPath: c.CertPath, KeyPath: c.KeyPath}
}

func (c SessionConfig) connect(conn *grpc.ClientConn, creds *credentials.Credentials) (*gateway.Gateway, error) {
	opts := append([]gateway.ConnectOption{gateway.WithSign(creds.Sign)}, c.Options...)
	return gateway.Connect(conn, creds.Identity, opts...)
}

// Session is a contract bound to a gateway connection for the duration of
// one request.
type Session struct {
	Contract *gateway.Contract

	once    sync.Once
	release func(err error)
}

// NewSession creates a session for contract. release, if not nil, is called
// once by Done.
func NewSession(contract *gateway.Contract, release func(err error)) *Session {
	return &Session{Contract: contract, release: release}
}

// Done releases the resources held by the session. err is the outcome of the
// work done with it and decides whether a pooled connection is reused.
func (s *Session) Done(err error) {
	s.once.Do(func() {
		if s.release != nil {
			s.release(err)
		}
	})
}

//go:generate counterfeiter -o fakes/session_provider.go -fake-name SessionProvider . SessionProvider

// SessionProvider hands out sessions to request handlers.
type SessionProvider interface {
	Session(ctx context.Context) (*Session, error)
	Close() error
}

// PerRequestSessions loads credentials and opens a new connection for every
// session, and closes the connection when the session is done.
type PerRequestSessions struct {
	Config SessionConfig
}

func (p *PerRequestSessions) Session(ctx context.Context) (*Session, error) {
	loader := credentials.Loader{Selection: p.Config.Selection}
	id, err := loader.LoadIdentity(p.Config.CertPath, p.Config.MspID)
	if err != nil {
		return nil, err
	}
	sign, err := loader.LoadSigner(p.Config.KeyPath)
	if err != nil {
		return nil, err
	}

	conn, err := p.Config.Dial(p.Config.PeerEndpoint)
	if err != nil {
		return nil, err
	}

	gw, err := p.Config.connect(conn, &credentials.Credentials{Identity: id, Sign: sign})
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Session{
		Contract: gw.GetNetwork(p.Config.Channel).GetContract(p.Config.Chaincode),
		release: func(error) {
			gw.Close()
			if err := conn.Close(); err != nil {
				logger.Debugf("Failed to close peer connection: %s", err)
			}
		},
	}, nil
}

func (p *PerRequestSessions) Close() error { return nil }

// PooledSessions serves sessions from cached credentials and a pool of peer
// connections.
type PooledSessions struct {
	config SessionConfig
	cache  *credentials.Cache
	pool   *comm.Pool
}

// NewPooledSessions creates a provider drawing on cache and pool. The pool
// dials with config.Dial.
func NewPooledSessions(config SessionConfig, cache *credentials.Cache, pool *comm.Pool) *PooledSessions {
	return &PooledSessions{config: config, cache: cache, pool: pool}
}

func (p *PooledSessions) Session(ctx context.Context) (*Session, error) {
	creds, err := p.cache.Get(p.config.source())
	if err != nil {
		return nil, err
	}

	conn, err := p.pool.Get(ctx, p.config.PeerEndpoint)
	if err != nil {
		return nil, err
	}

	gw, err := p.config.connect(conn.ClientConn, creds)
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &Session{
		Contract: gw.GetNetwork(p.config.Channel).GetContract(p.config.Chaincode),
		release: func(err error) {
			gw.Close()
			if connectionFailed(err) {
				logger.Debugf("Discarding peer connection after failure: %s", err)
				conn.Discard()
				return
			}
			conn.Release()
		},
	}, nil
}

// Close closes the idle connections of the pool.
func (p *PooledSessions) Close() error {
	p.pool.Close()
	return nil
}

// HealthCheck reports the health of the connection pool.
func (p *PooledSessions) HealthCheck(ctx context.Context) error {
	return p.pool.HealthCheck(ctx)
}

func connectionFailed(err error) bool {
	if err == nil {
		return false
	}
	if gateway.KindOf(err) == gateway.ConnectionError {
		return true
	}
	st, ok := status.FromError(errors.Cause(err))
	return ok && st.Code() == codes.Unavailable
}
