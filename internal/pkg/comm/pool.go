/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package comm

import (
	"context"
	"os"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/hyperledger/fabric-asset-gateway/common/flogging"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics"
	"github.com/hyperledger/fabric-asset-gateway/common/metrics/disabled"
	"github.com/hyperledger/fabric-asset-gateway/common/semaphore"
	"github.com/hyperledger/fabric-asset-gateway/internal/pkg/gateway"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
)

const DefaultMaxConnections = 16

var poolConnectionsOpts = metrics.GaugeOpts{
	Namespace:  "assetgw",
	Subsystem:  "pool",
	Name:       "connections",
	Help:       "The number of peer connections held by the pool.",
	LabelNames: []string{"state"},
}

// DialFunc creates a new connection to endpoint.
type DialFunc func(endpoint string) (*grpc.ClientConn, error)

type PoolOptions struct {
	// MaxConnections bounds the number of connections checked out at once.
	MaxConnections int
	// IdleTimeout is how long a released connection is kept for reuse. Zero
	// keeps idle connections until the pool is closed.
	IdleTimeout time.Duration
	// DialTimeout bounds the wait for a newly dialed connection to become
	// ready. Zero hands out new connections without waiting.
	DialTimeout time.Duration
	Clock       clock.Clock
	Metrics     metrics.Provider
	Logger      *flogging.FabricLogger
}

type idleConn struct {
	conn  *grpc.ClientConn
	since time.Time
}

// Pool hands out peer connections keyed by endpoint. A connection is either
// checked out by exactly one caller or idle in the pool.
type Pool struct {
	dial        DialFunc
	sem         *semaphore.CountingSemaphore
	maxIdle     int
	idleTimeout time.Duration
	dialTimeout time.Duration
	clock       clock.Clock
	gauge       metrics.Gauge
	logger      *flogging.FabricLogger

	mutex  sync.Mutex
	idle   map[string][]idleConn
	active int
	closed bool
}

func NewPool(dial DialFunc, opts PoolOptions) *Pool {
	if opts.MaxConnections <= 0 {
		opts.MaxConnections = DefaultMaxConnections
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = &disabled.Provider{}
	}
	if opts.Logger == nil {
		opts.Logger = commLogger.Named("pool")
	}

	return &Pool{
		dial:        dial,
		sem:         semaphore.New(opts.MaxConnections),
		maxIdle:     opts.MaxConnections,
		idleTimeout: opts.IdleTimeout,
		dialTimeout: opts.DialTimeout,
		clock:       opts.Clock,
		gauge:       opts.Metrics.NewGauge(poolConnectionsOpts),
		logger:      opts.Logger,
		idle:        map[string][]idleConn{},
	}
}

// PooledConn is a connection checked out of a Pool. Exactly one of Release or
// Discard must be called when the caller is done with it.
type PooledConn struct {
	*grpc.ClientConn
	endpoint string
	pool     *Pool
	once     sync.Once
}

// Release returns the connection to the pool for reuse.
func (c *PooledConn) Release() {
	c.once.Do(func() { c.pool.put(c.endpoint, c.ClientConn) })
}

// Discard closes the connection instead of returning it to the pool.
func (c *PooledConn) Discard() {
	c.once.Do(func() { c.pool.discard(c.ClientConn) })
}

// Get checks out a connection to endpoint, reusing an idle one when it is
// still usable. Get blocks while MaxConnections are checked out.
func (p *Pool) Get(ctx context.Context, endpoint string) (*PooledConn, error) {
	if err := p.sem.Acquire(ctx); err != nil {
		kind := gateway.ConnectionError
		if errors.Is(err, context.DeadlineExceeded) {
			kind = gateway.DeadlineExceeded
		}
		return nil, gateway.NewError(kind, "connection pool", errors.Wrap(err, "timed out waiting for a peer connection"))
	}

	conn, err := p.checkout(ctx, endpoint)
	if err != nil {
		p.sem.Release()
		return nil, err
	}
	return &PooledConn{ClientConn: conn, endpoint: endpoint, pool: p}, nil
}

func (p *Pool) checkout(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return nil, gateway.NewError(gateway.ConnectionError, "connection pool", errors.New("connection pool is closed"))
	}

	var stale []*grpc.ClientConn
	var conn *grpc.ClientConn
	for conns := p.idle[endpoint]; len(conns) > 0 && conn == nil; conns = p.idle[endpoint] {
		candidate := conns[len(conns)-1].conn
		p.idle[endpoint] = conns[:len(conns)-1]
		if usable(candidate) {
			conn = candidate
		} else {
			stale = append(stale, candidate)
		}
	}
	if len(p.idle[endpoint]) == 0 {
		delete(p.idle, endpoint)
	}
	p.active++
	p.updateGauge()
	p.mutex.Unlock()

	for _, c := range stale {
		p.logger.Debugf("Closing unusable connection to %s in state %s", endpoint, c.GetState())
		c.Close()
	}

	if conn != nil {
		return conn, nil
	}

	conn, err := p.dial(endpoint)
	if err == nil && p.dialTimeout > 0 {
		if err = WaitForReady(ctx, conn, p.dialTimeout); err != nil {
			conn.Close()
			kind := gateway.ConnectionError
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				kind = gateway.DeadlineExceeded
			}
			err = gateway.NewError(kind, "connection pool", err)
		}
	}
	if err != nil {
		p.mutex.Lock()
		p.active--
		p.updateGauge()
		p.mutex.Unlock()
		return nil, err
	}
	p.logger.Debugf("Opened new connection to %s", endpoint)
	return conn, nil
}

func usable(conn *grpc.ClientConn) bool {
	switch conn.GetState() {
	case connectivity.Shutdown, connectivity.TransientFailure:
		return false
	default:
		return true
	}
}

func (p *Pool) put(endpoint string, conn *grpc.ClientConn) {
	defer p.sem.Release()

	p.mutex.Lock()
	p.active--
	if p.closed || len(p.idle[endpoint]) >= p.maxIdle || !usable(conn) {
		p.updateGauge()
		p.mutex.Unlock()
		conn.Close()
		return
	}
	p.idle[endpoint] = append(p.idle[endpoint], idleConn{conn: conn, since: p.clock.Now()})
	p.updateGauge()
	p.mutex.Unlock()
}

func (p *Pool) discard(conn *grpc.ClientConn) {
	defer p.sem.Release()

	p.mutex.Lock()
	p.active--
	p.updateGauge()
	p.mutex.Unlock()
	conn.Close()
}

// EvictIdle closes connections that have been idle for longer than the idle
// timeout.
func (p *Pool) EvictIdle() int {
	if p.idleTimeout <= 0 {
		return 0
	}

	now := p.clock.Now()
	var evicted []*grpc.ClientConn

	p.mutex.Lock()
	for endpoint, conns := range p.idle {
		kept := conns[:0]
		for _, ic := range conns {
			if now.Sub(ic.since) >= p.idleTimeout {
				evicted = append(evicted, ic.conn)
				continue
			}
			kept = append(kept, ic)
		}
		if len(kept) == 0 {
			delete(p.idle, endpoint)
		} else {
			p.idle[endpoint] = kept
		}
	}
	p.updateGauge()
	p.mutex.Unlock()

	for _, conn := range evicted {
		conn.Close()
	}
	if len(evicted) > 0 {
		p.logger.Debugf("Evicted %d idle connections", len(evicted))
	}
	return len(evicted)
}

// Run evicts idle connections until a signal is received, then closes the
// pool.
func (p *Pool) Run(signals <-chan os.Signal, ready chan<- struct{}) error {
	var tick <-chan time.Time
	if p.idleTimeout > 0 {
		interval := p.idleTimeout / 2
		if interval < time.Millisecond {
			interval = time.Millisecond
		}
		ticker := p.clock.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C()
	}
	close(ready)

	for {
		select {
		case <-tick:
			p.EvictIdle()
		case <-signals:
			p.Close()
			return nil
		}
	}
}

// Close closes every idle connection. Connections still checked out are
// closed when they are released.
func (p *Pool) Close() {
	p.mutex.Lock()
	p.closed = true
	idle := p.idle
	p.idle = map[string][]idleConn{}
	p.updateGauge()
	p.mutex.Unlock()

	for _, conns := range idle {
		for _, ic := range conns {
			ic.conn.Close()
		}
	}
}

// Stats returns the number of checked out and idle connections.
func (p *Pool) Stats() (active, idle int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.active, p.idleCount()
}

// HealthCheck reports the pool unhealthy once it has been closed or when an
// idle connection has failed.
func (p *Pool) HealthCheck(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return errors.New("connection pool is closed")
	}
	for endpoint, conns := range p.idle {
		for _, ic := range conns {
			if ic.conn.GetState() == connectivity.TransientFailure {
				return errors.Errorf("connection to %s is in state %s", endpoint, connectivity.TransientFailure)
			}
		}
	}
	return nil
}

func (p *Pool) idleCount() int {
	n := 0
	for _, conns := range p.idle {
		n += len(conns)
	}
	return n
}

// must be called with the mutex held
func (p *Pool) updateGauge() {
	p.gauge.With("state", "active").Set(float64(p.active))
	p.gauge.With("state", "idle").Set(float64(p.idleCount()))
}
