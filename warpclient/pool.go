package warpclient

import (
	"crypto/tls"
	"strings"
	"sync"
	"time"

	"github.com/DobromirM/warp-go/retry"
)

// Pool is the connection-level multiplexer: every downlink manager that
// talks to the same host URI shares exactly one Connection, obtained and
// released through AddDownlinkManager/RemoveDownlinkManager, generalized
// from one process-wide singleton connection to one connection per
// normalized host URI.
type Pool struct {
	mu          sync.Mutex
	connections map[string]*Connection

	newStrategy func() retry.Strategy
	tlsCfg      *tls.Config
	dialTimeout time.Duration
	dispatcher  Dispatcher
	warn        func(error)
	metrics     *Metrics
}

// PoolOption configures a Pool at construction time.
type PoolOption func(*Pool)

// WithRetryStrategy overrides the factory used to build each new
// connection's retry strategy. Strategy carries mutable attempt-counter
// state, so the pool stores a factory rather than a shared instance —
// every connection gets its own.
func WithRetryStrategy(factory func() retry.Strategy) PoolOption {
	return func(p *Pool) { p.newStrategy = factory }
}

// WithTLSConfig sets the tls.Config dialed connections use for warps://
// hosts.
func WithTLSConfig(cfg *tls.Config) PoolOption {
	return func(p *Pool) { p.tlsCfg = cfg }
}

// WithDialTimeout overrides the WebSocket handshake timeout new
// connections are dialed with. Defaults to 10s.
func WithDialTimeout(d time.Duration) PoolOption {
	return func(p *Pool) { p.dialTimeout = d }
}

// WithWarnFunc overrides the sink non-fatal connection errors are
// reported to. Defaults to wlog.Warn.
func WithWarnFunc(fn func(error)) PoolOption {
	return func(p *Pool) { p.warn = fn }
}

// WithMetrics attaches a Metrics instance every connection reports to.
func WithMetrics(m *Metrics) PoolOption {
	return func(p *Pool) { p.metrics = m }
}

// NewPool constructs a Pool. dispatcher receives every lane-scoped
// envelope read off any connection the pool owns.
func NewPool(dispatcher Dispatcher, opts ...PoolOption) *Pool {
	p := &Pool{
		connections: make(map[string]*Connection),
		newStrategy: func() retry.Strategy { return retry.NewExponential(defaultMaxRetryInterval, 0) },
		dialTimeout: 10 * time.Second,
		dispatcher:  dispatcher,
		metrics:     noopMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

const defaultMaxRetryInterval = 30_000_000_000 // 30s, in time.Duration's ns unit

// NormalizeHostURI rewrites the warp/warps URI schemes this client accepts
// at its facade boundary into the ws/wss schemes the underlying transport
// understands. Any other scheme (already ws://, wss://) passes through
// unchanged.
func NormalizeHostURI(hostURI string) string {
	switch {
	case strings.HasPrefix(hostURI, "warps://"):
		return "wss://" + strings.TrimPrefix(hostURI, "warps://")
	case strings.HasPrefix(hostURI, "warp://"):
		return "ws://" + strings.TrimPrefix(hostURI, "warp://")
	default:
		return hostURI
	}
}

// GetConnection returns the pool's connection for hostURI, constructing a
// fresh one if none exists or the existing one has settled in CLOSED after
// a transport failure (LastError is non-nil). A cached connection that has
// simply not been opened yet is returned as is. The returned connection is
// not necessarily open; callers drive that via Manager.addView, SendMessage,
// or an explicit Open.
func (p *Pool) GetConnection(hostURI string) *Connection {
	host := NormalizeHostURI(hostURI)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.connections[host]; ok && (c.Status() != StatusClosed || c.LastError() == nil) {
		return c
	}
	c := newConnection(host, p.newStrategy(), p.tlsCfg, p.dialTimeout, p.dispatcher, p.warn, p.metrics)
	p.connections[host] = c
	return c
}

// RemoveConnection evicts and closes the connection for hostURI, if one
// exists.
func (p *Pool) RemoveConnection(hostURI string) {
	host := NormalizeHostURI(hostURI)

	p.mu.Lock()
	c, ok := p.connections[host]
	if ok {
		delete(p.connections, host)
	}
	p.mu.Unlock()

	if ok {
		c.Close()
	}
}

// AddDownlinkManager registers m as a subscriber of hostURI's connection,
// merging m's keep-linked/keep-synced requirements into the connection's
// reconnect policy, and returns that connection.
func (p *Pool) AddDownlinkManager(hostURI string, m *Manager, keepLinked, keepSynced bool) *Connection {
	c := p.GetConnection(hostURI)
	before := c.SubscriberCount()
	after := c.AddSubscriber(m, subscriberFlags{KeepLinked: keepLinked, KeepSynced: keepSynced})
	if p.metrics != nil && after > before {
		p.metrics.DownlinksOpen.Inc()
	}
	return c
}

// RemoveDownlinkManager deregisters m from hostURI's connection. If no
// subscribers remain and the connection has no persistence requirement of
// its own, the connection is closed and evicted.
func (p *Pool) RemoveDownlinkManager(hostURI string, m *Manager) {
	host := NormalizeHostURI(hostURI)

	p.mu.Lock()
	c, ok := p.connections[host]
	p.mu.Unlock()
	if !ok {
		return
	}

	remaining := c.RemoveSubscriber(m)
	if p.metrics != nil {
		p.metrics.DownlinksOpen.Dec()
	}
	if remaining == 0 {
		p.RemoveConnection(hostURI)
	}
}

// Close closes every connection the pool owns.
func (p *Pool) Close() {
	p.mu.Lock()
	conns := make([]*Connection, 0, len(p.connections))
	for _, c := range p.connections {
		conns = append(conns, c)
	}
	p.connections = make(map[string]*Connection)
	p.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
