package warpclient

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/DobromirM/warp-go/recon"
	"github.com/DobromirM/warp-go/retry"
	"github.com/DobromirM/warp-go/warp"
	"github.com/DobromirM/warp-go/warpconfig"
	"github.com/DobromirM/warp-go/wlog"
	"github.com/prometheus/client_golang/prometheus"
)

// Client is the facade over the connection pool, the downlink-manager
// pool, and the executor — the "external interfaces" spec §6 names as
// core-exposed. It is deliberately thin: construction wires the pieces,
// everything else delegates to pool.go/manager.go/builder.go.
type Client struct {
	pool  *Pool
	mpool *ManagerPool

	executor Executor
	warn     func(error)

	retryFactory func() retry.Strategy
	tlsCfg       *tls.Config
	dialTimeout  time.Duration
	registerer   prometheus.Registerer

	didAuth   func(hostURI string, env *warp.Envelope)
	didDeauth func(hostURI string, env *warp.Envelope)
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithExecutor overrides the Executor every view's callbacks are
// scheduled on. Defaults to GoExecutor.
func WithExecutor(e Executor) ClientOption {
	return func(c *Client) { c.executor = e }
}

// WithWarnSink overrides the sink non-fatal errors are reported to.
// Defaults to wlog.Warn.
func WithWarnSink(fn func(error)) ClientOption {
	return func(c *Client) { c.warn = fn }
}

// WithClientRetryStrategy overrides the factory used to build every new
// connection's retry strategy.
func WithClientRetryStrategy(factory func() retry.Strategy) ClientOption {
	return func(c *Client) { c.retryFactory = factory }
}

// WithClientTLSConfig sets the TLS config dialed connections use.
func WithClientTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *Client) { c.tlsCfg = cfg }
}

// WithClientDialTimeout overrides the WebSocket handshake timeout.
func WithClientDialTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.dialTimeout = d }
}

// WithPrometheusRegisterer attaches self-instrumentation to reg.
func WithPrometheusRegisterer(reg prometheus.Registerer) ClientOption {
	return func(c *Client) { c.registerer = reg }
}

// WithDidAuth registers the facade callback invoked on an authed
// envelope.
func WithDidAuth(fn func(hostURI string, env *warp.Envelope)) ClientOption {
	return func(c *Client) { c.didAuth = fn }
}

// WithDidDeauth registers the facade callback invoked on a deauthed
// envelope.
func WithDidDeauth(fn func(hostURI string, env *warp.Envelope)) ClientOption {
	return func(c *Client) { c.didDeauth = fn }
}

// NewClient constructs a Client with the given options applied. Absent an
// explicit WithClientRetryStrategy/WithClientTLSConfig, the client falls
// back to warpconfig.Current()'s retry policy and TLS settings.
func NewClient(opts ...ClientOption) *Client {
	cfg := warpconfig.Current()
	c := &Client{
		executor:     NewGoExecutor(),
		warn:         func(err error) { wlog.Warn(err.Error()) },
		retryFactory: func() retry.Strategy { return cfg.RetryPolicy.Strategy() },
		tlsCfg:       cfg.TLS,
		dialTimeout:  cfg.DialTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	var metrics *Metrics
	if c.registerer != nil {
		metrics = NewMetrics(c.registerer)
	} else {
		metrics = noopMetrics()
	}

	c.mpool = newManagerPool(c)

	poolOpts := []PoolOption{WithWarnFunc(c.warn), WithMetrics(metrics)}
	if c.retryFactory != nil {
		poolOpts = append(poolOpts, WithRetryStrategy(c.retryFactory))
	}
	if c.tlsCfg != nil {
		poolOpts = append(poolOpts, WithTLSConfig(c.tlsCfg))
	}
	if c.dialTimeout > 0 {
		poolOpts = append(poolOpts, WithDialTimeout(c.dialTimeout))
	}
	c.pool = NewPool(hostDispatcher{c}, poolOpts...)
	return c
}

// hostDispatcher is the Dispatcher a Client's Pool calls for every
// envelope read off any connection. Lane-scoped envelopes route to the
// manager pool; host-scoped authed/deauthed envelopes invoke the
// facade's optional did_auth/did_deauth callbacks (spec §6).
type hostDispatcher struct{ c *Client }

func (h hostDispatcher) Dispatch(hostURI string, env *warp.Envelope) {
	if env.IsLaneScoped() {
		h.c.mpool.Dispatch(hostURI, env)
		return
	}
	switch env.Tag {
	case warp.TagAuthed:
		if h.c.didAuth != nil {
			h.c.didAuth(hostURI, env)
		}
	case warp.TagDeauthed:
		if h.c.didDeauth != nil {
			h.c.didDeauth(hostURI, env)
		}
	}
}

// OpenEventDownlink starts building an event downlink view.
func (c *Client) OpenEventDownlink() *Builder { return newBuilder(c, EventDownlink) }

// OpenValueDownlink starts building a value downlink view.
func (c *Client) OpenValueDownlink() *Builder { return newBuilder(c, ValueDownlink) }

// OpenMapDownlink starts building a map downlink view.
func (c *Client) OpenMapDownlink() *Builder { return newBuilder(c, MapDownlink) }

// openView is the Builder.Open() implementation: it resolves/attaches
// the manager and transitions the view to open.
func (c *Client) openView(view *View) (*View, error) {
	view.client = c
	if err := view.open(context.Background()); err != nil {
		return nil, err
	}
	return view, nil
}

// attachView resolves the connection and manager for view's route and
// registers view with the manager, opening both on first use.
func (c *Client) attachView(ctx context.Context, view *View) (*Manager, error) {
	conn := c.pool.GetConnection(view.hostURI)
	mgr := c.mpool.getOrCreate(view.nodeURI, view.laneURI)
	if m := mgr.Model(); m != nil && m.Kind() != view.kind {
		return nil, ErrKindMismatch
	}

	c.pool.AddDownlinkManager(view.hostURI, mgr, view.keepLinked, view.keepSynced)
	if err := mgr.addView(ctx, conn, view); err != nil {
		c.pool.RemoveDownlinkManager(view.hostURI, mgr)
		return nil, err
	}
	return mgr, nil
}

// Command sends a one-shot command envelope without opening a persistent
// downlink, per spec §6.
func (c *Client) Command(hostURI, nodeURI, laneURI string, body recon.Value) error {
	conn := c.pool.GetConnection(hostURI)
	env := warp.Command(nodeURI, laneURI, body)
	return conn.SendMessage(context.Background(), env.ToRecon())
}

// SetAuthMessage sets the opaque auth text sent immediately after every
// successful (re)connection to hostURI.
func (c *Client) SetAuthMessage(hostURI string, msg *string) {
	c.pool.GetConnection(hostURI).SetAuthMessage(msg)
}

// SetInitMessage sets the opaque init text sent immediately after the
// auth message on every successful (re)connection to hostURI.
func (c *Client) SetInitMessage(hostURI string, msg *string) {
	c.pool.GetConnection(hostURI).SetInitMessage(msg)
}

// Close closes every connection the client's pool owns.
func (c *Client) Close() {
	c.pool.Close()
}
