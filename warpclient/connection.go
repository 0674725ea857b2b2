package warpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DobromirM/warp-go/retry"
	"github.com/DobromirM/warp-go/warp"
	"github.com/DobromirM/warp-go/wlog"
)

// Status is a WebSocket connection's lifecycle state.
type Status int

const (
	StatusClosed Status = iota
	StatusConnecting
	StatusIdle
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusConnecting:
		return "connecting"
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// subscriberFlags tracks one manager's persistence requirements against a
// shared connection.
type subscriberFlags struct {
	KeepLinked bool
	KeepSynced bool
}

// Dispatcher routes inbound envelopes with a route to the manager that
// owns it, and routes host-scoped envelopes (auth/deauth) to did_auth/
// did_deauth callbacks. hostURI identifies which connection the envelope
// arrived on, since a Dispatcher is shared across every connection in a
// Pool.
type Dispatcher interface {
	Dispatch(hostURI string, env *warp.Envelope)
}

// Connection is one WebSocket transport shared by every downlink manager
// subscribed to the same host. Exactly one Connection exists per
// normalized host URI at a time; see Pool.
type Connection struct {
	hostURI string
	tlsCfg  *tls.Config
	dialer  websocket.Dialer

	dispatcher Dispatcher
	warn       func(error)
	metrics    *Metrics

	mu            sync.Mutex
	status        Status
	ws            *websocket.Conn
	subscribers   map[*Manager]subscriberFlags
	retryStrategy retry.Strategy
	lastErr       error
	cancelReceive context.CancelFunc

	connected     *Signal
	authenticated *Signal

	authMessage *string
	initMessage *string
}

func newConnection(hostURI string, strategy retry.Strategy, tlsCfg *tls.Config, dialTimeout time.Duration, dispatcher Dispatcher, warn func(error), metrics *Metrics) *Connection {
	return &Connection{
		hostURI:       hostURI,
		tlsCfg:        tlsCfg,
		dialer:        websocket.Dialer{TLSClientConfig: tlsCfg, HandshakeTimeout: dialTimeout},
		dispatcher:    dispatcher,
		warn:          warn,
		metrics:       metrics,
		subscribers:   make(map[*Manager]subscriberFlags),
		retryStrategy: strategy,
		connected:     NewSignal(),
		authenticated: NewSignal(),
	}
}

// Status returns the connection's current lifecycle state.
func (c *Connection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError returns the most recent transport error observed, if any.
// A supplemental accessor beyond the base state machine, useful for
// diagnostics when a connection settles in CLOSED after exhausting retry.
func (c *Connection) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SetAuthMessage sets the opaque auth text sent immediately after every
// successful (re)connection, before the init message and before normal
// processing resumes. Pass nil to clear it.
func (c *Connection) SetAuthMessage(msg *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authMessage = msg
}

// SetInitMessage sets the opaque init text sent immediately after the auth
// message on every successful (re)connection. Pass nil to clear it.
func (c *Connection) SetInitMessage(msg *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initMessage = msg
}

// AddSubscriber registers m's persistence requirements with the
// connection, OR-ing them into any flags m already registered, and
// returns the current subscriber count.
func (c *Connection) AddSubscriber(m *Manager, flags subscriberFlags) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.subscribers[m]
	c.subscribers[m] = subscriberFlags{
		KeepLinked: prev.KeepLinked || flags.KeepLinked,
		KeepSynced: prev.KeepSynced || flags.KeepSynced,
	}
	return len(c.subscribers)
}

// RemoveSubscriber deregisters m and returns the remaining subscriber
// count.
func (c *Connection) RemoveSubscriber(m *Manager) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribers, m)
	return len(c.subscribers)
}

// SubscriberCount returns the number of managers currently subscribed.
func (c *Connection) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribers)
}

// shouldReconnect reports whether any current subscriber requires the
// connection to persist through an abnormal close.
func (c *Connection) shouldReconnect() bool {
	for _, f := range c.subscribers {
		if f.KeepLinked || f.KeepSynced {
			return true
		}
	}
	return false
}

// Open loops while the connection is CONNECTING: it attempts the
// WebSocket handshake, and on failure retries per the connection's retry
// strategy as long as shouldReconnect() holds and the strategy still
// permits another attempt. On success it resets the retry strategy, moves
// to IDLE, and signals connected.
func (c *Connection) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusClosed {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusConnecting
	c.mu.Unlock()

	for {
		ws, _, err := c.dialer.DialContext(ctx, c.hostURI, http.Header{})
		if err == nil {
			c.mu.Lock()
			c.ws = ws
			c.status = StatusIdle
			c.lastErr = nil
			c.retryStrategy.Reset()
			c.mu.Unlock()
			c.connected.Set()
			if c.metrics != nil {
				c.metrics.ConnectionsOpen.Inc()
			}
			if err := c.replayAuthInit(); err != nil {
				c.warnf("replay auth/init after connect: %v", err)
			}
			return nil
		}

		c.mu.Lock()
		c.lastErr = err
		c.mu.Unlock()

		if !c.shouldReconnect() {
			c.transitionClosed()
			return err
		}
		delay, ok := c.retryStrategy.Next()
		if !ok {
			c.transitionClosed()
			return err
		}
		c.warnf("connect to %s failed, retrying in %s: %v", c.hostURI, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			c.transitionClosed()
			return ctx.Err()
		}
	}
}

func (c *Connection) replayAuthInit() error {
	c.mu.Lock()
	auth, init := c.authMessage, c.initMessage
	c.mu.Unlock()
	if auth != nil {
		if err := c.sendRaw(*auth); err != nil {
			return err
		}
	}
	if init != nil {
		if err := c.sendRaw(*init); err != nil {
			return err
		}
	}
	return nil
}

// SendMessage opens the connection first if it is closed or absent, then
// awaits connected and writes text as a single text frame.
func (c *Connection) SendMessage(ctx context.Context, text string) error {
	c.mu.Lock()
	needsOpen := c.status == StatusClosed || c.ws == nil
	c.mu.Unlock()
	if needsOpen {
		if err := c.Open(ctx); err != nil {
			return err
		}
	}
	if err := c.connected.Wait(ctx); err != nil {
		return err
	}
	return c.sendRaw(text)
}

func (c *Connection) sendRaw(text string) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return ErrConnectionClosed
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("warpclient: send to %s: %w", c.hostURI, err)
	}
	if c.metrics != nil {
		c.metrics.EnvelopesSent.Inc()
	}
	return nil
}

// WaitForMessages runs the receive loop only while status is IDLE: on
// entry it flips to RUNNING, then reads frames until the socket closes
// abnormally or ctx is cancelled. Each frame is parsed into an Envelope
// and dispatched by route, or handled at host scope if it has none.
func (c *Connection) WaitForMessages(ctx context.Context) {
	c.mu.Lock()
	if c.status != StatusIdle {
		c.mu.Unlock()
		return
	}
	c.status = StatusRunning
	ctx, cancel := context.WithCancel(ctx)
	c.cancelReceive = cancel
	c.mu.Unlock()

	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		if ws == nil {
			return
		}

		_, data, err := ws.ReadMessage()
		if err != nil {
			c.warnf("connection to %s closed: %v", c.hostURI, err)
			c.mu.Lock()
			c.ws = nil
			c.lastErr = err
			c.mu.Unlock()
			ws.Close()
			c.connected.Clear()

			if !c.shouldReconnect() {
				c.transitionClosed()
				return
			}
			delay, ok := c.retryStrategy.Next()
			if !ok {
				c.transitionClosed()
				return
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				c.transitionClosed()
				return
			}
			c.mu.Lock()
			c.status = StatusClosed
			c.mu.Unlock()
			if err := c.Open(ctx); err != nil {
				return
			}
			if c.metrics != nil {
				c.metrics.ReconnectsTotal.Inc()
			}
			c.mu.Lock()
			c.status = StatusRunning
			c.mu.Unlock()
			continue
		}

		if c.metrics != nil {
			c.metrics.EnvelopesRecv.Inc()
		}
		env := warp.ParseRecon(string(data))
		c.handleEnvelope(env)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (c *Connection) handleEnvelope(env *warp.Envelope) {
	switch env.Tag {
	case warp.TagAuthed:
		c.authenticated.Set()
	case warp.TagDeauthed:
		c.authenticated.Clear()
	}
	if c.dispatcher != nil {
		c.dispatcher.Dispatch(c.hostURI, env)
	}
}

func (c *Connection) transitionClosed() {
	c.mu.Lock()
	c.status = StatusClosed
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		ws.Close()
	}
	c.connected.Clear()
}

// Close unconditionally transitions the connection to CLOSED and closes
// the socket if one is open.
func (c *Connection) Close() {
	c.mu.Lock()
	cancel := c.cancelReceive
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.transitionClosed()
}

func (c *Connection) warnf(format string, args ...any) {
	err := fmt.Errorf(format, args...)
	if c.warn != nil {
		c.warn(err)
	} else {
		wlog.Warn(err.Error())
	}
}
