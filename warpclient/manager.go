package warpclient

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/DobromirM/warp-go/recon"
	"github.com/DobromirM/warp-go/warp"
)

// ManagerStatus is a downlink manager's lifecycle state, per spec §4.G:
// CLOSED → OPENING → OPEN → CLOSED.
type ManagerStatus int

const (
	ManagerClosed ManagerStatus = iota
	ManagerOpening
	ManagerOpen
)

// Manager owns exactly one model and fans lifecycle/data events out to
// every view sharing its (node, lane), per spec §4.G. Views are kept in
// insertion order; fan-out dispatch matches that order (spec §5).
type Manager struct {
	mu      sync.Mutex
	route   string
	node    string
	lane    string
	status  ManagerStatus
	kind    Kind
	model   model
	views   []*View
	conn    *Connection
	pool    *ManagerPool
	rateReq float64
	limiter *rate.Limiter
}

// rateRequest returns the highest rate (events/sec) any current view has
// requested; 0 means no view has requested throttling.
func (mgr *Manager) rateRequest() float64 { return mgr.rateReq }

// setLimiter raises the manager's advertised/enforced rate to r, building
// a fresh token-bucket limiter sized to it. Called under mgr.mu.
func (mgr *Manager) setLimiter(r float64) {
	mgr.rateReq = r
	mgr.limiter = rate.NewLimiter(rate.Limit(r), 1)
}

func newManager(pool *ManagerPool, node, lane string) *Manager {
	return &Manager{pool: pool, route: node + "/" + lane, node: node, lane: lane}
}

// addView registers view with the manager, creating the model on the
// first view and rejecting a kind mismatch against an existing model
// (spec §7.3 user-input error).
func (mgr *Manager) addView(ctx context.Context, conn *Connection, view *View) error {
	mgr.mu.Lock()
	if mgr.model == nil {
		mgr.kind = view.kind
		mgr.conn = conn
		switch view.kind {
		case EventDownlink:
			mgr.model = newEventModel(mgr)
		case ValueDownlink:
			mgr.model = newValueModel(mgr)
		case MapDownlink:
			mgr.model = newMapModel(mgr)
		}
	} else if mgr.kind != view.kind {
		mgr.mu.Unlock()
		return ErrKindMismatch
	}
	mgr.views = append(mgr.views, view)
	first := len(mgr.views) == 1
	if view.rate > mgr.rateRequest() {
		mgr.setLimiter(view.rate)
	}
	mgr.mu.Unlock()

	if first {
		mgr.mu.Lock()
		mgr.status = ManagerOpening
		mgr.mu.Unlock()
		if r := mgr.rateRequest(); r > 0 {
			mgr.model.setRate(r)
		}

		if err := conn.Open(ctx); err != nil {
			mgr.mu.Lock()
			mgr.status = ManagerClosed
			mgr.mu.Unlock()
			return err
		}
		go conn.WaitForMessages(context.Background())
		mgr.model.Open(ctx, conn, mgr.node, mgr.lane)

		mgr.mu.Lock()
		mgr.status = ManagerOpen
		mgr.mu.Unlock()
	}
	return nil
}

// removeView deregisters view. Once no views remain it closes the model,
// sends unlink, drops the manager from its pool, and deregisters it from
// the connection, which the connection pool closes and evicts when no
// subscribers are left.
func (mgr *Manager) removeView(view *View) {
	mgr.mu.Lock()
	for i, v := range mgr.views {
		if v == view {
			mgr.views = append(mgr.views[:i], mgr.views[i+1:]...)
			break
		}
	}
	empty := len(mgr.views) == 0
	conn, host := mgr.conn, view.hostURI
	mgr.mu.Unlock()

	if !empty {
		return
	}

	mgr.mu.Lock()
	mgr.status = ManagerClosed
	if mgr.model != nil {
		mgr.model.Close()
	}
	mgr.mu.Unlock()

	if conn != nil {
		if err := conn.SendMessage(context.Background(), warp.Unlink(mgr.node, mgr.lane).ToRecon()); err != nil {
			conn.warnf("unlink %s: %v", mgr.route, err)
		}
	}
	mgr.pool.remove(mgr.route)
	if conn != nil {
		mgr.pool.client.pool.RemoveDownlinkManager(host, mgr)
	}
}

// Model returns the manager's current model, or nil before the first
// view has been added.
func (mgr *Manager) Model() model {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.model
}

// receiveMessage routes env to the manager's model.
func (mgr *Manager) receiveMessage(env *warp.Envelope) {
	mgr.mu.Lock()
	model := mgr.model
	mgr.mu.Unlock()
	if model != nil {
		model.HandleEnvelope(env)
	}
}

func (mgr *Manager) snapshotViews() []*View {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	out := make([]*View, len(mgr.views))
	copy(out, mgr.views)
	return out
}

func (mgr *Manager) fanOutWillLink() {
	for _, v := range mgr.snapshotViews() {
		v.schedule(v.willLink)
	}
}
func (mgr *Manager) fanOutDidLink() {
	for _, v := range mgr.snapshotViews() {
		v.schedule(v.didLink)
	}
}
func (mgr *Manager) fanOutWillSync() {
	for _, v := range mgr.snapshotViews() {
		v.schedule(v.willSync)
	}
}
func (mgr *Manager) fanOutDidSync() {
	for _, v := range mgr.snapshotViews() {
		v.schedule(v.didSync)
	}
}
func (mgr *Manager) fanOutWillUnlink() {
	for _, v := range mgr.snapshotViews() {
		v.schedule(v.willUnlink)
	}
}
func (mgr *Manager) fanOutDidUnlink() {
	for _, v := range mgr.snapshotViews() {
		v.schedule(v.didUnlink)
	}
}

// allowDataFanOut reports whether a data callback may fire, throttled by
// the manager's rate limiter when one of the manager's views requested
// one. Lifecycle fan-out (will/did link/sync/unlink) is never throttled.
func (mgr *Manager) allowDataFanOut() bool {
	mgr.mu.Lock()
	l := mgr.limiter
	mgr.mu.Unlock()
	return l == nil || l.Allow()
}

func (mgr *Manager) fanOutEvent(body recon.Value) {
	if !mgr.allowDataFanOut() {
		return
	}
	for _, v := range mgr.snapshotViews() {
		if v.onEvent == nil {
			continue
		}
		cb, b := v.onEvent, body
		v.schedule(func() { cb(b) })
	}
}
func (mgr *Manager) fanOutDidSet(newVal, oldVal recon.Value) {
	if !mgr.allowDataFanOut() {
		return
	}
	for _, v := range mgr.snapshotViews() {
		if v.didSet == nil {
			continue
		}
		cb, n, o := v.didSet, newVal, oldVal
		v.schedule(func() { cb(n, o) })
	}
}
func (mgr *Manager) fanOutDidUpdate(key, newVal, oldVal recon.Value) {
	if !mgr.allowDataFanOut() {
		return
	}
	for _, v := range mgr.snapshotViews() {
		if v.didUpdate == nil {
			continue
		}
		cb, k, n, o := v.didUpdate, key, newVal, oldVal
		v.schedule(func() { cb(k, n, o) })
	}
}
func (mgr *Manager) fanOutDidRemove(key, oldVal recon.Value) {
	for _, v := range mgr.snapshotViews() {
		if v.didRemove == nil {
			continue
		}
		cb, k, o := v.didRemove, key, oldVal
		v.schedule(func() { cb(k, o) })
	}
}

// ManagerPool maps route ("node/lane") to the Manager that owns it,
// mirroring a Subscribe callback-registry's bookkeeping but keyed per
// route instead of per process.
type ManagerPool struct {
	mu       sync.Mutex
	managers map[string]*Manager
	client   *Client
}

func newManagerPool(client *Client) *ManagerPool {
	return &ManagerPool{managers: make(map[string]*Manager), client: client}
}

// getOrCreate returns the manager for node/lane, creating one if absent.
func (mp *ManagerPool) getOrCreate(node, lane string) *Manager {
	route := node + "/" + lane
	mp.mu.Lock()
	defer mp.mu.Unlock()
	if m, ok := mp.managers[route]; ok {
		return m
	}
	m := newManager(mp, node, lane)
	mp.managers[route] = m
	return m
}

func (mp *ManagerPool) get(route string) (*Manager, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	m, ok := mp.managers[route]
	return m, ok
}

func (mp *ManagerPool) remove(route string) {
	mp.mu.Lock()
	delete(mp.managers, route)
	mp.mu.Unlock()
}

// Dispatch implements Dispatcher: it is the entry point a Connection
// calls for every inbound lane-scoped envelope. hostURI is unused here;
// routing is purely by (node, lane).
func (mp *ManagerPool) Dispatch(hostURI string, env *warp.Envelope) {
	m, ok := mp.get(env.Route())
	if !ok {
		return
	}
	m.receiveMessage(env)
}
