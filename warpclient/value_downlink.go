package warpclient

import (
	"context"
	"sync"

	"github.com/DobromirM/warp-go/recon"
	"github.com/DobromirM/warp-go/warp"
)

// valueModel holds the single current value of a value downlink. It
// syncs on open (per spec §4.H, value downlinks send sync not link) and
// stores a nil event body as Extant. A parsed event with nothing after
// its header carries an empty Record, which is stored as is.
type valueModel struct {
	modelBase
	vmu   sync.Mutex
	value recon.Value
}

func newValueModel(fan fanOut) *valueModel {
	return &valueModel{modelBase: newModelBase(fan), value: recon.Extant}
}

func (m *valueModel) Kind() Kind { return ValueDownlink }

func (m *valueModel) Open(ctx context.Context, conn *Connection, node, lane string) {
	m.mu.Lock()
	m.conn = conn
	m.node = node
	m.lane = lane
	m.mu.Unlock()
	env := m.withRate(warp.Sync(node, lane))
	if err := conn.SendMessage(ctx, env.ToRecon()); err != nil {
		conn.warnf("value downlink %s/%s: sync: %v", node, lane, err)
	}
}

func (m *valueModel) HandleEnvelope(env *warp.Envelope) {
	if m.handleLifecycle(env) {
		return
	}
	if env.Tag != warp.TagEvent {
		return
	}
	newVal := env.Body
	if newVal == nil {
		newVal = recon.Extant
	}
	m.vmu.Lock()
	oldVal := m.value
	m.value = newVal
	m.vmu.Unlock()
	m.fan.fanOutDidSet(newVal, oldVal)
}

// GetValue awaits synced, then returns the current value, per spec §4.H
// and the invariant in §8 that get_value never returns before a synced
// has been observed.
func (m *valueModel) GetValue(ctx context.Context) (recon.Value, error) {
	if err := m.Synced().Wait(ctx); err != nil {
		return nil, err
	}
	m.vmu.Lock()
	defer m.vmu.Unlock()
	return m.value, nil
}

// Set sends a command envelope carrying body; it does not await synced,
// since a set is a one-shot outbound action rather than a read.
func (m *valueModel) Set(ctx context.Context, body recon.Value) error {
	m.mu.Lock()
	conn, node, lane := m.conn, m.node, m.lane
	m.mu.Unlock()
	if conn == nil {
		return ErrConnectionClosed
	}
	env := warp.Command(node, lane, body)
	return conn.SendMessage(ctx, env.ToRecon())
}
