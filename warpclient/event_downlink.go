package warpclient

import (
	"context"

	"github.com/DobromirM/warp-go/recon"
	"github.com/DobromirM/warp-go/warp"
)

// eventModel is a stateless downlink: every event envelope's body is
// handed straight to subscribers with no retained state, per spec §4.H's
// "Event downlink" paragraph.
type eventModel struct {
	modelBase
}

func newEventModel(fan fanOut) *eventModel {
	return &eventModel{modelBase: newModelBase(fan)}
}

func (m *eventModel) Kind() Kind { return EventDownlink }

// Open sends the initial link(node,lane) envelope; an event downlink
// never syncs, only links.
func (m *eventModel) Open(ctx context.Context, conn *Connection, node, lane string) {
	m.mu.Lock()
	m.conn = conn
	m.node = node
	m.lane = lane
	m.mu.Unlock()
	env := m.withRate(warp.Link(node, lane))
	if err := conn.SendMessage(ctx, env.ToRecon()); err != nil {
		conn.warnf("event downlink %s/%s: link: %v", node, lane, err)
	}
}

func (m *eventModel) HandleEnvelope(env *warp.Envelope) {
	if m.handleLifecycle(env) {
		return
	}
	if env.Tag == warp.TagEvent {
		body := env.Body
		if body == nil {
			body = recon.Absent
		}
		m.fan.fanOutEvent(body)
	}
}
