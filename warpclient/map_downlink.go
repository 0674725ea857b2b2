package warpclient

import (
	"context"
	"sync"

	"github.com/DobromirM/warp-go/recon"
	"github.com/DobromirM/warp-go/warp"
)

// orderedValueMap is an insertion-ordered key→value map keyed by the
// canonical Recon text of the key, since recon.Value is not a valid Go
// map key (it can be a *Record). Grounded on
// original_source/swimai/client/downlinks/downlinks.py's map downlink,
// which keeps an equivalent ordered dict keyed by the Recon key's wire
// form.
type orderedValueMap struct {
	order []string
	keys  map[string]recon.Value
	vals  map[string]recon.Value
}

func newOrderedValueMap() *orderedValueMap {
	return &orderedValueMap{keys: make(map[string]recon.Value), vals: make(map[string]recon.Value)}
}

func mapKeyOf(key recon.Value) string { return recon.Write(key) }

func (m *orderedValueMap) set(key, value recon.Value) (old recon.Value, existed bool) {
	k := mapKeyOf(key)
	old, existed = m.vals[k]
	if !existed {
		m.order = append(m.order, k)
		m.keys[k] = key
	}
	m.vals[k] = value
	return old, existed
}

func (m *orderedValueMap) remove(key recon.Value) (old recon.Value, existed bool) {
	k := mapKeyOf(key)
	old, existed = m.vals[k]
	if !existed {
		return old, false
	}
	delete(m.vals, k)
	delete(m.keys, k)
	for i, kk := range m.order {
		if kk == k {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return old, true
}

func (m *orderedValueMap) get(key recon.Value) (recon.Value, bool) {
	v, ok := m.vals[mapKeyOf(key)]
	return v, ok
}

// entries returns (key, value) pairs in insertion order.
func (m *orderedValueMap) entries() []struct{ Key, Value recon.Value } {
	out := make([]struct{ Key, Value recon.Value }, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, struct{ Key, Value recon.Value }{m.keys[k], m.vals[k]})
	}
	return out
}

func (m *orderedValueMap) clear() []struct{ Key, Value recon.Value } {
	removed := m.entries()
	m.order = nil
	m.keys = make(map[string]recon.Value)
	m.vals = make(map[string]recon.Value)
	return removed
}

// mapModel holds an ordered keyed map, recognizing @update/@remove/@clear
// body attributes per spec §4.H's "Map downlink" paragraph.
type mapModel struct {
	modelBase
	mmu sync.Mutex
	m   *orderedValueMap
}

func newMapModel(fan fanOut) *mapModel {
	return &mapModel{modelBase: newModelBase(fan), m: newOrderedValueMap()}
}

func (m *mapModel) Kind() Kind { return MapDownlink }

func (m *mapModel) Open(ctx context.Context, conn *Connection, node, lane string) {
	m.mu.Lock()
	m.conn = conn
	m.node = node
	m.lane = lane
	m.mu.Unlock()
	env := m.withRate(warp.Sync(node, lane))
	if err := conn.SendMessage(ctx, env.ToRecon()); err != nil {
		conn.warnf("map downlink %s/%s: sync: %v", node, lane, err)
	}
}

func (m *mapModel) HandleEnvelope(env *warp.Envelope) {
	if m.handleLifecycle(env) {
		return
	}
	if env.Tag != warp.TagEvent {
		return
	}
	action, key, value, ok := parseMapBody(env.Body)
	if !ok {
		return
	}
	switch action {
	case "update":
		m.mmu.Lock()
		old, existed := m.m.set(key, value)
		m.mmu.Unlock()
		if !existed {
			old = recon.Absent
		}
		m.fan.fanOutDidUpdate(key, value, old)
	case "remove":
		m.mmu.Lock()
		old, existed := m.m.remove(key)
		m.mmu.Unlock()
		if existed {
			m.fan.fanOutDidRemove(key, old)
		}
	case "clear":
		m.mmu.Lock()
		removed := m.m.clear()
		m.mmu.Unlock()
		for _, e := range removed {
			m.fan.fanOutDidRemove(e.Key, e.Value)
		}
	}
}

// parseMapBody recognizes the @update(key:K) value / @remove(key:K) /
// @clear body shapes spec §4.H specifies, matching how spec §8 scenario 2
// describes @update's parsed shape: a Record whose first item is the
// Attr and whose remaining items collapse to the value.
func parseMapBody(body recon.Value) (action string, key, value recon.Value, ok bool) {
	rec, isRec := body.(*recon.Record)
	if !isRec || rec.Size() == 0 {
		return "", nil, nil, false
	}
	attr, isAttr := rec.Item(0).(recon.Attr)
	if !isAttr {
		return "", nil, nil, false
	}
	switch string(attr.AttrKey) {
	case "update":
		key := slotValue(attr.AttrValue, "key")
		value := recon.Collapse(rec.Items()[1:])
		return "update", key, value, true
	case "remove":
		key := slotValue(attr.AttrValue, "key")
		return "remove", key, recon.Absent, true
	case "clear":
		return "clear", recon.Absent, recon.Absent, true
	default:
		return "", nil, nil, false
	}
}

func slotValue(header recon.Value, name string) recon.Value {
	rec, ok := header.(*recon.Record)
	if !ok {
		return recon.Absent
	}
	for _, it := range rec.Items() {
		slot, ok := it.(recon.Slot)
		if !ok {
			continue
		}
		if keyText, ok := slot.SlotKey.(recon.Text); ok && string(keyText) == name {
			return slot.SlotValue
		}
	}
	return recon.Absent
}

// Get awaits synced if wait is true, then returns the value at key.
func (m *mapModel) Get(ctx context.Context, key recon.Value, wait bool) (recon.Value, bool, error) {
	if wait {
		if err := m.Synced().Wait(ctx); err != nil {
			return nil, false, err
		}
	}
	m.mmu.Lock()
	defer m.mmu.Unlock()
	v, ok := m.m.get(key)
	return v, ok, nil
}

// GetAll awaits synced if wait is true, then returns every entry in
// insertion order.
func (m *mapModel) GetAll(ctx context.Context, wait bool) ([]struct{ Key, Value recon.Value }, error) {
	if wait {
		if err := m.Synced().Wait(ctx); err != nil {
			return nil, err
		}
	}
	m.mmu.Lock()
	defer m.mmu.Unlock()
	return m.m.entries(), nil
}
