package warpclient

import (
	"context"
	"sync"

	"github.com/DobromirM/warp-go/recon"
	"github.com/DobromirM/warp-go/warp"
)

// Kind distinguishes the three downlink lane semantics. Mixing kinds at
// the same route is a user-input error (spec §7.3), checked when a view
// is added to an existing manager.
type Kind int

const (
	EventDownlink Kind = iota
	ValueDownlink
	MapDownlink
)

func (k Kind) String() string {
	switch k {
	case EventDownlink:
		return "event"
	case ValueDownlink:
		return "value"
	case MapDownlink:
		return "map"
	default:
		return "unknown"
	}
}

// fanOut is the set of lifecycle/data callbacks a model invokes on its
// owning manager. The manager implements it by iterating its views in
// insertion order and scheduling each view's registered callback on the
// view's executor, per spec §4.G's subscriber fan-out rule.
type fanOut interface {
	fanOutWillLink()
	fanOutDidLink()
	fanOutWillSync()
	fanOutDidSync()
	fanOutWillUnlink()
	fanOutDidUnlink()
	fanOutEvent(body recon.Value)
	fanOutDidSet(newVal, oldVal recon.Value)
	fanOutDidUpdate(key, newVal, oldVal recon.Value)
	fanOutDidRemove(key, oldVal recon.Value)
}

// model is the transport-facing half of a downlink: the state machine
// that sends the initial link/sync envelope, interprets inbound
// envelopes, and calls back into fanOut. It is shared by every view at
// the model's (node, lane); see view.go for the per-view half.
type model interface {
	Kind() Kind
	Open(ctx context.Context, conn *Connection, node, lane string)
	Close()
	HandleEnvelope(env *warp.Envelope)
	Linked() *Signal
	Synced() *Signal
	setRate(r float64)
}

// modelBase implements the lifecycle skeleton common to all three model
// kinds: the linked/synced signals and the will/did link/sync fan-out
// that fires on the corresponding envelopes, per spec §4.H's "Common
// lifecycle" paragraph.
type modelBase struct {
	mu      sync.Mutex
	node    string
	lane    string
	conn    *Connection
	fan     fanOut
	linked  *Signal
	synced  *Signal
	closed  bool
	hasRate bool
	rate    float64
}

func newModelBase(fan fanOut) modelBase {
	return modelBase{fan: fan, linked: NewSignal(), synced: NewSignal()}
}

func (b *modelBase) Linked() *Signal { return b.linked }
func (b *modelBase) Synced() *Signal { return b.synced }

// setRate records the rate (events/sec) the manager wants advertised on
// this downlink's link/sync header. Called by Manager before Open; a zero
// rate leaves the header unset.
func (b *modelBase) setRate(r float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r > 0 {
		b.hasRate = true
		b.rate = r
	}
}

// withRate stamps env's rate header if one was set via setRate.
func (b *modelBase) withRate(env *warp.Envelope) *warp.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hasRate {
		env.HasRate = true
		env.Rate = b.rate
	}
	return env
}

// handleLifecycle processes the tags common to every model kind
// (linked/unlinked/synced) and reports whether env was one of them.
func (b *modelBase) handleLifecycle(env *warp.Envelope) bool {
	switch env.Tag {
	case warp.TagLinked:
		b.fan.fanOutWillLink()
		b.linked.Set()
		b.fan.fanOutDidLink()
		return true
	case warp.TagSynced:
		b.fan.fanOutWillSync()
		b.synced.Set()
		b.fan.fanOutDidSync()
		return true
	case warp.TagUnlinked:
		b.fan.fanOutWillUnlink()
		b.mu.Lock()
		b.linked.Clear()
		b.synced.Clear()
		b.mu.Unlock()
		b.fan.fanOutDidUnlink()
		return true
	default:
		return false
	}
}

func (b *modelBase) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.linked.Clear()
	b.synced.Clear()
}
