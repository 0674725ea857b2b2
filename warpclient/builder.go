package warpclient

import (
	"errors"

	"github.com/DobromirM/warp-go/recon"
)

var errMissingURI = errors.New("warpclient: host/node/lane URI must all be set before Open")

// Builder constructs a View through the fluent interface spec §6
// specifies (set_host_uri, set_node_uri, ... keep_linked, on_event, ...
// open, close). Each setter returns the builder so calls chain; Open
// validates and registers the view.
type Builder struct {
	client *Client
	view   *View
}

func newBuilder(client *Client, kind Kind) *Builder {
	return &Builder{client: client, view: &View{kind: kind, executor: client.executor}}
}

// SetHostURI sets the downlink's host URI (warp://, warps://, ws://, or
// wss://; normalized on use).
func (b *Builder) SetHostURI(hostURI string) *Builder {
	b.view.hostURI = hostURI
	return b
}

// SetNodeURI sets the node URI.
func (b *Builder) SetNodeURI(nodeURI string) *Builder {
	b.view.nodeURI = nodeURI
	return b
}

// SetLaneURI sets the lane URI.
func (b *Builder) SetLaneURI(laneURI string) *Builder {
	b.view.laneURI = laneURI
	return b
}

// KeepLinked sets whether the underlying connection should reconnect to
// preserve this view's link across a transport drop.
func (b *Builder) KeepLinked(keep bool) *Builder {
	b.view.keepLinked = keep
	return b
}

// KeepSynced sets whether the underlying connection should reconnect to
// preserve this view's sync across a transport drop.
func (b *Builder) KeepSynced(keep bool) *Builder {
	b.view.keepSynced = keep
	return b
}

// SetRate advertises eventsPerSec on the downlink's link/sync header (spec
// §4.D's optional `rate` field) and throttles the manager's data fan-out
// to roughly that pace. The header carries the rate of the view that
// opened the route; the throttle follows the highest rate requested by any
// view sharing the route.
func (b *Builder) SetRate(eventsPerSec float64) *Builder {
	b.view.rate = eventsPerSec
	return b
}

// OnEvent registers the event-downlink data callback. Builders validate
// that callbacks are invocable (spec §6); a nil fn is rejected at Open.
func (b *Builder) OnEvent(fn func(body recon.Value)) *Builder {
	b.view.onEvent = fn
	return b
}

// DidSet registers the value-downlink data callback.
func (b *Builder) DidSet(fn func(newVal, oldVal recon.Value)) *Builder {
	b.view.didSet = fn
	return b
}

// DidUpdate registers the map-downlink update callback.
func (b *Builder) DidUpdate(fn func(key, newVal, oldVal recon.Value)) *Builder {
	b.view.didUpdate = fn
	return b
}

// DidRemove registers the map-downlink remove callback.
func (b *Builder) DidRemove(fn func(key, oldVal recon.Value)) *Builder {
	b.view.didRemove = fn
	return b
}

// WillLink registers the pre-link lifecycle callback.
func (b *Builder) WillLink(fn func()) *Builder { b.view.willLink = fn; return b }

// DidLink registers the post-link lifecycle callback.
func (b *Builder) DidLink(fn func()) *Builder { b.view.didLink = fn; return b }

// WillSync registers the pre-sync lifecycle callback.
func (b *Builder) WillSync(fn func()) *Builder { b.view.willSync = fn; return b }

// DidSync registers the post-sync lifecycle callback.
func (b *Builder) DidSync(fn func()) *Builder { b.view.didSync = fn; return b }

// WillUnlink registers the pre-unlink lifecycle callback.
func (b *Builder) WillUnlink(fn func()) *Builder { b.view.willUnlink = fn; return b }

// DidUnlink registers the post-unlink lifecycle callback.
func (b *Builder) DidUnlink(fn func()) *Builder { b.view.didUnlink = fn; return b }

// DidOpen registers the callback fired once per successful subscribe.
func (b *Builder) DidOpen(fn func()) *Builder { b.view.didOpen = fn; return b }

// DidClose registers the callback fired once per unsubscribe.
func (b *Builder) DidClose(fn func()) *Builder { b.view.didClose = fn; return b }

// Open validates the builder's view and registers it with the client,
// returning the live View on success.
func (b *Builder) Open() (*View, error) {
	if b.view.hostURI == "" || b.view.nodeURI == "" || b.view.laneURI == "" {
		return nil, errMissingURI
	}
	if !b.view.hasKindCallback() {
		return nil, ErrNotCallable
	}
	return b.client.openView(b.view)
}
