// Package warp implements the typed envelope projection of WARP control
// messages on top of Recon records: parsing a wire frame into an Envelope
// and rendering an Envelope back to its canonical Recon text.
package warp

import "github.com/DobromirM/warp-go/recon"

// Tag identifies an envelope's kind, taken from the leading Attr's key.
type Tag string

const (
	TagLink     Tag = "link"
	TagLinked   Tag = "linked"
	TagSync     Tag = "sync"
	TagSynced   Tag = "synced"
	TagUnlink   Tag = "unlink"
	TagUnlinked Tag = "unlinked"
	TagEvent    Tag = "event"
	TagCommand  Tag = "command"
	TagAuth     Tag = "auth"
	TagAuthed   Tag = "authed"
	TagDeauth   Tag = "deauth"
	TagDeauthed Tag = "deauthed"
	// TagUnknown marks an envelope whose leading Attr is not a recognized
	// WARP tag. Body holds the entire parsed Record; callers may treat it
	// as host-addressed or discard it.
	TagUnknown Tag = ""
)

var laneScopedTags = map[Tag]bool{
	TagLink: true, TagLinked: true,
	TagSync: true, TagSynced: true,
	TagUnlink: true, TagUnlinked: true,
	TagEvent: true, TagCommand: true,
}

var knownTags = map[Tag]bool{
	TagLink: true, TagLinked: true, TagSync: true, TagSynced: true,
	TagUnlink: true, TagUnlinked: true, TagEvent: true, TagCommand: true,
	TagAuth: true, TagAuthed: true, TagDeauth: true, TagDeauthed: true,
}

// Envelope is the typed projection of a Record whose leading Attr is a
// recognized WARP tag.
type Envelope struct {
	Tag  Tag
	Node string
	Lane string

	HasPrio bool
	Prio    float64
	HasRate bool
	Rate    float64

	// Body is the envelope payload: the remaining Items after the header
	// Attr, collapsed the same way the Recon parser collapses a block. A
	// parsed event/command/auth-family envelope with nothing after its
	// header Attr gets an empty Record; Body is nil for the link, sync and
	// unlink families and for envelopes built without a body.
	Body recon.Value

	// Raw holds the full parsed Record for a TagUnknown envelope; nil for
	// recognized tags.
	Raw *recon.Record
}

// IsLaneScoped reports whether e's tag carries node/lane headers and a
// derived Route.
func (e *Envelope) IsLaneScoped() bool {
	return laneScopedTags[e.Tag]
}

// Route returns node_uri + "/" + lane_uri. Only meaningful when
// IsLaneScoped reports true.
func (e *Envelope) Route() string {
	return e.Node + "/" + e.Lane
}

// Link builds a link(node,lane) envelope.
func Link(node, lane string) *Envelope { return &Envelope{Tag: TagLink, Node: node, Lane: lane} }

// Sync builds a sync(node,lane) envelope.
func Sync(node, lane string) *Envelope { return &Envelope{Tag: TagSync, Node: node, Lane: lane} }

// Unlink builds an unlink(node,lane) envelope.
func Unlink(node, lane string) *Envelope {
	return &Envelope{Tag: TagUnlink, Node: node, Lane: lane}
}

// Command builds a command(node,lane) envelope carrying body.
func Command(node, lane string, body recon.Value) *Envelope {
	return &Envelope{Tag: TagCommand, Node: node, Lane: lane, Body: body}
}

// Event builds an event(node,lane) envelope carrying body.
func Event(node, lane string, body recon.Value) *Envelope {
	return &Envelope{Tag: TagEvent, Node: node, Lane: lane, Body: body}
}

// Auth builds a host-scoped auth envelope carrying body.
func Auth(body recon.Value) *Envelope { return &Envelope{Tag: TagAuth, Body: body} }

// Deauth builds a host-scoped deauth envelope carrying body.
func Deauth(body recon.Value) *Envelope { return &Envelope{Tag: TagDeauth, Body: body} }

// ParseRecon parses text as a single Recon value and projects it onto an
// Envelope. An unrecognized leading Attr (or no leading Attr at all)
// yields a TagUnknown envelope whose Raw field holds everything parsed.
func ParseRecon(text string) *Envelope {
	return FromValue(recon.Parse(text))
}

// FromValue projects an already-parsed Recon value onto an Envelope,
// without re-parsing text.
func FromValue(v recon.Value) *Envelope {
	rec, ok := v.(*recon.Record)
	if !ok || rec.Size() == 0 {
		return unknownEnvelope(v)
	}
	attr, ok := rec.Item(0).(recon.Attr)
	if !ok {
		return unknownEnvelope(v)
	}
	tag := Tag(attr.AttrKey)
	f, ok := forms[tag]
	if !ok {
		return unknownEnvelope(v)
	}
	return f.load(attr, rec.Items()[1:])
}

func unknownEnvelope(v recon.Value) *Envelope {
	rec, ok := v.(*recon.Record)
	if !ok {
		rec = recon.Of(v)
	}
	return &Envelope{Tag: TagUnknown, Raw: rec}
}

// ToRecon renders e in canonical Recon wire form.
func (e *Envelope) ToRecon() string {
	return recon.Write(e.ToValue())
}

// ToValue renders e as the Recon Value its form produces.
func (e *Envelope) ToValue() recon.Value {
	if e.Tag == TagUnknown {
		if e.Raw == nil {
			return recon.NewRecord()
		}
		return e.Raw
	}
	f, ok := forms[e.Tag]
	if !ok {
		return recon.NewRecord()
	}
	return f.dump(e)
}
