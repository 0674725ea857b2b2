package warp

import "github.com/DobromirM/warp-go/recon"

// form is the bidirectional mapping between an Envelope's typed fields and
// its canonical Record: a leading Attr whose key is the tag and whose
// value is a Record of header slots, followed by the body as remaining
// Items.
type form struct {
	load func(attr recon.Attr, body []recon.Item) *Envelope
	dump func(e *Envelope) recon.Value
}

var forms map[Tag]form

func init() {
	forms = make(map[Tag]form, len(knownTags))

	for _, tag := range []Tag{TagLink, TagLinked, TagSync, TagSynced, TagUnlink, TagUnlinked} {
		t := tag
		forms[t] = form{
			load: func(attr recon.Attr, body []recon.Item) *Envelope {
				e := &Envelope{Tag: t}
				loadHeaders(e, attr.AttrValue)
				return e
			},
			dump: func(e *Envelope) recon.Value {
				return recon.Of(recon.Attr{AttrKey: recon.Text(t), AttrValue: headersValue(e)})
			},
		}
	}

	for _, tag := range []Tag{TagEvent, TagCommand} {
		t := tag
		forms[t] = form{
			load: func(attr recon.Attr, body []recon.Item) *Envelope {
				e := &Envelope{Tag: t}
				loadHeaders(e, attr.AttrValue)
				e.Body = recon.Collapse(body)
				return e
			},
			dump: func(e *Envelope) recon.Value {
				items := []recon.Item{recon.Attr{AttrKey: recon.Text(t), AttrValue: headersValue(e)}}
				return recon.Of(appendBody(items, e.Body)...)
			},
		}
	}

	for _, tag := range []Tag{TagAuth, TagAuthed, TagDeauth, TagDeauthed} {
		t := tag
		forms[t] = form{
			load: func(attr recon.Attr, body []recon.Item) *Envelope {
				e := &Envelope{Tag: t}
				e.Body = recon.Collapse(body)
				return e
			},
			dump: func(e *Envelope) recon.Value {
				items := []recon.Item{recon.Attr{AttrKey: recon.Text(t), AttrValue: recon.Extant}}
				return recon.Of(appendBody(items, e.Body)...)
			},
		}
	}
}

func loadHeaders(e *Envelope, v recon.Value) {
	switch rec := v.(type) {
	case *recon.Record:
		for _, it := range rec.Items() {
			applyHeaderItem(e, it)
		}
	case *recon.RecordView:
		for _, it := range rec.Items() {
			applyHeaderItem(e, it)
		}
	}
}

func applyHeaderItem(e *Envelope, it recon.Item) {
	slot, ok := it.(recon.Slot)
	if !ok {
		return
	}
	key, ok := slot.SlotKey.(recon.Text)
	if !ok {
		return
	}
	switch string(key) {
	case "node":
		e.Node = textValue(slot.SlotValue)
	case "lane":
		e.Lane = textValue(slot.SlotValue)
	case "prio":
		if n, ok := slot.SlotValue.(recon.Num); ok {
			e.Prio, e.HasPrio = n.Float(), true
		}
	case "rate":
		if n, ok := slot.SlotValue.(recon.Num); ok {
			e.Rate, e.HasRate = n.Float(), true
		}
	}
}

func textValue(v recon.Value) string {
	if t, ok := v.(recon.Text); ok {
		return string(t)
	}
	return recon.Write(v)
}

func headersValue(e *Envelope) recon.Value {
	items := []recon.Item{
		recon.Slot{SlotKey: recon.Text("node"), SlotValue: recon.Text(e.Node)},
		recon.Slot{SlotKey: recon.Text("lane"), SlotValue: recon.Text(e.Lane)},
	}
	if e.HasPrio {
		items = append(items, recon.Slot{SlotKey: recon.Text("prio"), SlotValue: recon.NumFloat(e.Prio)})
	}
	if e.HasRate {
		items = append(items, recon.Slot{SlotKey: recon.Text("rate"), SlotValue: recon.NumFloat(e.Rate)})
	}
	return recon.Of(items...)
}

// appendBody appends body's contents to items the way the writer expects
// them: a Record/RecordView body splices its items in directly (so a map
// downlink's @update(...) attribute sits alongside its siblings rather than
// nesting one level deeper), anything else appends as a single bare Item.
func appendBody(items []recon.Item, body recon.Value) []recon.Item {
	if body == nil || recon.IsAbsent(body) {
		return items
	}
	switch b := body.(type) {
	case *recon.Record:
		return append(items, b.Items()...)
	case *recon.RecordView:
		return append(items, b.Items()...)
	default:
		return append(items, body)
	}
}
