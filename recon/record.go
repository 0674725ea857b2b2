package recon

// Record is the only container Value: an ordered sequence of Items that may
// mix Attrs, Slots, and bare Values. Ordering is significant for
// serialization.
//
// A Record is appended to in place until a RecordView aliases it (see
// NewRecordView); from then on every mutating operation copies the backing
// slice so that views keep seeing the original content (copy-on-write).
type Record struct {
	items      []Item
	fieldCount int
	aliased    bool
}

func (*Record) reconValue() {}
func (*Record) reconItem()  {}

// NewRecord returns an empty, mutable Record.
func NewRecord() *Record {
	return &Record{}
}

// Of builds a Record from the given items, in order.
func Of(items ...Item) *Record {
	r := &Record{items: items}
	for _, it := range items {
		if _, ok := it.(Field); ok {
			r.fieldCount++
		}
	}
	return r
}

// Size returns the number of items in the record.
func (r *Record) Size() int { return len(r.items) }

// FieldCount returns the number of items that are Fields (Attr or Slot).
func (r *Record) FieldCount() int { return r.fieldCount }

// Item returns the item at index i.
func (r *Record) Item(i int) Item { return r.items[i] }

// Items returns the record's items. The returned slice must not be mutated
// by the caller; use Mutable/Push to append.
func (r *Record) Items() []Item { return r.items }

// Alias marks r as shared by a RecordView; the next mutating call copies
// the backing slice instead of mutating it in place.
func (r *Record) Alias() *Record {
	r.aliased = true
	return r
}

// Mutable returns a Record safe to append to in place: r itself if it is
// not aliased by any view, or a fresh copy otherwise.
func (r *Record) Mutable() *Record {
	if !r.aliased {
		return r
	}
	return &Record{
		items:      append([]Item(nil), r.items...),
		fieldCount: r.fieldCount,
	}
}

// Push appends item, returning the record the append landed on (itself, or
// a copy-on-write replacement if r was aliased).
func (r *Record) Push(item Item) *Record {
	target := r.Mutable()
	target.items = append(target.items, item)
	if _, ok := item.(Field); ok {
		target.fieldCount++
	}
	return target
}

// RecordView presents a windowed slice [start,end) of a backing Record
// without copying. A RecordView has no mutating methods; Materialize copies
// the window into a standalone Record that can be mutated.
type RecordView struct {
	backing    *Record
	start, end int
}

func (*RecordView) reconValue() {}
func (*RecordView) reconItem()  {}

// NewRecordView returns a view over backing[start:end), marking backing as
// aliased so a later direct mutation of backing copies rather than
// corrupting the view.
func NewRecordView(backing *Record, start, end int) *RecordView {
	backing.Alias()
	return &RecordView{backing: backing, start: start, end: end}
}

// Size returns the number of items in the view's window.
func (v *RecordView) Size() int { return v.end - v.start }

// Item returns the item at index i within the view's window.
func (v *RecordView) Item(i int) Item { return v.backing.items[v.start+i] }

// Items returns the view's windowed slice of the backing record's items.
// The returned slice must not be mutated.
func (v *RecordView) Items() []Item { return v.backing.items[v.start:v.end] }

// FieldCount returns the number of Fields within the view's window.
func (v *RecordView) FieldCount() int {
	n := 0
	for _, it := range v.Items() {
		if _, ok := it.(Field); ok {
			n++
		}
	}
	return n
}

// Materialize copies the view's window into a standalone, unaliased
// Record that can be mutated without affecting the backing record.
func (v *RecordView) Materialize() *Record {
	return Of(append([]Item(nil), v.Items()...)...)
}

// Collapse turns an item list into a Value the way the parser does: a
// single bare Value item collapses to that Value, otherwise the items form
// a Record. Unlike finalize, it does not require a precomputed field
// count, which callers outside this package (e.g. an envelope codec
// slicing a body out of a parsed Record) do not have on hand.
func Collapse(items []Item) Value {
	n := 0
	for _, it := range items {
		if _, ok := it.(Field); ok {
			n++
		}
	}
	return finalize(items, n)
}

// finalize collapses a parsed item list down to a bare Value when it holds
// exactly one item and that item is a Value, not a Field — a Record with no
// headers and exactly one Value item is indistinguishable from that Value.
// Otherwise it wraps the items in a Record.
func finalize(items []Item, fieldCount int) Value {
	if fieldCount == 0 && len(items) == 1 {
		if v, ok := items[0].(Value); ok {
			return v
		}
	}
	return &Record{items: items, fieldCount: fieldCount}
}
