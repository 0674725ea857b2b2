// Package recon implements the Recon notation: a self-describing textual
// serialization for structured values used to encode WARP envelopes.
//
// A Value is a sum type: Record, Text, Num, Bool, Extant, or Absent. An Item
// stored inside a Record is either a bare Value or a Field (Attr or Slot).
// Extant and Absent are process-wide singletons; every other Value is a
// plain immutable Go value or a Record pointer.
package recon

// Value is the Recon value sum type. The concrete variants are Text, Num,
// Bool, *Record, *RecordView, and the two singletons Extant and Absent.
type Value interface {
	Item
	reconValue()
}

// Item is anything that can appear inside a Record: a bare Value or a
// Field (Attr/Slot).
type Item interface {
	reconItem()
}

// Field is an Item that carries a key: Attr or Slot.
type Field interface {
	Item
	reconField()
}

// Text is a UTF-8 string value.
type Text string

func (Text) reconValue() {}
func (Text) reconItem()  {}

// Num is an integer or floating-point numeric value. The zero Num is the
// integer 0.
type Num struct {
	isFloat bool
	i       int64
	f       float64
}

func (Num) reconValue() {}
func (Num) reconItem()  {}

// NumInt constructs an integer Num.
func NumInt(i int64) Num { return Num{i: i} }

// NumFloat constructs a floating-point Num.
func NumFloat(f float64) Num { return Num{isFloat: true, f: f} }

// IsFloat reports whether n was parsed or constructed as a float.
func (n Num) IsFloat() bool { return n.isFloat }

// Int returns n's integer value, truncating if n is a float.
func (n Num) Int() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

// Float returns n's value as a float64.
func (n Num) Float() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// Bool is a boolean value.
type Bool bool

func (Bool) reconValue() {}
func (Bool) reconItem()  {}

type extantType struct{}

func (extantType) reconValue() {}
func (extantType) reconItem()  {}

// Extant is the distinguished "present but empty" singleton, e.g. the
// implicit value of a bare @tag attribute.
var Extant Value = extantType{}

type absentType struct{}

func (absentType) reconValue() {}
func (absentType) reconItem()  {}

// Absent is the distinguished "no value" singleton.
var Absent Value = absentType{}

// IsExtant reports whether v is the Extant singleton.
func IsExtant(v Value) bool {
	_, ok := v.(extantType)
	return ok
}

// IsAbsent reports whether v is the Absent singleton.
func IsAbsent(v Value) bool {
	_, ok := v.(absentType)
	return ok
}

// Attr is a header-style field, written `@key` or `@key(value)`.
type Attr struct {
	AttrKey   Text
	AttrValue Value
}

func (Attr) reconItem()  {}
func (Attr) reconField() {}

// Slot is a key/value field, written `key:value`.
type Slot struct {
	SlotKey   Value
	SlotValue Value
}

func (Slot) reconItem()  {}
func (Slot) reconField() {}

// Equal reports whether a and b are structurally equal. Extant and Absent
// compare equal to themselves regardless of which instance is held, since
// both are zero-sized singletons.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Text:
		bv, ok := b.(Text)
		return ok && av == bv
	case Num:
		bv, ok := b.(Num)
		return ok && av.isFloat == bv.isFloat && av.i == bv.i && av.f == bv.f
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case extantType:
		_, ok := b.(extantType)
		return ok
	case absentType:
		_, ok := b.(absentType)
		return ok
	case *Record:
		bItems, ok := itemsOf(b)
		return ok && equalItems(av.items, bItems)
	case *RecordView:
		bItems, ok := itemsOf(b)
		return ok && equalItems(av.Items(), bItems)
	default:
		return false
	}
}

func itemsOf(v Value) ([]Item, bool) {
	switch t := v.(type) {
	case *Record:
		return t.items, true
	case *RecordView:
		return t.Items(), true
	default:
		return nil, false
	}
}

func equalItems(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalItem(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalItem(a, b Item) bool {
	switch av := a.(type) {
	case Attr:
		bv, ok := b.(Attr)
		return ok && av.AttrKey == bv.AttrKey && Equal(av.AttrValue, bv.AttrValue)
	case Slot:
		bv, ok := b.(Slot)
		return ok && Equal(av.SlotKey, bv.SlotKey) && Equal(av.SlotValue, bv.SlotValue)
	default:
		aVal, aok := a.(Value)
		bVal, bok := b.(Value)
		return aok && bok && Equal(aVal, bVal)
	}
}
