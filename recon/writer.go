package recon

import (
	"strconv"
	"strings"
)

// WriteZeroAsEmpty reproduces a quirk of the reference writer this package
// is ported from: its number writer used a truthiness check before
// appending a numeral, so a literal integer or float zero silently wrote
// as nothing. Left false (the corrected behavior) unless a peer expects
// the legacy on-wire quirk.
var WriteZeroAsEmpty = false

// Write renders v in canonical Recon form. Write is the exact inverse of
// Parse for every Value Parse can produce: Parse(Write(v)) == v.
func Write(v Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case *Record:
		writeBlock(b, t.items)
	case *RecordView:
		writeBlock(b, t.Items())
	case Text:
		writeText(b, string(t))
	case Num:
		writeNumber(b, t)
	case Bool:
		if bool(t) {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	default:
		// Extant and Absent both write empty.
	}
}

func writeText(b *strings.Builder, s string) {
	if IsIdent(s) {
		b.WriteString(s)
		return
	}
	writeQuoted(b, s)
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}

func writeNumber(b *strings.Builder, n Num) {
	if WriteZeroAsEmpty {
		if (!n.isFloat && n.i == 0) || (n.isFloat && n.f == 0) {
			return
		}
	}
	if n.isFloat {
		writeFloat(b, n.f)
		return
	}
	writeInt(b, n.i)
}

// writeItem writes a single Item (Attr, Slot, or bare Value) in isolation.
func writeItem(b *strings.Builder, item Item) {
	switch it := item.(type) {
	case Attr:
		writeAttr(b, it.AttrKey, it.AttrValue)
	case Slot:
		writeSlot(b, it.SlotKey, it.SlotValue)
	default:
		writeValue(b, item.(Value))
	}
}

func writeAttr(b *strings.Builder, key Text, value Value) {
	b.WriteByte('@')
	writeText(b, string(key))
	if IsExtant(value) {
		return
	}
	b.WriteByte('(')
	writeValue(b, value)
	b.WriteByte(')')
}

func writeSlot(b *strings.Builder, key, value Value) {
	writeValue(b, key)
	b.WriteByte(':')
	writeValue(b, value)
}

// writeBlock writes a record's items per the canonical block rules: Attrs
// and bare non-Record Values are emitted inline with no separator; Slots
// and nested Records are comma-separated; if a Slot is the first such item
// and any prior output exists other than a lone '(', the slot group is
// wrapped in '{' '}'.
func writeBlock(b *strings.Builder, items []Item) {
	first := true
	inBraces := false
	lastByte := byte(0)
	startLen := b.Len()
	write := func(s string) {
		if len(s) == 0 {
			return
		}
		b.WriteString(s)
		lastByte = s[len(s)-1]
	}

	for _, item := range items {
		if attr, ok := item.(Attr); ok {
			var ib strings.Builder
			writeAttr(&ib, attr.AttrKey, attr.AttrValue)
			write(ib.String())
			continue
		}
		if slot, ok := item.(Slot); ok {
			if !first {
				write(",")
			} else if b.Len() > startLen && lastByte != '(' {
				write("{")
				inBraces = true
			}
			var ib strings.Builder
			writeSlot(&ib, slot.SlotKey, slot.SlotValue)
			write(ib.String())
			first = false
			continue
		}
		val := item.(Value)
		if isRecordLike(val) {
			if !first {
				write(",")
			}
			var ib strings.Builder
			writeValue(&ib, val)
			write(ib.String())
			first = false
			continue
		}
		var ib strings.Builder
		if t, ok := val.(Text); ok && IsIdentChar(rune(lastByte)) {
			// An identifier written straight after a bare @tag would read
			// back as part of the tag name, so it is quoted instead.
			writeQuoted(&ib, string(t))
		} else {
			writeValue(&ib, val)
		}
		write(ib.String())
	}
	if inBraces {
		write("}")
	}
}

func writeInt(b *strings.Builder, i int64) {
	b.WriteString(strconv.FormatInt(i, 10))
}

func writeFloat(b *strings.Builder, f float64) {
	b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}

func isRecordLike(v Value) bool {
	switch v.(type) {
	case *Record, *RecordView:
		return true
	default:
		return false
	}
}
