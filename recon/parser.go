package recon

import (
	"strconv"
	"strings"
)

// Parse parses text as a single Recon value. Malformed input never panics
// and never returns an error: the parser returns whatever it managed to
// recognize, treating a missing terminator as end-of-input.
func Parse(text string) Value {
	c := newCursor(text)
	items, fieldCount := parseBlockInto(c, nil, 0)
	return finalize(items, fieldCount)
}

// ParseInto parses text and appends the resulting items after the content
// already held by builder, returning the record the append landed on (see
// Record.Push). This lets callers accumulate items from multiple parses
// into one Record.
func ParseInto(builder *Record, text string) *Record {
	c := newCursor(text)
	target := builder.Mutable()
	items, fieldCount := parseBlockInto(c, target.items, target.fieldCount)
	target.items = items
	target.fieldCount = fieldCount
	return target
}

// parseBlockInto parses `item (sep item)*` where sep is ',', ';', or a
// newline, stopping at end-of-input or an unconsumed ')' / '}'.
func parseBlockInto(c *cursor, items []Item, fieldCount int) ([]Item, int) {
	for {
		c.skipSpace()
		switch c.head() {
		case eof, ')', '}':
			return items, fieldCount
		}
		items, fieldCount = parseItemInto(c, items, fieldCount)
		c.skipSpace()
		switch c.head() {
		case ',', ';', '\n':
			c.step()
			continue
		default:
			return items, fieldCount
		}
	}
}

func canStartValue(r rune) bool {
	switch {
	case r == '"', r == '{', r == '(':
		return true
	case r == '-' || isDigit(r):
		return true
	case IsIdentStart(r):
		return true
	default:
		return false
	}
}

// parseItemInto recognizes one `attrs (value? | slot?) | value (':' value)?`
// production and appends whatever items it produced.
func parseItemInto(c *cursor, items []Item, fieldCount int) ([]Item, int) {
	c.skipSpace()
	if c.head() == '@' {
		items, fieldCount = parseAttrsInto(c, items, fieldCount)
		c.skipSpace()
		if canStartValue(c.head()) {
			items, fieldCount = parseTrailingValueOrSlotInto(c, items, fieldCount)
		}
		return items, fieldCount
	}
	if canStartValue(c.head()) {
		return parseTrailingValueOrSlotInto(c, items, fieldCount)
	}
	if c.head() == ':' {
		c.step()
		c.skipSpace()
		sv := Value(Extant)
		if canStartValue(c.head()) {
			sv = parseValue(c)
		}
		return append(items, Slot{SlotKey: Extant, SlotValue: sv}), fieldCount + 1
	}
	return items, fieldCount
}

func parseAttrsInto(c *cursor, items []Item, fieldCount int) ([]Item, int) {
	for c.head() == '@' {
		c.step()
		name := parseIdentRaw(c)
		var val Value = Extant
		c.skipSpace()
		if c.head() == '(' {
			c.step()
			inner, innerFC := parseBlockInto(c, nil, 0)
			c.skipSpace()
			if c.head() == ')' {
				c.step()
			}
			val = finalize(inner, innerFC)
		}
		items = append(items, Attr{AttrKey: internIdent(name), AttrValue: val})
		fieldCount++
		c.skipSpace()
	}
	return items, fieldCount
}

func parseTrailingValueOrSlotInto(c *cursor, items []Item, fieldCount int) ([]Item, int) {
	v := parseValue(c)
	c.skipSpace()
	if c.head() == ':' {
		c.step()
		c.skipSpace()
		sv := Value(Extant)
		if canStartValue(c.head()) {
			sv = parseValue(c)
		}
		return append(items, Slot{SlotKey: v, SlotValue: sv}), fieldCount + 1
	}
	return append(items, v), fieldCount
}

func parseValue(c *cursor) Value {
	switch r := c.head(); {
	case r == '"':
		return parseString(c)
	case r == '{':
		c.step()
		items, fc := parseBlockInto(c, nil, 0)
		c.skipSpace()
		if c.head() == '}' {
			c.step()
		}
		return finalize(items, fc)
	case r == '(':
		c.step()
		items, fc := parseBlockInto(c, nil, 0)
		c.skipSpace()
		if c.head() == ')' {
			c.step()
		}
		return finalize(items, fc)
	case r == '-' || isDigit(r):
		return parseNumber(c)
	case IsIdentStart(r):
		return internIdent(parseIdentRaw(c))
	default:
		return Absent
	}
}

func parseIdentRaw(c *cursor) string {
	var b strings.Builder
	for IsIdentChar(c.head()) {
		b.WriteRune(c.head())
		c.step()
	}
	return b.String()
}

// parseString parses a quoted string literal, processing the usual set of
// backslash escapes. A missing closing quote is not an error: the literal
// simply ends at end-of-input.
func parseString(c *cursor) Value {
	c.step() // opening quote
	var b strings.Builder
	for {
		r := c.head()
		switch r {
		case eof:
			return Text(b.String())
		case '"':
			c.step()
			return Text(b.String())
		case '\\':
			c.step()
			e := c.head()
			if e == eof {
				return Text(b.String())
			}
			switch e {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			default:
				b.WriteRune(e)
			}
			c.step()
		default:
			b.WriteRune(r)
			c.step()
		}
	}
}

// parseNumber parses `'-'? digits ('.' digits)?`. Leading zeros are
// tolerated. A number with an empty integer part (".5") or an empty
// fractional part ("1.") treats the missing half as 0, so "-." alone
// parses as -0.0.
func parseNumber(c *cursor) Value {
	var b strings.Builder
	if c.head() == '-' {
		b.WriteByte('-')
		c.step()
	}
	hasIntDigits := false
	for isDigit(c.head()) {
		b.WriteRune(c.head())
		hasIntDigits = true
		c.step()
	}
	if !hasIntDigits {
		b.WriteByte('0')
	}
	if c.head() != '.' {
		s := b.String()
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return NumInt(i)
		}
		f, _ := strconv.ParseFloat(s, 64)
		return NumFloat(f)
	}
	c.step()
	b.WriteByte('.')
	hasFracDigits := false
	for isDigit(c.head()) {
		b.WriteRune(c.head())
		hasFracDigits = true
		c.step()
	}
	if !hasFracDigits {
		b.WriteByte('0')
	}
	f, _ := strconv.ParseFloat(b.String(), 64)
	return NumFloat(f)
}
