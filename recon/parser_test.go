package recon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSlotBlock(t *testing.T) {
	v := Parse("{foo: bar}")
	rec, ok := v.(*Record)
	require.True(t, ok)
	require.Equal(t, 1, rec.Size())
	slot, ok := rec.Item(0).(Slot)
	require.True(t, ok)
	require.True(t, Equal(slot.SlotKey, Text("foo")))
	require.True(t, Equal(slot.SlotValue, Text("bar")))
}

func TestParseAttrThenBareValue(t *testing.T) {
	v := Parse("@update(key: 2){5}")
	rec, ok := v.(*Record)
	require.True(t, ok)
	require.Equal(t, 2, rec.Size())

	attr, ok := rec.Item(0).(Attr)
	require.True(t, ok)
	require.Equal(t, Text("update"), attr.AttrKey)
	inner, ok := attr.AttrValue.(*Record)
	require.True(t, ok)
	require.Equal(t, 1, inner.Size())
	innerSlot, ok := inner.Item(0).(Slot)
	require.True(t, ok)
	require.True(t, Equal(innerSlot.SlotKey, Text("key")))
	require.True(t, Equal(innerSlot.SlotValue, NumInt(2)))

	require.True(t, Equal(rec.Item(1).(Value), NumInt(5)))
}

func TestParseBareIdent(t *testing.T) {
	require.True(t, Equal(Parse("hello"), Text("hello")))
}

func TestParseUnterminatedString(t *testing.T) {
	v := Parse(`"no closing quote`)
	require.Equal(t, Text("no closing quote"), v)
}

func TestParseNumberLeniency(t *testing.T) {
	cases := map[string]Num{
		"007":  NumInt(7),
		"-007": NumInt(-7),
		"1.":   NumFloat(1.0),
		"-.5":  NumFloat(-0.5),
	}
	for text, want := range cases {
		got := Parse(text)
		n, ok := got.(Num)
		require.True(t, ok, "text=%q got=%#v", text, got)
		require.Equal(t, want.isFloat, n.isFloat, "text=%q", text)
		require.InDelta(t, want.Float(), n.Float(), 1e-9, "text=%q", text)
	}
}

func TestParseWhitespaceAroundNumber(t *testing.T) {
	v := Parse("  42  ")
	require.True(t, Equal(v, NumInt(42)))
}

func TestIsIdentClassification(t *testing.T) {
	require.True(t, IsIdent("abc-def"))
	require.True(t, IsIdent("_x1"))
	require.True(t, IsIdent("/room/1"))
	require.False(t, IsIdent(""))
	require.False(t, IsIdent("1abc"))
	require.False(t, IsIdent("has space"))
}

func TestParseIntoAccumulatesOntoExistingBuilder(t *testing.T) {
	builder := Of(Slot{SlotKey: Text("a"), SlotValue: NumInt(1)})
	result := ParseInto(builder, "b: 2")
	require.Equal(t, 2, result.Size())
	s1 := result.Item(1).(Slot)
	require.True(t, Equal(s1.SlotKey, Text("b")))
	require.True(t, Equal(s1.SlotValue, NumInt(2)))
}

func TestParseSyncEnvelopeHeaders(t *testing.T) {
	v := Parse("@sync(node: /room/1, lane: users)")
	rec, ok := v.(*Record)
	require.True(t, ok)
	require.Equal(t, 1, rec.Size())
	attr := rec.Item(0).(Attr)
	require.Equal(t, Text("sync"), attr.AttrKey)
	headers := attr.AttrValue.(*Record)
	require.Equal(t, 2, headers.Size())
	nodeSlot := headers.Item(0).(Slot)
	require.True(t, Equal(nodeSlot.SlotKey, Text("node")))
	require.True(t, Equal(nodeSlot.SlotValue, Text("/room/1")))
	laneSlot := headers.Item(1).(Slot)
	require.True(t, Equal(laneSlot.SlotKey, Text("lane")))
	require.True(t, Equal(laneSlot.SlotValue, Text("users")))
}
