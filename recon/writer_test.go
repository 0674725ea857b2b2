package recon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTextIdentVsQuoted(t *testing.T) {
	require.Equal(t, `"Hello, World"`, Write(Text("Hello, World")))
	require.Equal(t, "abc-def", Write(Text("abc-def")))
}

func TestWriteAttrExtantVsEmptyRecord(t *testing.T) {
	require.Equal(t, "@tag", Write(Of(Attr{AttrKey: "tag", AttrValue: Extant})))
	require.Equal(t, "@tag()", Write(Of(Attr{AttrKey: "tag", AttrValue: NewRecord()})))
}

func TestWriteTopLevelAttrFollowedBySlotBraces(t *testing.T) {
	rec := Of(
		Attr{AttrKey: "foo", AttrValue: Extant},
		Slot{SlotKey: Text("key"), SlotValue: Text("value")},
	)
	require.Equal(t, "@foo{key:value}", Write(rec))
}

func TestWriteAttrWithSlotBodyNoExtraBraces(t *testing.T) {
	inner := Of(Slot{SlotKey: Text("key"), SlotValue: NumInt(2)})
	rec := Of(Attr{AttrKey: "update", AttrValue: inner})
	require.Equal(t, "@update(key:2)", Write(rec))
}

func TestWriteBool(t *testing.T) {
	require.Equal(t, "true", Write(Bool(true)))
	require.Equal(t, "false", Write(Bool(false)))
}

func TestWriteAbsentAndExtantAreEmpty(t *testing.T) {
	require.Equal(t, "", Write(Absent))
	require.Equal(t, "", Write(Extant))
}

func TestWriteZeroAsEmptyQuirkIsOptIn(t *testing.T) {
	require.Equal(t, "0", Write(NumInt(0)))

	WriteZeroAsEmpty = true
	defer func() { WriteZeroAsEmpty = false }()
	require.Equal(t, "", Write(NumInt(0)))
}

func TestRoundTripParsedValues(t *testing.T) {
	inputs := []string{
		`{foo: bar}`,
		`@update(key: 2){5}`,
		`@tag`,
		`hello`,
		`-42`,
		`3.5`,
		`"needs quoting"`,
	}
	for _, in := range inputs {
		v := Parse(in)
		roundTripped := Parse(Write(v))
		require.True(t, Equal(v, roundTripped), "input=%q write=%q", in, Write(v))
	}
}

func TestRoundTripSyncEnvelope(t *testing.T) {
	v := Parse("@sync(node: /room/1, lane: users)")
	roundTripped := Parse(Write(v))
	require.True(t, Equal(v, roundTripped))
}
