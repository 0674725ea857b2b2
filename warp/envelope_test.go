package warp

import (
	"testing"

	"github.com/DobromirM/warp-go/recon"
	"github.com/stretchr/testify/require"
)

func TestParseSyncEnvelope(t *testing.T) {
	e := ParseRecon("@sync(node: /room/1, lane: users)")
	require.Equal(t, TagSync, e.Tag)
	require.Equal(t, "/room/1", e.Node)
	require.Equal(t, "users", e.Lane)
	require.True(t, e.IsLaneScoped())
	require.Equal(t, "/room/1/users", e.Route())
}

func TestParseEventEnvelopeWithBody(t *testing.T) {
	e := ParseRecon("@event(node: /room/1, lane: chat)hello")
	require.Equal(t, TagEvent, e.Tag)
	require.True(t, recon.Equal(e.Body, recon.Text("hello")))
}

func TestParseCommandEnvelopeRoundTrip(t *testing.T) {
	original := Command("/room/1", "chat", recon.NumInt(42))
	text := original.ToRecon()

	roundTripped := ParseRecon(text)
	require.Equal(t, TagCommand, roundTripped.Tag)
	require.Equal(t, "/room/1", roundTripped.Node)
	require.Equal(t, "chat", roundTripped.Lane)
	require.True(t, recon.Equal(roundTripped.Body, recon.NumInt(42)))
}

func TestAuthEnvelopeHasNoRoute(t *testing.T) {
	e := Auth(recon.Text("token-123"))
	require.False(t, e.IsLaneScoped())
	text := e.ToRecon()
	require.Equal(t, `@auth"token-123"`, text)

	roundTripped := ParseRecon(text)
	require.Equal(t, TagAuth, roundTripped.Tag)
	require.True(t, recon.Equal(roundTripped.Body, recon.Text("token-123")))
}

func TestUnknownTagPreservesRaw(t *testing.T) {
	e := ParseRecon("@mystery(a: 1)")
	require.Equal(t, TagUnknown, e.Tag)
	require.NotNil(t, e.Raw)
	require.Equal(t, "@mystery(a:1)", recon.Write(e.Raw))
}

func TestMapUpdateBodySplicesAlongsideAttr(t *testing.T) {
	e := Event("/room/1", "shoutMap", recon.Of(
		recon.Attr{AttrKey: "update", AttrValue: recon.Of(recon.Slot{SlotKey: recon.Text("key"), SlotValue: recon.Text("k1")})},
		recon.Text("v1"),
	))
	text := e.ToRecon()

	roundTripped := ParseRecon(text)
	require.True(t, recon.Equal(roundTripped.Body, e.Body))
}
