package warpclient

import (
	"testing"

	"github.com/DobromirM/warp-go/recon"
	"github.com/stretchr/testify/require"
)

func TestBuilderOpenRejectsMissingURI(t *testing.T) {
	c := &Client{executor: NewGoExecutor()}

	_, err := c.OpenEventDownlink().SetNodeURI("/a").SetLaneURI("foo").Open()
	require.ErrorIs(t, err, errMissingURI)

	_, err = c.OpenEventDownlink().SetHostURI("ws://example.com").SetLaneURI("foo").Open()
	require.ErrorIs(t, err, errMissingURI)

	_, err = c.OpenEventDownlink().SetHostURI("ws://example.com").SetNodeURI("/a").Open()
	require.ErrorIs(t, err, errMissingURI)
}

func TestBuilderOpenRejectsMissingCallback(t *testing.T) {
	c := &Client{executor: NewGoExecutor()}

	_, err := c.OpenEventDownlink().SetHostURI("ws://example.com").SetNodeURI("/a").SetLaneURI("foo").Open()
	require.ErrorIs(t, err, ErrNotCallable)

	_, err = c.OpenValueDownlink().SetHostURI("ws://example.com").SetNodeURI("/a").SetLaneURI("foo").Open()
	require.ErrorIs(t, err, ErrNotCallable)

	_, err = c.OpenMapDownlink().SetHostURI("ws://example.com").SetNodeURI("/a").SetLaneURI("m").Open()
	require.ErrorIs(t, err, ErrNotCallable)

	b := c.OpenMapDownlink().SetHostURI("ws://example.com").SetNodeURI("/a").SetLaneURI("m").
		DidRemove(func(key, oldVal recon.Value) {})
	require.True(t, b.view.hasKindCallback())
}

func TestBuilderChainSetsFields(t *testing.T) {
	c := &Client{executor: NewGoExecutor()}
	b := c.OpenMapDownlink().
		SetHostURI("ws://example.com").
		SetNodeURI("/a").
		SetLaneURI("m").
		KeepLinked(true).
		KeepSynced(true)

	require.Equal(t, "ws://example.com", b.view.hostURI)
	require.Equal(t, "/a", b.view.nodeURI)
	require.Equal(t, "m", b.view.laneURI)
	require.True(t, b.view.keepLinked)
	require.True(t, b.view.keepSynced)
	require.Equal(t, MapDownlink, b.view.kind)
}
