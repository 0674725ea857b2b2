package warpclient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeHostURI(t *testing.T) {
	cases := map[string]string{
		"warp://example.com":  "ws://example.com",
		"warps://example.com": "wss://example.com",
		"ws://example.com":    "ws://example.com",
		"wss://example.com":   "wss://example.com",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeHostURI(in))
	}
}

func TestPoolGetConnectionCachesByNormalizedHost(t *testing.T) {
	p := NewPool(&echoDispatcher{})
	defer p.Close()

	a := p.GetConnection("warp://example.com")
	b := p.GetConnection("ws://example.com")
	require.Same(t, a, b, "warp:// and ws:// for the same host must resolve to one connection")

	c := p.GetConnection("warp://other.com")
	require.NotSame(t, a, c)
}

func TestPoolAddRemoveDownlinkManagerEvictsAtZero(t *testing.T) {
	p := NewPool(&echoDispatcher{})
	defer p.Close()

	mgr1 := &Manager{}
	mgr2 := &Manager{}

	conn := p.AddDownlinkManager("ws://example.com", mgr1, false, false)
	require.Equal(t, 1, conn.SubscriberCount())

	p.AddDownlinkManager("ws://example.com", mgr2, false, false)
	require.Equal(t, 2, conn.SubscriberCount())

	p.RemoveDownlinkManager("ws://example.com", mgr1)
	require.Equal(t, 1, conn.SubscriberCount())

	p.RemoveDownlinkManager("ws://example.com", mgr2)

	other := p.GetConnection("ws://example.com")
	require.NotSame(t, conn, other, "connection should be evicted once its last subscriber leaves")
}
