package warpclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/DobromirM/warp-go/recon"
	"github.com/DobromirM/warp-go/warp"
)

// newWarpTestServer starts a loopback server that, for every sync(node,lane)
// it receives, replies with synced(node,lane) followed by a single
// event(node,lane) carrying value. Every other inbound frame is recorded but
// otherwise ignored.
func newWarpTestServer(t *testing.T, value recon.Value) (url string, received func() []*warp.Envelope) {
	upgrader := websocket.Upgrader{}
	var mu sync.Mutex
	var envs []*warp.Envelope

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			env := warp.ParseRecon(string(data))
			mu.Lock()
			envs = append(envs, env)
			mu.Unlock()

			if env.Tag == warp.TagSync {
				synced := (&warp.Envelope{Tag: warp.TagSynced, Node: env.Node, Lane: env.Lane}).ToRecon()
				if err := conn.WriteMessage(websocket.TextMessage, []byte(synced)); err != nil {
					return
				}
				event := warp.Event(env.Node, env.Lane, value).ToRecon()
				if err := conn.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), func() []*warp.Envelope {
		mu.Lock()
		defer mu.Unlock()
		return append([]*warp.Envelope(nil), envs...)
	}
}

func TestClientTwoValueViewsShareOneSync(t *testing.T) {
	url, received := newWarpTestServer(t, recon.NumInt(42))
	c := NewClient()
	defer c.Close()

	var mu sync.Mutex
	var sets [][2]recon.Value
	record := func(n, o recon.Value) {
		mu.Lock()
		sets = append(sets, [2]recon.Value{n, o})
		mu.Unlock()
	}

	v1, err := c.OpenValueDownlink().
		SetHostURI(url).SetNodeURI("/a").SetLaneURI("val").
		DidSet(record).
		Open()
	require.NoError(t, err)
	defer v1.Close()

	v2, err := c.OpenValueDownlink().
		SetHostURI(url).SetNodeURI("/a").SetLaneURI("val").
		DidSet(record).
		Open()
	require.NoError(t, err)
	defer v2.Close()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sets) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, s := range sets {
		require.True(t, recon.Equal(s[0], recon.NumInt(42)))
		require.True(t, recon.IsExtant(s[1]))
	}

	syncCount := 0
	for _, e := range received() {
		if e.Tag == warp.TagSync {
			syncCount++
		}
	}
	require.Equal(t, 1, syncCount, "two views on the same route must share a single sync")
}

func TestClientGetValueBlocksUntilSynced(t *testing.T) {
	url, _ := newWarpTestServer(t, recon.Text("hello"))
	c := NewClient()
	defer c.Close()

	v, err := c.OpenValueDownlink().
		SetHostURI(url).SetNodeURI("/a").SetLaneURI("greeting").
		DidSet(func(newVal, oldVal recon.Value) {}).
		Open()
	require.NoError(t, err)
	defer v.Close()

	got, err := v.GetValue(newTestCtx())
	require.NoError(t, err)
	require.True(t, recon.Equal(got, recon.Text("hello")))
}

func TestClientCommandSendsOneShotEnvelope(t *testing.T) {
	url, received := newWarpTestServer(t, recon.Extant)
	c := NewClient()
	defer c.Close()

	require.NoError(t, c.Command(url, "/a", "foo", recon.NumInt(7)))

	require.Eventually(t, func() bool {
		for _, e := range received() {
			if e.Tag == warp.TagCommand {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}
