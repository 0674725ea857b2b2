package warpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/DobromirM/warp-go/retry"
	"github.com/DobromirM/warp-go/warp"
)

// echoDispatcher records every envelope a Connection hands it.
type echoDispatcher struct {
	mu   sync.Mutex
	envs []*warp.Envelope
	host []string
}

func (d *echoDispatcher) Dispatch(hostURI string, env *warp.Envelope) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.envs = append(d.envs, env)
	d.host = append(d.host, hostURI)
}

func (d *echoDispatcher) snapshot() ([]*warp.Envelope, []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*warp.Envelope(nil), d.envs...), append([]string(nil), d.host...)
}

// newEchoServer starts a loopback WebSocket server that relays every frame
// it reads back to the client that sent it, and returns its ws:// URL.
func newEchoServer(t *testing.T) string {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnectionOpenAndSendReceive(t *testing.T) {
	url := newEchoServer(t)
	dispatcher := &echoDispatcher{}
	conn := newConnection(url, retry.NewInterval(10*time.Millisecond, 3), nil, time.Second, dispatcher, nil, nil)

	require.NoError(t, conn.Open(context.Background()))
	require.Equal(t, StatusIdle, conn.Status())

	go conn.WaitForMessages(context.Background())

	require.NoError(t, conn.SendMessage(context.Background(), warp.Link("/a", "foo").ToRecon()))

	require.Eventually(t, func() bool {
		envs, _ := dispatcher.snapshot()
		return len(envs) == 1
	}, time.Second, 5*time.Millisecond)

	envs, hosts := dispatcher.snapshot()
	require.Equal(t, warp.TagLink, envs[0].Tag)
	require.Equal(t, url, hosts[0])

	conn.Close()
	require.Equal(t, StatusClosed, conn.Status())
}

func TestConnectionAuthedTogglesSignal(t *testing.T) {
	url := newEchoServer(t)
	dispatcher := &echoDispatcher{}
	conn := newConnection(url, retry.NewInterval(10*time.Millisecond, 3), nil, time.Second, dispatcher, nil, nil)

	require.NoError(t, conn.Open(context.Background()))
	go conn.WaitForMessages(context.Background())

	require.False(t, conn.authenticated.IsSet())
	authed := (&warp.Envelope{Tag: warp.TagAuthed}).ToRecon()
	require.NoError(t, conn.SendMessage(context.Background(), authed))

	require.Eventually(t, func() bool {
		return conn.authenticated.IsSet()
	}, time.Second, 5*time.Millisecond)

	deauthed := (&warp.Envelope{Tag: warp.TagDeauthed}).ToRecon()
	require.NoError(t, conn.SendMessage(context.Background(), deauthed))
	require.Eventually(t, func() bool {
		return !conn.authenticated.IsSet()
	}, time.Second, 5*time.Millisecond)

	conn.Close()
}

func TestConnectionWithoutServerFailsWhenNoReconnect(t *testing.T) {
	dispatcher := &echoDispatcher{}
	conn := newConnection("ws://127.0.0.1:1", retry.None{}, nil, 100*time.Millisecond, dispatcher, func(error) {}, nil)

	err := conn.Open(context.Background())
	require.Error(t, err)
	require.Equal(t, StatusClosed, conn.Status())
}
