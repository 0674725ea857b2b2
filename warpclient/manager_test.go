package warpclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DobromirM/warp-go/recon"
	"github.com/DobromirM/warp-go/retry"
)

// syncExecutor runs every scheduled task synchronously on the caller's
// goroutine, so fan-out order can be asserted deterministically.
type syncExecutor struct{}

func (syncExecutor) Schedule(task func() (any, error)) Handle {
	val, err := task()
	return &goHandle{done: closedDone, val: val, err: err}
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func newTestManagerConn(t *testing.T, dispatcher Dispatcher) *Connection {
	url := newEchoServer(t)
	return newConnection(url, retry.NewInterval(10*time.Millisecond, 3), nil, time.Second, dispatcher, nil, nil)
}

func newTestView(kind Kind) *View {
	return &View{kind: kind, executor: syncExecutor{}}
}

func TestManagerFanOutOrderMatchesInsertion(t *testing.T) {
	mp := newManagerPool(nil)
	mgr := newManager(mp, "/a", "foo")
	conn := newTestManagerConn(t, mp)

	var order []int
	v1 := newTestView(EventDownlink)
	v1.onEvent = func(recon.Value) { order = append(order, 1) }
	v2 := newTestView(EventDownlink)
	v2.onEvent = func(recon.Value) { order = append(order, 2) }
	v3 := newTestView(EventDownlink)
	v3.onEvent = func(recon.Value) { order = append(order, 3) }

	require.NoError(t, mgr.addView(context.Background(), conn, v1))
	require.NoError(t, mgr.addView(context.Background(), conn, v2))
	require.NoError(t, mgr.addView(context.Background(), conn, v3))

	mgr.fanOutEvent(recon.NumInt(1))

	require.Equal(t, []int{1, 2, 3}, order)
}

func TestManagerKindMismatchRejected(t *testing.T) {
	mp := newManagerPool(nil)
	mgr := newManager(mp, "/a", "foo")
	conn := newTestManagerConn(t, mp)

	v1 := newTestView(EventDownlink)
	require.NoError(t, mgr.addView(context.Background(), conn, v1))

	v2 := newTestView(ValueDownlink)
	err := mgr.addView(context.Background(), conn, v2)
	require.ErrorIs(t, err, ErrKindMismatch)
}

func TestManagerRateLimiterThrottlesDataFanOut(t *testing.T) {
	mp := newManagerPool(nil)
	mgr := newManager(mp, "/a", "foo")
	conn := newTestManagerConn(t, mp)

	var fired int
	v := newTestView(EventDownlink)
	v.rate = 1 // one event/sec, burst 1
	v.onEvent = func(recon.Value) { fired++ }

	require.NoError(t, mgr.addView(context.Background(), conn, v))
	require.InDelta(t, 1.0, mgr.rateRequest(), 0.0001)

	mgr.fanOutEvent(recon.NumInt(1))
	mgr.fanOutEvent(recon.NumInt(2))
	mgr.fanOutEvent(recon.NumInt(3))

	require.Equal(t, 1, fired, "burst-1 limiter should admit only the first of three immediate events")
}

func TestManagerRemoveViewClosesModelWhenEmpty(t *testing.T) {
	mp := newManagerPool(nil)
	mgr := newManager(mp, "/a", "foo")
	conn := newTestManagerConn(t, mp)
	mgr.pool.client = &Client{pool: NewPool(mp)}

	v1 := newTestView(EventDownlink)
	v1.hostURI = "ws://unused"
	require.NoError(t, mgr.addView(context.Background(), conn, v1))
	require.Equal(t, ManagerOpen, mgr.status)

	mgr.removeView(v1)

	require.Equal(t, ManagerClosed, mgr.status)
	_, ok := mp.get(mgr.route)
	require.False(t, ok)
}
