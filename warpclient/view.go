package warpclient

import (
	"context"
	"sync"

	"github.com/DobromirM/warp-go/recon"
)

// ViewStatus is a downlink view's lifecycle state, per spec §4.A:
// detached → open → closed.
type ViewStatus int

const (
	ViewDetached ViewStatus = iota
	ViewOpen
	ViewClosed
)

// View is the user-facing half of a downlink: the callbacks and
// kind-specific options a caller registers, plus enough identity to
// resolve the shared Manager/model it rides on. Per spec §4.H's
// "View/Model split," many Views at the same (host,node,lane) share one
// Model and one Connection while each receives callbacks independently.
type View struct {
	mu     sync.Mutex
	status ViewStatus
	kind   Kind

	hostURI string
	nodeURI string
	laneURI string

	keepLinked bool
	keepSynced bool
	rate       float64

	executor Executor
	client   *Client
	manager  *Manager

	onEvent   func(body recon.Value)
	didSet    func(newVal, oldVal recon.Value)
	didUpdate func(key, newVal, oldVal recon.Value)
	didRemove func(key, oldVal recon.Value)

	willLink, didLink     func()
	willSync, didSync     func()
	willUnlink, didUnlink func()
	didOpen, didClose     func()
}

// Status returns the view's current lifecycle state.
func (v *View) Status() ViewStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Route returns nodeURI + "/" + laneURI, the manager-pool key this view
// resolves to.
func (v *View) Route() string { return v.nodeURI + "/" + v.laneURI }

// hasKindCallback reports whether the view has registered the data
// callback its kind delivers values through: onEvent for an event
// downlink, didSet for a value downlink, and at least one of
// didUpdate/didRemove for a map downlink.
func (v *View) hasKindCallback() bool {
	switch v.kind {
	case EventDownlink:
		return v.onEvent != nil
	case ValueDownlink:
		return v.didSet != nil
	case MapDownlink:
		return v.didUpdate != nil || v.didRemove != nil
	default:
		return false
	}
}

func (v *View) schedule(task func()) {
	if task == nil {
		return
	}
	v.executor.Schedule(func() (any, error) {
		task()
		return nil, nil
	})
}

// open resolves the view's connection and manager, registers itself, and
// transitions to ViewOpen. It is the operation the builder's Open()
// drives; calling it twice is a no-op.
func (v *View) open(ctx context.Context) error {
	v.mu.Lock()
	if v.status != ViewDetached {
		v.mu.Unlock()
		return nil
	}
	v.status = ViewOpen
	v.mu.Unlock()

	mgr, err := v.client.attachView(ctx, v)
	if err != nil {
		v.mu.Lock()
		v.status = ViewDetached
		v.mu.Unlock()
		return err
	}
	v.manager = mgr
	v.schedule(v.didOpen)
	return nil
}

// Close deregisters the view; idempotent. Closing the last view on a
// route closes the model (per spec §4.G); closing the last subscriber of
// a connection closes the socket (per spec §4.E).
func (v *View) Close() {
	v.mu.Lock()
	if v.status != ViewOpen {
		v.status = ViewClosed
		v.mu.Unlock()
		return
	}
	v.status = ViewClosed
	mgr := v.manager
	v.mu.Unlock()

	if mgr != nil {
		mgr.removeView(v)
	}
	v.schedule(v.didClose)
}

// requireOpen returns ErrViewClosed unless the view is open.
func (v *View) requireOpen() error {
	if v.Status() != ViewOpen {
		return ErrViewClosed
	}
	return nil
}

// GetValue awaits synced, then returns a value downlink's current value,
// per spec §4.H/§8 ("get_value() ... returns only after at least one
// synced has been observed"). Returns ErrKindMismatch for a non-value
// view.
func (v *View) GetValue(ctx context.Context) (recon.Value, error) {
	if v.kind != ValueDownlink {
		return nil, ErrKindMismatch
	}
	if err := v.requireOpen(); err != nil {
		return nil, err
	}
	vm, ok := v.manager.Model().(*valueModel)
	if !ok {
		return nil, ErrKindMismatch
	}
	return vm.GetValue(ctx)
}

// Set sends a command envelope replacing a value downlink's remote
// state. Returns ErrKindMismatch for a non-value view.
func (v *View) Set(ctx context.Context, value recon.Value) error {
	if v.kind != ValueDownlink {
		return ErrKindMismatch
	}
	if err := v.requireOpen(); err != nil {
		return err
	}
	vm, ok := v.manager.Model().(*valueModel)
	if !ok {
		return ErrKindMismatch
	}
	return vm.Set(ctx, value)
}

// Get looks up key in a map downlink, awaiting synced first if wait is
// true. Returns ErrKindMismatch for a non-map view.
func (v *View) Get(ctx context.Context, key recon.Value, wait bool) (recon.Value, bool, error) {
	if v.kind != MapDownlink {
		return nil, false, ErrKindMismatch
	}
	if err := v.requireOpen(); err != nil {
		return nil, false, err
	}
	mm, ok := v.manager.Model().(*mapModel)
	if !ok {
		return nil, false, ErrKindMismatch
	}
	return mm.Get(ctx, key, wait)
}

// GetAll returns every entry of a map downlink in insertion order,
// awaiting synced first if wait is true. Returns ErrKindMismatch for a
// non-map view.
func (v *View) GetAll(ctx context.Context, wait bool) ([]struct{ Key, Value recon.Value }, error) {
	if v.kind != MapDownlink {
		return nil, ErrKindMismatch
	}
	if err := v.requireOpen(); err != nil {
		return nil, err
	}
	mm, ok := v.manager.Model().(*mapModel)
	if !ok {
		return nil, ErrKindMismatch
	}
	return mm.GetAll(ctx, wait)
}
