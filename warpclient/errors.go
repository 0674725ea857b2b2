package warpclient

import "errors"

// Sentinel errors surfaced by the user-input error class: operating on a
// closed view, a non-callable callback, or a kind mismatch at an existing
// route are all immediate failures to the caller that never mutate state.
var (
	ErrViewClosed       = errors.New("warpclient: view is closed")
	ErrKindMismatch     = errors.New("warpclient: downlink kind mismatch at route")
	ErrNotCallable      = errors.New("warpclient: callback is not callable")
	ErrConnectionClosed = errors.New("warpclient: connection is closed")
)
