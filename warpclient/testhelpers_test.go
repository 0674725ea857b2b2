package warpclient

import "context"

func newTestCtx() context.Context { return context.Background() }

func newCancelableCtx() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}
