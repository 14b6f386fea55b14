package domain

import (
	"context"
	"sync"
	"time"
)

// CancellationToken is a cooperative, irreversible stop signal for one
// exchange. It serves both explicit user cancel and implicit timeout; Cause
// tells them apart.
type CancellationToken struct {
	ctx    context.Context
	cancel context.CancelCauseFunc

	mu    sync.Mutex
	stops []func() bool
	timer *time.Timer
}

// NewCancellationToken creates a token that fires on Cancel or when parent ends.
func NewCancellationToken(parent context.Context) *CancellationToken {
	ctx, cancel := context.WithCancelCause(parent)
	return &CancellationToken{
		ctx:    ctx,
		cancel: cancel,
	}
}

// NewTimeoutToken creates a token that additionally fires after d.
func NewTimeoutToken(parent context.Context, d time.Duration) *CancellationToken {
	t := NewCancellationToken(parent)
	t.timer = time.AfterFunc(d, func() {
		t.cancel(ErrRequestTimeout)
	})
	return t
}

// IsCancelled reports whether the token has fired.
func (t *CancellationToken) IsCancelled() bool {
	return t.ctx.Err() != nil
}

// OnCancel registers fn to run once when the token fires. If it already
// fired, fn runs immediately on its own goroutine.
func (t *CancellationToken) OnCancel(fn func()) {
	stop := context.AfterFunc(t.ctx, fn)

	t.mu.Lock()
	t.stops = append(t.stops, stop)
	t.mu.Unlock()
}

// Cancel fires the token. Calling it again has no effect.
func (t *CancellationToken) Cancel() {
	t.cancel(ErrCancelled)
}

// Context returns the context bound to the token.
func (t *CancellationToken) Context() context.Context {
	return t.ctx
}

// Cause returns why the token fired, or nil while it is live.
func (t *CancellationToken) Cause() error {
	return context.Cause(t.ctx)
}

// Release stops the timeout timer and drops callbacks that have not run.
// It does not fire the token.
func (t *CancellationToken) Release() {
	if t.timer != nil {
		t.timer.Stop()
	}

	t.mu.Lock()
	stops := t.stops
	t.stops = nil
	t.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}
