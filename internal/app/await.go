package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gymos/internal/domain"
)

var errWaitExpired = errors.New("completion wait expired")

type completionReply struct {
	text    string
	err     error
	elapsed time.Duration
}

// awaitCompletion runs call and waits at most wait for it.
//
// The call runs on a context detached from ctx and bounded by ceiling, so an
// expired wait does not cancel it. Exactly one side claims the result: either
// the waiter, or, after the wait has ended, late, which receives the reply
// that arrived too late.
func awaitCompletion(ctx context.Context, wait, ceiling time.Duration, call func(context.Context) (string, error), late func(completionReply)) completionReply {
	var claimed atomic.Bool
	done := make(chan completionReply, 1)
	start := time.Now()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ceiling)
	go func() {
		defer cancel()
		text, err := call(callCtx)
		r := completionReply{text: text, err: err, elapsed: time.Since(start)}
		if claimed.CompareAndSwap(false, true) {
			done <- r
			return
		}
		if late != nil {
			late(r)
		}
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	var stop error
	select {
	case r := <-done:
		return r
	case <-timer.C:
		stop = errWaitExpired
	case <-ctx.Done():
		stop = ctx.Err()
	}
	if !claimed.CompareAndSwap(false, true) {
		// The reply landed while the wait was ending; it is already buffered.
		return <-done
	}
	return completionReply{err: fmt.Errorf("%w: %w", domain.ErrAIUnavailable, stop), elapsed: time.Since(start)}
}
