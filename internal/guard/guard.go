/*

This file contains the program-wide operation guard.

Every state-changing operation holds the guard from its first action until it
returns, across all of its collaborator calls. One token covers the whole
program, not one per pool. Read-only queries never take it.

*/

package guard

import (
	"context"
	"errors"
	"sync"
)

// ErrNilGuard is returned when Acquire is called on a nil *Guard.
var ErrNilGuard = errors.New("guard is nil")

type Guard struct {
	token chan struct{}
}

func New() *Guard {
	g := &Guard{token: make(chan struct{}, 1)}
	g.token <- struct{}{}
	return g
}

// Acquire blocks until the guard is free or ctx is done. The returned release
// is idempotent and must be deferred by the caller.
func (g *Guard) Acquire(ctx context.Context) (release func(), err error) {
	if g == nil {
		return nil, ErrNilGuard
	}

	select {
	case <-g.token:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.token <- struct{}{} })
	}, nil
}

// Held reports whether some operation currently owns the guard.
func (g *Guard) Held() bool {
	return len(g.token) == 0
}
