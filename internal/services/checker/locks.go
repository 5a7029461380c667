package checker

import (
	"context"
	"sync"
)

// sourceLocks serializes diff+merge per source. A slot is a channel of size one
// so waiting for it can be abandoned when the context ends.
type sourceLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newSourceLocks() *sourceLocks {
	return &sourceLocks{slots: make(map[string]chan struct{})}
}

// lock blocks until source is free or ctx is done. The returned func releases the lock.
func (l *sourceLocks) lock(ctx context.Context, source string) (func(), error) {
	l.mu.Lock()
	slot, found := l.slots[source]
	if !found {
		slot = make(chan struct{}, 1)
		l.slots[source] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
