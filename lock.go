package ryder

import "sync"

// lockLayer is the advisory lock of spec.md §4.3. It is logically
// independent of the command queue: it gates callers, not wire activity.
//
// Open Question (spec.md §9) resolved: unlike the source, which resolves
// every lock() call immediately while still enqueuing a release handle,
// this implementation makes lock() a real ticket queue — the N-th lock()
// call resolves only once it becomes the head of the queue, i.e. when the
// (N-1)-th unlock() runs. See DESIGN.md for the rationale.
type lockLayer struct {
	mu      sync.Mutex
	waiters []*Completion
}

// lock appends a waiter to the queue and returns it. The first lock() call
// on an otherwise-idle layer resolves immediately, matching spec.md §4.3.
func (l *lockLayer) lock() *Completion {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := newCompletion()
	l.waiters = append(l.waiters, c)
	if len(l.waiters) == 1 {
		c.fire(nil, nil)
	}
	return c
}

// unlock releases the head of the lock queue and, if another waiter is
// behind it, resolves that waiter's completion. Calling unlock with no
// outstanding lock is a no-op.
func (l *lockLayer) unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.waiters) == 0 {
		return
	}
	l.waiters = l.waiters[1:]
	if len(l.waiters) > 0 {
		l.waiters[0].fire(nil, nil)
	}
}

// release abandons c's ticket regardless of whether it has become head yet.
// If c was the head, this is equivalent to unlock(): the next waiter, if
// any, is resolved. If c was still waiting its turn (e.g. its caller gave
// up via context cancellation before ever acquiring the lock), it is
// simply removed from the queue instead of permanently occupying a slot
// that nothing will ever unlock.
func (l *lockLayer) release(c *Completion) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range l.waiters {
		if w != c {
			continue
		}
		l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
		if i == 0 && len(l.waiters) > 0 {
			l.waiters[0].fire(nil, nil)
		}
		return
	}
}

// locked reports whether any lock is outstanding.
func (l *lockLayer) locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters) > 0
}

// releaseAll resolves every outstanding waiter, including ones still
// waiting their turn, and empties the queue. Used by clear()/close()
// teardown per spec.md §4.4 ("releases every outstanding lock").
func (l *lockLayer) releaseAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.waiters {
		c.fire(nil, nil)
	}
	l.waiters = nil
}
