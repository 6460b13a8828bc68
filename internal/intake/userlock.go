package intake

import (
	"sync"

	"github.com/google/uuid"
)

// userLocks serializes turns for the same user. History consistency relies on
// append-then-read-all-then-sort, so two concurrent turns from one user could
// otherwise interleave their reads and writes.
type userLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uuid.UUID]*userLock)}
}

// lock acquires the per-user mutex and returns its release function. Entries
// are reference counted so the map does not grow with every user ever seen.
func (ul *userLocks) lock(id uuid.UUID) func() {
	ul.mu.Lock()
	l, ok := ul.locks[id]
	if !ok {
		l = &userLock{}
		ul.locks[id] = l
	}
	l.refs++
	ul.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		ul.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(ul.locks, id)
		}
		ul.mu.Unlock()
	}
}
