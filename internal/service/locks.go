package service

import (
	"sync"

	"github.com/google/uuid"
)

// tripLocks serialises mutations per trip. Entries are reference counted and
// dropped once no goroutine holds or waits on them, so the map only ever
// contains trips that are being changed right now.
type tripLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*tripLock
}

type tripLock struct {
	mu   sync.Mutex
	refs int
}

func newTripLocks() *tripLocks {
	return &tripLocks{locks: make(map[uuid.UUID]*tripLock)}
}

// lock blocks until the caller owns the trip and returns the release func.
func (l *tripLocks) lock(id uuid.UUID) (unlock func()) {
	l.mu.Lock()
	tl, ok := l.locks[id]
	if !ok {
		tl = &tripLock{}
		l.locks[id] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()
	return func() {
		tl.mu.Unlock()

		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// held reports how many trips currently have a lock entry.
func (l *tripLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
