package booking

import "sync"

// seatLocks hands out one mutex per seat key. Entries are dropped once no
// caller holds or waits for them.
type seatLocks struct {
	mu    sync.Mutex
	locks map[string]*seatLock
}

type seatLock struct {
	mu   sync.Mutex
	refs int
}

func newSeatLocks() *seatLocks {
	return &seatLocks{locks: make(map[string]*seatLock)}
}

func (l *seatLocks) lock(key string) (unlock func()) {
	l.mu.Lock()
	sl, ok := l.locks[key]
	if !ok {
		sl = &seatLock{}
		l.locks[key] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *seatLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
