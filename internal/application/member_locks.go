package application

import "sync"

// memberLocks hands out one mutex per member id. Entries are reference
// counted and dropped when the last holder releases them.
type memberLocks struct {
	mu    sync.Mutex
	locks map[string]*memberLock
}

type memberLock struct {
	mu   sync.Mutex
	refs int
}

func newMemberLocks() *memberLocks {
	return &memberLocks{locks: make(map[string]*memberLock)}
}

// lock acquires the locks for every id in sorted order and returns the
// function that releases them.
func (l *memberLocks) lock(ids ...string) func() {
	ordered := sortStrings(uniqueStrings(ids))

	held := make([]*memberLock, 0, len(ordered))
	for _, id := range ordered {
		l.mu.Lock()
		entry, ok := l.locks[id]
		if !ok {
			entry = &memberLock{}
			l.locks[id] = entry
		}
		entry.refs++
		l.mu.Unlock()

		entry.mu.Lock()
		held = append(held, entry)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			entry := held[i]
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, ordered[i])
			}
			l.mu.Unlock()
		}
	}
}

func (l *memberLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
