package pipeline

import "sync"

// keyedLocks hands out one mutex per key. Commits for the same artist
// must serialize; different artists may land concurrently.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key and returns its unlock func
func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// libraryGuard tracks which libraries have a scan in flight within this
// process. A second scan of the same library is refused, not queued.
type libraryGuard struct {
	mu     sync.Mutex
	active map[int64]bool
}

func newLibraryGuard() *libraryGuard {
	return &libraryGuard{active: make(map[int64]bool)}
}

func (g *libraryGuard) acquire(libraryID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[libraryID] {
		return false
	}
	g.active[libraryID] = true
	return true
}

func (g *libraryGuard) release(libraryID int64) {
	g.mu.Lock()
	delete(g.active, libraryID)
	g.mu.Unlock()
}
