package ledger

import "sync"

// keyedMutex serializes settlement of a single payment record. The
// collected/released/refunded guards are check-then-set; without
// per-record locking a concurrent collect+refund of the same record
// could both pass their checks.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*recordLock
}

type recordLock struct {
	sync.Mutex
	refs int
}

// settlementLocks is shared by every Service value. Webhook handlers,
// HTTP controllers and the release sweep each construct their own
// service; they must still serialize on the same record.
var settlementLocks = newKeyedMutex()

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint]*recordLock)}
}

// Lock acquires the lock for key and returns the matching unlock func.
func (k *keyedMutex) Lock(key uint) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &recordLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
