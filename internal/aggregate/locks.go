package aggregate

import (
	"sync"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

// identityLocks serializes writers to the same metrics-store identity.
// A scheduled run and an on-demand refresh can aggregate the same
// (company, job, date bucket) concurrently; without the lock the
// read-modify-write against the store could lose one writer's row.
// Entries are refcounted and removed on last release so a long-lived
// worker does not accumulate one mutex per identity it ever touched.
type identityLocks struct {
	mu    sync.Mutex
	locks map[domain.MetricsIdentity]*identityLock
}

type identityLock struct {
	mu   sync.Mutex
	refs int
}

func newIdentityLocks() *identityLocks {
	return &identityLocks{locks: make(map[domain.MetricsIdentity]*identityLock)}
}

// acquire locks the identity and returns its release function.
func (l *identityLocks) acquire(id domain.MetricsIdentity) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &identityLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
