package aggregate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Shar1q-codes/recruitment-analytics-service/internal/domain"
)

func TestIdentityLocks_ReleaseEvictsEntry(t *testing.T) {
	locks := newIdentityLocks()
	id := domain.MetricsIdentity{CompanyID: "c1", JobID: "job-1", DateBucket: time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)}

	release := locks.acquire(id)
	locks.mu.Lock()
	assert.Len(t, locks.locks, 1)
	locks.mu.Unlock()

	release()
	locks.mu.Lock()
	assert.Empty(t, locks.locks)
	locks.mu.Unlock()
}

func TestIdentityLocks_SerializesSameIdentity(t *testing.T) {
	locks := newIdentityLocks()
	id := domain.MetricsIdentity{CompanyID: "c1"}

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire(id)
			defer release()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	locks.mu.Lock()
	assert.Empty(t, locks.locks)
	locks.mu.Unlock()
}
