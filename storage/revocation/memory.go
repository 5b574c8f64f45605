package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/ratiba/core/session"
)

type memoryRevoker struct {
	mutex   sync.Mutex
	entries map[string]time.Time // {tokenID: expiresAt}
	nowFunc func() time.Time
}

var _ session.Revoker = (*memoryRevoker)(nil)

// NewMemoryRevoker returns a process-local Revoker, for tests and single-instance setups.
func NewMemoryRevoker() session.Revoker {
	return &memoryRevoker{entries: make(map[string]time.Time), nowFunc: time.Now}
}

func (r *memoryRevoker) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.evict()
	r.entries[tokenID] = expiresAt
	return nil
}

func (r *memoryRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	exp, ok := r.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !r.nowFunc().Before(exp) {
		delete(r.entries, tokenID)
		return false, nil
	}
	return true, nil
}

// evict drops entries whose token has expired. Callers hold the mutex.
func (r *memoryRevoker) evict() {
	now := r.nowFunc()
	for id, exp := range r.entries {
		if !now.Before(exp) {
			delete(r.entries, id)
		}
	}
}
