// internal/app/session/cache.go
package session

import (
	"sync"

	"github.com/dalemusser/casalink/internal/domain/models"
)

// Cache is the process-wide slot holding the current normalized user,
// or nil when signed out. Write access belongs to the Manager; every
// other component reads through Current.
//
// Login and the auth-change listener can both race to write the slot.
// Writes are serialized by the lock and stamped with a monotonic
// sequence, so the resolution is simply "last committed write wins" and
// readers can compare stamps to detect that the slot was refreshed
// underneath them. Consumers must re-read rather than hold a copy
// across auth changes.
type Cache struct {
	mu   sync.RWMutex
	seq  uint64
	user *models.User
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Current returns a copy of the cached user (nil when signed out) and
// the stamp of the write that produced it.
func (c *Cache) Current() (*models.User, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyUser(c.user), c.seq
}

// put stores u and returns the stamp assigned to the write.
func (c *Cache) put(u *models.User) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.user = copyUser(u)
	return c.seq
}

// clear empties the slot. Clearing an empty slot still advances the
// stamp so readers observe the write.
func (c *Cache) clear() uint64 {
	return c.put(nil)
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Properties != nil {
		cp.Properties = append([]string(nil), u.Properties...)
	}
	return &cp
}
