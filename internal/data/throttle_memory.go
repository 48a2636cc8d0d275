package data

import (
	"sort"
	"sync"
	"time"
)

// throttleEntry is one stored send record.
type throttleEntry struct {
	sentAt    time.Time
	expiresAt time.Time
}

// memoryThrottle is the process-local throttle store: one mutex-guarded
// set of maps, no hidden globals. Cooldown lookup is a single map
// read/compare; eviction runs lazily on lookup, in bulk via
// CleanupExpired, and as an emergency sort-and-halve when the entry
// ceiling is breached.
type memoryThrottle struct {
	mu         sync.Mutex
	keys       map[string]throttleEntry
	fps        map[string]throttleEntry
	pending    map[string]time.Time
	maxEntries int

	// now is swappable for deterministic tests
	now func() time.Time
}

func newMemoryThrottle(maxEntries int) *memoryThrottle {
	return &memoryThrottle{
		keys:       make(map[string]throttleEntry),
		fps:        make(map[string]throttleEntry),
		pending:    make(map[string]time.Time),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// LastKeySend returns the key's last send time. Stale entries are evicted
// lazily here, so the hot path never iterates the maps.
func (m *memoryThrottle) LastKeySend(key string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.keys[key]
	if !ok {
		return time.Time{}, false, nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.keys, key)
		return time.Time{}, false, nil
	}
	return e.sentAt, true, nil
}

// LastFingerprintSend returns the fingerprint's last send time, with the
// same lazy eviction as LastKeySend.
func (m *memoryThrottle) LastFingerprintSend(fp string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.fps[fp]
	if !ok {
		return time.Time{}, false, nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.fps, fp)
		return time.Time{}, false, nil
	}
	return e.sentAt, true, nil
}

// TryReserve re-checks the cooldown and places the pending reservation
// under one lock, so two callers racing on the same key cannot both win.
func (m *memoryThrottle) TryReserve(key string, cooldown time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if e, ok := m.keys[key]; ok && now.Sub(e.sentAt) < cooldown && !now.After(e.expiresAt) {
		return false, nil
	}
	if at, ok := m.pending[key]; ok && now.Sub(at) < reservationTTL {
		return false, nil
	}

	m.pending[key] = now
	return true, nil
}

// Release drops a pending reservation.
func (m *memoryThrottle) Release(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pending, key)
	return nil
}

// MarkSent records send timestamps for key and fingerprint, clears the
// reservation, and runs the emergency eviction when the ceiling is hit.
func (m *memoryThrottle) MarkSent(key, fp string, keyTTL, fpTTL time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.keys[key] = throttleEntry{sentAt: now, expiresAt: now.Add(keyTTL)}
	m.fps[fp] = throttleEntry{sentAt: now, expiresAt: now.Add(fpTTL)}
	delete(m.pending, key)

	if len(m.keys)+len(m.fps) > m.maxEntries {
		m.evictToHalfCeiling()
	}
	return nil
}

// CleanupExpired removes expired records and stale reservations in bulk.
func (m *memoryThrottle) CleanupExpired() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0

	for k, e := range m.keys {
		if now.After(e.expiresAt) {
			delete(m.keys, k)
			removed++
		}
	}
	for f, e := range m.fps {
		if now.After(e.expiresAt) {
			delete(m.fps, f)
			removed++
		}
	}
	for k, at := range m.pending {
		if now.Sub(at) >= reservationTTL {
			delete(m.pending, k)
		}
	}

	return removed, nil
}

// EntryCount returns the number of stored throttle records.
func (m *memoryThrottle) EntryCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.keys) + len(m.fps), nil
}

// evictToHalfCeiling discards the oldest stored records by send time
// until only half the entry ceiling remains, regardless of cooldown
// validity. An availability-over-precision tradeoff: a few premature
// evictions (occasional duplicate sends) beat unbounded memory growth.
// Requires a sort, but only runs when the ceiling is breached, never on
// the hot path. Caller holds the lock.
func (m *memoryThrottle) evictToHalfCeiling() {
	type aged struct {
		name   string
		isKey  bool
		sentAt time.Time
	}

	all := make([]aged, 0, len(m.keys)+len(m.fps))
	for k, e := range m.keys {
		all = append(all, aged{name: k, isKey: true, sentAt: e.sentAt})
	}
	for f, e := range m.fps {
		all = append(all, aged{name: f, sentAt: e.sentAt})
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].sentAt.Before(all[j].sentAt)
	})

	evict := len(all) - m.maxEntries/2
	if evict > len(all) {
		evict = len(all)
	}
	for _, a := range all[:evict] {
		if a.isKey {
			delete(m.keys, a.name)
		} else {
			delete(m.fps, a.name)
		}
	}
}
