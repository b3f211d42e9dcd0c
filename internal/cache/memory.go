package cache

import (
	"container/list"
	"sync"
	"time"
)

type memoryEntry struct {
	key      string
	audio    []byte
	storedAt time.Time
}

// MemoryTier is a bounded LRU holding a subset of the filesystem tier.
// Eviction never touches the filesystem.
type MemoryTier struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

// NewMemoryTier creates an LRU with room for capacity clips.
// A capacity below 1 falls back to 100.
func NewMemoryTier(capacity int) *MemoryTier {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryTier{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the clip for key and marks it most recently used.
func (m *MemoryTier) Get(key string) ([]byte, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return nil, time.Time{}, false
	}
	m.order.MoveToFront(elem)
	entry := elem.Value.(*memoryEntry)
	return entry.audio, entry.storedAt, true
}

// Put stores or refreshes key and returns how many entries were evicted.
func (m *MemoryTier) Put(key string, audio []byte, storedAt time.Time) int {
	// Copy to decouple from caller's buffer
	audioCopy := make([]byte, len(audio))
	copy(audioCopy, audio)

	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.audio = audioCopy
		entry.storedAt = storedAt
		m.order.MoveToFront(elem)
		return 0
	}

	m.items[key] = m.order.PushFront(&memoryEntry{key: key, audio: audioCopy, storedAt: storedAt})

	evicted := 0
	for m.order.Len() > m.capacity {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*memoryEntry).key)
		evicted++
	}
	return evicted
}

// Delete removes key and reports whether it was present.
func (m *MemoryTier) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return false
	}
	m.order.Remove(elem)
	delete(m.items, key)
	return true
}

// PurgeStoredBefore drops entries stored before cutoff.
func (m *MemoryTier) PurgeStoredBefore(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, elem := range m.items {
		if elem.Value.(*memoryEntry).storedAt.Before(cutoff) {
			m.order.Remove(elem)
			delete(m.items, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of clips held.
func (m *MemoryTier) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Capacity returns the configured bound.
func (m *MemoryTier) Capacity() int {
	return m.capacity
}

// Clear removes all clips.
func (m *MemoryTier) Clear() {
	m.mu.Lock()
	m.items = make(map[string]*list.Element)
	m.order.Init()
	m.mu.Unlock()
}
