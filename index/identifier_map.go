package index

import (
	"fmt"
	"sync"
)

// IdentifierMap assigns dense integer ids to string keys in first-seen
// order. Ids start at 0, are never reassigned and never reused. One build
// shares two instances: one for terms, one for document names.
type IdentifierMap struct {
	mutex sync.RWMutex
	ids   map[string]uint32
	keys  []string
}

func NewIdentifierMap() *IdentifierMap {
	return &IdentifierMap{
		ids: make(map[string]uint32),
	}
}

func newIdentifierMapFromKeys(keys []string) *IdentifierMap {
	m := &IdentifierMap{
		ids:  make(map[string]uint32, len(keys)),
		keys: keys,
	}

	for id, key := range keys {
		m.ids[key] = uint32(id)
	}

	return m
}

// IDOf returns the id for key, allocating the next id if key was never
// seen before.
func (m *IdentifierMap) IDOf(key string) uint32 {
	m.mutex.RLock()
	id, exists := m.ids[key]
	m.mutex.RUnlock()

	if exists {
		return id
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if id, exists := m.ids[key]; exists {
		return id
	}

	id = uint32(len(m.keys))
	m.ids[key] = id
	m.keys = append(m.keys, key)

	return id
}

// Lookup returns the id for key without allocating.
func (m *IdentifierMap) Lookup(key string) (uint32, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	id, exists := m.ids[key]
	return id, exists
}

// KeyOf returns the key registered for id.
func (m *IdentifierMap) KeyOf(id uint32) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if id >= uint32(len(m.keys)) {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}

	return m.keys[id], nil
}

func (m *IdentifierMap) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return len(m.keys)
}

// Keys returns a copy of all registered keys in id order.
func (m *IdentifierMap) Keys() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}
