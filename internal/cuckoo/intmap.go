// Package cuckoo provides IntMap, an open-addressing hash map keyed by int
// that uses three hash functions, bounded random-walk eviction and a small
// overflow stash. Lookups probe at most three slots plus the stash and never
// allocate, which makes the map usable from per-pixel render loops. Only
// insertions can grow the table, so callers mutate it during setup and read
// it on the hot path.
//
// Key 0 is the empty marker of the slot table; it is stored in a dedicated
// field instead.
package cuckoo

import (
	"math"
	"math/bits"
	"math/rand/v2"
)

const (
	prime2 = 0xb4b82e39
	prime3 = 0xced1c241
)

// DefaultCapacity is the capacity used by New.
const DefaultCapacity = 32

// DefaultLoadFactor is the load factor used by New.
const DefaultLoadFactor = 0.8

// IntMap maps non-negative or negative int keys to values of type V.
// It is not safe for concurrent use.
type IntMap[V any] struct {
	keys   []int
	values []V
	size   int

	zeroValue    V
	hasZeroValue bool

	capacity       int
	stashSize      int
	stashCapacity  int
	loadFactor     float64
	hashShift      uint
	mask           int
	threshold      int
	pushIterations int

	rng *rand.Rand
}

// New creates a map with the default capacity and load factor.
func New[V any]() *IntMap[V] {
	return NewWithCapacity[V](DefaultCapacity, DefaultLoadFactor)
}

// NewWithCapacity creates a map able to hold about capacity*loadFactor
// entries before growing. Capacity is rounded up to a power of two.
func NewWithCapacity[V any](capacity int, loadFactor float64) *IntMap[V] {
	if capacity < 1 {
		capacity = 1
	}
	if loadFactor <= 0 || loadFactor > 1 {
		loadFactor = DefaultLoadFactor
	}
	m := &IntMap[V]{
		loadFactor: loadFactor,
		rng:        rand.New(rand.NewPCG(0x9e3779b97f4a7c15, 0xbf58476d1ce4e5b9)),
	}
	m.setCapacity(nextPowerOfTwo(capacity))
	m.keys = make([]int, m.capacity+m.stashCapacity)
	m.values = make([]V, m.capacity+m.stashCapacity)
	return m
}

// setCapacity recomputes every capacity-derived parameter.
func (m *IntMap[V]) setCapacity(capacity int) {
	m.capacity = capacity
	m.threshold = int(float64(capacity) * m.loadFactor)
	m.mask = capacity - 1
	m.hashShift = uint(31 - bits.TrailingZeros(uint(capacity)))
	m.stashCapacity = max(3, int(math.Ceil(math.Log(float64(capacity))))*2)
	m.pushIterations = max(min(capacity, 8), int(math.Sqrt(float64(capacity)))/8)
}

// Len returns the number of entries, including key 0.
func (m *IntMap[V]) Len() int {
	return m.size
}

// Capacity returns the number of home slots (the stash is not counted).
func (m *IntMap[V]) Capacity() int {
	return m.capacity
}

// Put stores value under key and returns the previous value, if any.
func (m *IntMap[V]) Put(key int, value V) (V, bool) {
	if key == 0 {
		old, had := m.zeroValue, m.hasZeroValue
		m.zeroValue = value
		if !had {
			m.hasZeroValue = true
			m.size++
		}
		return old, had
	}

	keys := m.keys

	// Replace an existing entry in one of the three home slots.
	index1 := key & m.mask
	key1 := keys[index1]
	if key1 == key {
		return m.swap(index1, value), true
	}
	index2 := m.hash2(key)
	key2 := keys[index2]
	if key2 == key {
		return m.swap(index2, value), true
	}
	index3 := m.hash3(key)
	key3 := keys[index3]
	if key3 == key {
		return m.swap(index3, value), true
	}

	// Replace an existing entry in the stash.
	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if keys[i] == key {
			return m.swap(i, value), true
		}
	}

	var zero V
	switch {
	case key1 == 0:
		m.store(index1, key, value)
	case key2 == 0:
		m.store(index2, key, value)
	case key3 == 0:
		m.store(index3, key, value)
	default:
		m.push(key, value, index1, key1, index2, key2, index3, key3)
	}
	return zero, false
}

// Get returns the value stored under key.
func (m *IntMap[V]) Get(key int) (V, bool) {
	if key == 0 {
		return m.zeroValue, m.hasZeroValue
	}
	index := key & m.mask
	if m.keys[index] != key {
		index = m.hash2(key)
		if m.keys[index] != key {
			index = m.hash3(key)
			if m.keys[index] != key {
				return m.getStash(key)
			}
		}
	}
	return m.values[index], true
}

// Contains reports whether key is present.
func (m *IntMap[V]) Contains(key int) bool {
	_, ok := m.Get(key)
	return ok
}

// Remove deletes key and returns its value, if it was present.
func (m *IntMap[V]) Remove(key int) (V, bool) {
	var zero V
	if key == 0 {
		if !m.hasZeroValue {
			return zero, false
		}
		old := m.zeroValue
		m.zeroValue = zero
		m.hasZeroValue = false
		m.size--
		return old, true
	}

	for _, index := range [3]int{key & m.mask, m.hash2(key), m.hash3(key)} {
		if m.keys[index] == key {
			old := m.values[index]
			m.keys[index] = 0
			m.values[index] = zero
			m.size--
			return old, true
		}
	}

	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if m.keys[i] == key {
			old := m.values[i]
			m.removeStashIndex(i)
			m.size--
			return old, true
		}
	}
	return zero, false
}

// Clear removes every entry, including key 0. Capacity is kept.
func (m *IntMap[V]) Clear() {
	if m.size == 0 {
		return
	}
	var zero V
	clear(m.keys)
	clear(m.values)
	m.size = 0
	m.stashSize = 0
	m.zeroValue = zero
	m.hasZeroValue = false
}

// Range calls fn for every entry until fn returns false. Order is unspecified.
func (m *IntMap[V]) Range(fn func(key int, value V) bool) {
	if m.hasZeroValue && !fn(0, m.zeroValue) {
		return
	}
	for i, n := 0, m.capacity+m.stashSize; i < n; i++ {
		if m.keys[i] != 0 && !fn(m.keys[i], m.values[i]) {
			return
		}
	}
}

func (m *IntMap[V]) swap(index int, value V) V {
	old := m.values[index]
	m.values[index] = value
	return old
}

// store fills an empty home slot and grows the table past the threshold.
func (m *IntMap[V]) store(index, key int, value V) {
	m.keys[index] = key
	m.values[index] = value
	m.size++
	if m.size-1 >= m.threshold {
		m.resize(m.capacity << 1)
	}
}

// push evicts a random occupant of the three home slots and reinserts it,
// walking at most pushIterations times before falling back to the stash.
func (m *IntMap[V]) push(insertKey int, insertValue V, index1, key1, index2, key2, index3, key3 int) {
	keys, values := m.keys, m.values

	var evictedKey int
	var evictedValue V
	for i := 0; ; {
		switch m.rng.IntN(3) {
		case 0:
			evictedKey, evictedValue = key1, values[index1]
			keys[index1], values[index1] = insertKey, insertValue
		case 1:
			evictedKey, evictedValue = key2, values[index2]
			keys[index2], values[index2] = insertKey, insertValue
		default:
			evictedKey, evictedValue = key3, values[index3]
			keys[index3], values[index3] = insertKey, insertValue
		}

		// Settle the evicted key in one of its own empty home slots.
		index1 = evictedKey & m.mask
		key1 = keys[index1]
		if key1 == 0 {
			m.store(index1, evictedKey, evictedValue)
			return
		}
		index2 = m.hash2(evictedKey)
		key2 = keys[index2]
		if key2 == 0 {
			m.store(index2, evictedKey, evictedValue)
			return
		}
		index3 = m.hash3(evictedKey)
		key3 = keys[index3]
		if key3 == 0 {
			m.store(index3, evictedKey, evictedValue)
			return
		}

		i++
		if i == m.pushIterations {
			break
		}
		insertKey, insertValue = evictedKey, evictedValue
	}

	m.putStash(evictedKey, evictedValue)
}

func (m *IntMap[V]) putStash(key int, value V) {
	if m.stashSize == m.stashCapacity {
		// Too many keys failed to settle: double the table and retry.
		m.resize(m.capacity << 1)
		m.putResize(key, value)
		return
	}
	index := m.capacity + m.stashSize
	m.keys[index] = key
	m.values[index] = value
	m.stashSize++
	m.size++
}

// putResize inserts a key known to be absent, skipping the existing-key checks.
func (m *IntMap[V]) putResize(key int, value V) {
	index1 := key & m.mask
	key1 := m.keys[index1]
	if key1 == 0 {
		m.store(index1, key, value)
		return
	}
	index2 := m.hash2(key)
	key2 := m.keys[index2]
	if key2 == 0 {
		m.store(index2, key, value)
		return
	}
	index3 := m.hash3(key)
	key3 := m.keys[index3]
	if key3 == 0 {
		m.store(index3, key, value)
		return
	}
	m.push(key, value, index1, key1, index2, key2, index3, key3)
}

func (m *IntMap[V]) getStash(key int) (V, bool) {
	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if m.keys[i] == key {
			return m.values[i], true
		}
	}
	var zero V
	return zero, false
}

func (m *IntMap[V]) removeStashIndex(index int) {
	var zero V
	m.stashSize--
	last := m.capacity + m.stashSize
	if index < last {
		m.keys[index] = m.keys[last]
		m.values[index] = m.values[last]
	}
	m.keys[last] = 0
	m.values[last] = zero
}

func (m *IntMap[V]) resize(newCapacity int) {
	oldEnd := m.capacity + m.stashSize
	oldKeys, oldValues := m.keys, m.values

	m.setCapacity(newCapacity)
	m.keys = make([]int, newCapacity+m.stashCapacity)
	m.values = make([]V, newCapacity+m.stashCapacity)

	oldSize := m.size
	m.size = 0
	if m.hasZeroValue {
		m.size = 1
	}
	m.stashSize = 0
	if oldSize == 0 {
		return
	}
	for i := 0; i < oldEnd; i++ {
		if oldKeys[i] != 0 {
			m.putResize(oldKeys[i], oldValues[i])
		}
	}
}

func (m *IntMap[V]) hash2(key int) int {
	h := uint32(key) * prime2
	return int(h^(h>>m.hashShift)) & m.mask
}

func (m *IntMap[V]) hash3(key int) int {
	h := uint32(key) * prime3
	return int(h^(h>>m.hashShift)) & m.mask
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
