package core

import (
	"slices"
	"sync"
)

// Key names a physical key as reported by a backend ("up", "space", "z", "esc").
// Backends normalise their own key names to these lowercase strings.
type Key string

// Common keys emitted by every backend.
const (
	KeyUp    Key = "up"
	KeyDown  Key = "down"
	KeyLeft  Key = "left"
	KeyRight Key = "right"
	KeySpace Key = "space"
	KeyEnter Key = "enter"
	KeyEsc   Key = "esc"
)

// KeyListener receives key events from a Screen.
type KeyListener interface {
	KeyPressed(k Key)
	KeyReleased(k Key)
}

// RemoveListener returns ls without the first occurrence of l. Listeners are
// compared by identity, so l must be a comparable value such as a pointer.
func RemoveListener(ls []KeyListener, l KeyListener) []KeyListener {
	for i, x := range ls {
		if x == l {
			return slices.Delete(ls, i, i+1)
		}
	}
	return ls
}

// Keys is a KeyListener that records key state for polling from update code.
// Backends deliver events on their own goroutine, so access is synchronised.
type Keys struct {
	mu   sync.Mutex
	down map[Key]bool
	hits map[Key]bool
}

// NewKeys creates an empty key state.
func NewKeys() *Keys {
	return &Keys{
		down: make(map[Key]bool),
		hits: make(map[Key]bool),
	}
}

// KeyPressed marks k as held and records a hit.
func (k *Keys) KeyPressed(key Key) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.down[key] = true
	k.hits[key] = true
}

// KeyReleased marks k as no longer held. Hits stay until Clear.
func (k *Keys) KeyReleased(key Key) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.down, key)
}

// IsDown returns true while the key is held.
func (k *Keys) IsDown(key Key) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.down[key]
}

// JustPressed returns true if the key was pressed since the last Clear.
func (k *Keys) JustPressed(key Key) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.hits[key]
}

// Clear forgets recorded hits. Scenes call it at the end of each update.
func (k *Keys) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key := range k.hits {
		delete(k.hits, key)
	}
}
