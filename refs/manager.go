// Package refs hands out opaque references to host objects so that callers
// outside the world never hold raw pointers to component instances.
package refs

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

var ErrInvalidRef = errors.New("refs: invalid reference")

// Ref is an opaque reference, 0 is never issued
type Ref uint32

// Leak describes a tracked reference still held at shutdown
type Leak struct {
	Ref    Ref
	Object any
}

type entry struct {
	object  any
	tracked bool
}

// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	next    Ref
	entries map[Ref]*entry
}

func NewManager() *Manager {
	return &Manager{
		entries: make(map[Ref]*entry),
	}
}

// AddReference registers obj and returns its reference. Untracked references
// are not reported as leaks at shutdown.
func (this *Manager) AddReference(obj any, track bool) Ref {
	this.mu.Lock()
	defer this.mu.Unlock()
	for {
		this.next++
		if this.next == 0 {
			continue
		}
		if _, ok := this.entries[this.next]; !ok {
			break
		}
	}
	this.entries[this.next] = &entry{
		object:  obj,
		tracked: track,
	}
	return this.next
}

// Free releases ref. Releasing an unknown reference is an error.
func (this *Manager) Free(ref Ref) error {
	this.mu.Lock()
	defer this.mu.Unlock()
	if _, ok := this.entries[ref]; !ok {
		return fmt.Errorf("%w: %v", ErrInvalidRef, ref)
	}
	delete(this.entries, ref)
	return nil
}

func (this *Manager) Get(ref Ref) (any, bool) {
	this.mu.RLock()
	defer this.mu.RUnlock()
	e, ok := this.entries[ref]
	if !ok {
		return nil, false
	}
	return e.object, true
}

func (this *Manager) IsAlive(ref Ref) bool {
	_, ok := this.Get(ref)
	return ok
}

func (this *Manager) Len() int {
	this.mu.RLock()
	defer this.mu.RUnlock()
	return len(this.entries)
}

// Shutdown frees every reference and returns the tracked ones that were
// still held, in ascending order.
func (this *Manager) Shutdown() []Leak {
	this.mu.Lock()
	defer this.mu.Unlock()
	var leaks []Leak
	for ref, e := range this.entries {
		if e.tracked {
			leaks = append(leaks, Leak{Ref: ref, Object: e.object})
		}
	}
	slices.SortFunc(leaks, func(a, b Leak) int {
		return cmp.Compare(a.Ref, b.Ref)
	})
	if len(leaks) > 0 {
		slog.Error("memory leak detected, not all references were freed", "count", len(leaks))
		for _, leak := range leaks {
			slog.Error("leaked reference", "ref", leak.Ref, "object", fmt.Sprintf("%T", leak.Object))
		}
	}
	clear(this.entries)
	return leaks
}
