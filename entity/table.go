// Package entity holds the entity handle value type and the table that mints
// and recycles handles.
package entity

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	ErrInvalidHandle = errors.New("entity: invalid handle")
	ErrStaleHandle   = errors.New("entity: stale handle")
	ErrSlotInUse     = errors.New("entity: slot in use")
	ErrCycle         = errors.New("entity: parent cycle")
)

type slot struct {
	generation uint32
	alive      bool
	// generation wrapped around, the index is never handed out again
	retired  bool
	name     string
	parent   Handle
	children []Handle
}

// Table is the host's entity store: an arena of slots addressed by index with
// a generation counter per slot. It is the only place where handles are
// created from raw integers.
//
// Table is not safe for concurrent use.
type Table struct {
	// slots[0] is reserved so that no live handle has id 0
	slots []slot
	// recycled indices, reused LIFO
	free  []uint32
	alive int
}

func NewTable(capacity int) *Table {
	if capacity < 1 {
		capacity = 1
	}
	return &Table{
		slots: make([]slot, 1, capacity+1),
	}
}

// Create allocates a new root entity.
func (this *Table) Create(name string) Handle {
	h := this.allocate()
	s := &this.slots[h.Index()]
	s.name = this.uniqueName(Invalid(), name)
	return h
}

// CreateChild allocates a new entity under parent.
func (this *Table) CreateChild(parent Handle, name string) (Handle, error) {
	if err := this.check(parent); err != nil {
		return Invalid(), err
	}
	h := this.allocate()
	s := &this.slots[h.Index()]
	s.name = this.uniqueName(parent, name)
	s.parent = parent
	p := &this.slots[parent.Index()]
	p.children = append(p.children, h)
	return h, nil
}

func (this *Table) allocate() Handle {
	var index uint32
	if n := len(this.free); n > 0 {
		index = this.free[n-1]
		this.free = this.free[:n-1]
	} else {
		index = uint32(len(this.slots))
		this.slots = append(this.slots, slot{})
	}
	s := &this.slots[index]
	s.alive = true
	this.alive++
	return makeHandle(index, s.generation)
}

// Destroy frees h. With withChildren the whole subtree is freed, otherwise the
// children become root entities. The destroyed handles are returned children
// first.
func (this *Table) Destroy(h Handle, withChildren bool) ([]Handle, error) {
	if err := this.check(h); err != nil {
		return nil, err
	}
	var destroyed []Handle
	if withChildren {
		destroyed = this.Subtree(h)
	} else {
		for _, child := range this.slots[h.Index()].children {
			this.slots[child.Index()].parent = Invalid()
		}
		destroyed = []Handle{h}
	}
	this.unlinkParent(h)
	for _, d := range destroyed {
		this.release(d.Index())
	}
	return destroyed, nil
}

func (this *Table) release(index uint32) {
	s := &this.slots[index]
	s.alive = false
	s.name = ""
	s.parent = Invalid()
	s.children = nil
	if s.generation == math.MaxUint32 {
		s.retired = true
	} else {
		s.generation++
		this.free = append(this.free, index)
	}
	this.alive--
}

func (this *Table) unlinkParent(h Handle) {
	s := &this.slots[h.Index()]
	if !s.parent.IsValid() {
		return
	}
	p := &this.slots[s.parent.Index()]
	p.children = slices.DeleteFunc(p.children, func(c Handle) bool { return c == h })
	s.parent = Invalid()
}

// Subtree returns h and all its descendants, children before parents.
func (this *Table) Subtree(h Handle) []Handle {
	if !this.Alive(h) {
		return nil
	}
	var out []Handle
	var walk func(Handle)
	walk = func(e Handle) {
		for _, child := range this.slots[e.Index()].children {
			walk(child)
		}
		out = append(out, e)
	}
	walk(h)
	return out
}

// Alive reports whether h refers to a live entity of this table.
func (this *Table) Alive(h Handle) bool {
	index := h.Index()
	if index == 0 || int(index) >= len(this.slots) {
		return false
	}
	s := &this.slots[index]
	return s.alive && s.generation == h.Generation()
}

func (this *Table) check(h Handle) error {
	if !h.IsValid() || h.Index() == 0 {
		return ErrInvalidHandle
	}
	if !this.Alive(h) {
		return fmt.Errorf("%w: %v", ErrStaleHandle, h)
	}
	return nil
}

// Resolve turns a raw id received from outside the process (a save file, a
// debugger, a remote tool) into a handle, but only if it names a live entity.
func (this *Table) Resolve(raw uint64) (Handle, bool) {
	h := newHandle(raw)
	if !this.Alive(h) {
		return Invalid(), false
	}
	return h, true
}

// Restore claims the exact slot and generation encoded in raw. It is used when
// loading a saved scene so that ids survive a round trip.
func (this *Table) Restore(raw uint64, name string) (Handle, error) {
	h := newHandle(raw)
	if !h.IsValid() || h.Index() == 0 {
		return Invalid(), ErrInvalidHandle
	}
	index := h.Index()
	for uint32(len(this.slots)) <= index {
		this.free = append(this.free, uint32(len(this.slots)))
		this.slots = append(this.slots, slot{})
	}
	s := &this.slots[index]
	if s.alive {
		return Invalid(), fmt.Errorf("%w: %v", ErrSlotInUse, h)
	}
	this.free = slices.DeleteFunc(this.free, func(i uint32) bool { return i == index })
	s.generation = h.Generation()
	s.retired = false
	s.alive = true
	s.name = name
	this.alive++
	return h, nil
}

// SetParent moves h under parent. An invalid parent makes h a root entity.
func (this *Table) SetParent(h, parent Handle) error {
	if err := this.check(h); err != nil {
		return err
	}
	if parent.IsValid() {
		if err := this.check(parent); err != nil {
			return err
		}
		for p := parent; p.IsValid(); p = this.slots[p.Index()].parent {
			if p == h {
				return ErrCycle
			}
		}
	}
	this.unlinkParent(h)
	if parent.IsValid() {
		this.slots[h.Index()].parent = parent
		p := &this.slots[parent.Index()]
		p.children = append(p.children, h)
	}
	return nil
}

func (this *Table) Parent(h Handle) Handle {
	if !this.Alive(h) {
		return Invalid()
	}
	return this.slots[h.Index()].parent
}

func (this *Table) Children(h Handle) []Handle {
	if !this.Alive(h) {
		return nil
	}
	return slices.Clone(this.slots[h.Index()].children)
}

func (this *Table) Name(h Handle) string {
	if !this.Alive(h) {
		return ""
	}
	return this.slots[h.Index()].name
}

// SetName renames h, suffixing the name if a sibling already uses it.
func (this *Table) SetName(h Handle, name string) error {
	if err := this.check(h); err != nil {
		return err
	}
	s := &this.slots[h.Index()]
	if s.name == name {
		return nil
	}
	s.name = ""
	s.name = this.uniqueName(s.parent, name)
	return nil
}

func (this *Table) uniqueName(parent Handle, name string) string {
	if name == "" {
		return ""
	}
	taken := func(candidate string) bool {
		for i := 1; i < len(this.slots); i++ {
			s := &this.slots[i]
			if s.alive && s.parent == parent && s.name == candidate {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%v_%v", name, n)
		if !taken(candidate) {
			return candidate
		}
	}
}

// Len returns the number of live entities.
func (this *Table) Len() int {
	return this.alive
}

// Range visits live entities in ascending index order until fn returns false.
func (this *Table) Range(fn func(h Handle) bool) {
	for i := 1; i < len(this.slots); i++ {
		s := &this.slots[i]
		if !s.alive {
			continue
		}
		if !fn(makeHandle(uint32(i), s.generation)) {
			return
		}
	}
}
