package entity

import "fmt"

const (
	indexBits = 32
	indexMask = 1<<indexBits - 1
)

// Handle is an opaque identifier of an entity living in a Table.
//
// The underlying value packs the slot index in the low 32 bits and the slot
// generation in the high 32 bits. The value 0 is reserved and never refers to
// a live entity. A Handle does not own the entity and does not invalidate
// itself when the entity is destroyed; use Table.Alive to detect stale handles.
type Handle struct {
	id uint64
}

// Invalid returns the canonical invalid handle, whose id is 0.
func Invalid() Handle {
	return Handle{}
}

// only the table (and tests in this package) may mint handles from raw values
func newHandle(id uint64) Handle {
	return Handle{id: id}
}

func makeHandle(index, generation uint32) Handle {
	return Handle{id: uint64(generation)<<indexBits | uint64(index)}
}

// ID returns the underlying integer identifier.
// Reading the id of an invalid handle is well-defined and returns 0.
func (h Handle) ID() uint64 {
	return h.id
}

// IsValid reports whether the handle is not the reserved zero value.
// It says nothing about whether the entity is still alive.
func (h Handle) IsValid() bool {
	return h.id != 0
}

// Index returns the slot index part of the handle.
func (h Handle) Index() uint32 {
	return uint32(h.id & indexMask)
}

// Generation returns the slot generation part of the handle.
func (h Handle) Generation() uint32 {
	return uint32(h.id >> indexBits)
}

func (h Handle) String() string {
	if !h.IsValid() {
		return "Entity(invalid)"
	}
	return fmt.Sprintf("Entity(%d:%d)", h.Index(), h.Generation())
}
