package scene

import "github.com/neon-engine/neonhost/entity"

func (this *World) Alive(h entity.Handle) bool {
	return this.table.Alive(h)
}

// Resolve turns a raw id from outside the process into a live handle.
func (this *World) Resolve(raw uint64) (entity.Handle, bool) {
	return this.table.Resolve(raw)
}

func (this *World) Name(h entity.Handle) string {
	return this.table.Name(h)
}

func (this *World) SetName(h entity.Handle, name string) error {
	return this.table.SetName(h, name)
}

func (this *World) Parent(h entity.Handle) entity.Handle {
	return this.table.Parent(h)
}

func (this *World) SetParent(h, parent entity.Handle) error {
	return this.table.SetParent(h, parent)
}

func (this *World) Children(h entity.Handle) []entity.Handle {
	return this.table.Children(h)
}

func (this *World) EntityCount() int {
	return this.table.Len()
}

// RangeEntity visits live entities in index order.
func (this *World) RangeEntity(fn func(h entity.Handle) bool) {
	this.table.Range(fn)
}
