package entity

import (
	"errors"
	"math"
	"testing"
)

func TestTableCreateDestroy(t *testing.T) {
	table := NewTable(4)
	a := table.Create("a")
	b := table.Create("b")
	if !a.IsValid() || a.Index() == 0 {
		t.Fatalf("bad handle %v", a)
	}
	if a == b {
		t.Fatal("handles must differ")
	}
	if table.Len() != 2 {
		t.Fatalf("len:%v", table.Len())
	}
	if _, err := table.Destroy(a, false); err != nil {
		t.Fatal(err)
	}
	if table.Alive(a) {
		t.Fatal("destroyed handle still alive")
	}
	// the handle value itself is untouched
	if a.ID() == 0 {
		t.Fatal("handle self-invalidated")
	}
	c := table.Create("c")
	if c.Index() != a.Index() {
		t.Fatalf("slot not recycled %v %v", c, a)
	}
	if c.Generation() != a.Generation()+1 {
		t.Fatalf("generation not bumped %v %v", c, a)
	}
	if table.Alive(a) {
		t.Fatal("stale handle resolves to recycled slot")
	}
	if _, err := table.Destroy(a, false); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("expected stale error, got %v", err)
	}
	if _, err := table.Destroy(Invalid(), false); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected invalid error, got %v", err)
	}
}

func TestTableResolve(t *testing.T) {
	table := NewTable(0)
	a := table.Create("a")
	h, ok := table.Resolve(a.ID())
	if !ok || h != a {
		t.Fatalf("resolve %v %v", h, ok)
	}
	if _, ok := table.Resolve(0); ok {
		t.Fatal("resolved zero")
	}
	if _, ok := table.Resolve(12345); ok {
		t.Fatal("resolved a forged id")
	}
	table.Destroy(a, false)
	if _, ok := table.Resolve(a.ID()); ok {
		t.Fatal("resolved a dead id")
	}
}

func TestTableChildren(t *testing.T) {
	table := NewTable(8)
	root := table.Create("root")
	child, err := table.CreateChild(root, "child")
	if err != nil {
		t.Fatal(err)
	}
	grandChild, _ := table.CreateChild(child, "leaf")
	other, _ := table.CreateChild(root, "child")
	if table.Name(other) != "child_1" {
		t.Fatalf("sibling name not made unique:%v", table.Name(other))
	}
	if table.Parent(grandChild) != child {
		t.Fatal("parent mismatch")
	}
	if len(table.Children(root)) != 2 {
		t.Fatalf("children:%v", table.Children(root))
	}
	if err := table.SetParent(root, grandChild); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected cycle error, got %v", err)
	}

	destroyed, err := table.Destroy(child, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(destroyed) != 2 || destroyed[0] != grandChild || destroyed[1] != child {
		t.Fatalf("destroy order:%v", destroyed)
	}
	if len(table.Children(root)) != 1 {
		t.Fatalf("root children after destroy:%v", table.Children(root))
	}

	orphan, _ := table.CreateChild(other, "orphan")
	if _, err := table.Destroy(other, false); err != nil {
		t.Fatal(err)
	}
	if !table.Alive(orphan) || table.Parent(orphan).IsValid() {
		t.Fatal("child should survive as a root entity")
	}
}

func TestTableRestore(t *testing.T) {
	table := NewTable(0)
	h, err := table.Restore(42, "answer")
	if err != nil {
		t.Fatal(err)
	}
	if h.ID() != 42 || !table.Alive(h) || table.Name(h) != "answer" {
		t.Fatalf("restore %v", h)
	}
	if _, err := table.Restore(42, "again"); !errors.Is(err, ErrSlotInUse) {
		t.Fatalf("expected slot in use, got %v", err)
	}
	if _, err := table.Restore(0, ""); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if _, err := table.Restore(5<<32, ""); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("slot 0 must be rejected, got %v", err)
	}
	// lower slots created while growing are reusable
	seen := map[uint32]bool{}
	for i := 0; i < 41; i++ {
		seen[table.Create("").Index()] = true
	}
	if seen[42] || seen[0] || len(seen) != 41 {
		t.Fatalf("unexpected slot reuse:%v", len(seen))
	}
}

func TestTableGenerationWrap(t *testing.T) {
	table := NewTable(0)
	h, err := table.Restore(uint64(math.MaxUint32)<<32|1, "")
	if err != nil {
		t.Fatal(err)
	}
	table.Destroy(h, false)
	next := table.Create("")
	if next.Index() == 1 {
		t.Fatal("retired slot was reused")
	}
}

func TestTableRange(t *testing.T) {
	table := NewTable(0)
	var created []Handle
	for i := 0; i < 5; i++ {
		created = append(created, table.Create(""))
	}
	table.Destroy(created[2], false)
	var visited []Handle
	table.Range(func(h Handle) bool {
		visited = append(visited, h)
		return true
	})
	if len(visited) != 4 || visited[2] != created[3] {
		t.Fatalf("range:%v", visited)
	}
}
