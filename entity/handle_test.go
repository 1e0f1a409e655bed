package entity

import "testing"

func TestInvalid(t *testing.T) {
	if Invalid().ID() != 0 {
		t.Fatalf("invalid id:%v", Invalid().ID())
	}
	if Invalid().IsValid() {
		t.Fatal("invalid handle reports valid")
	}
	var zero Handle
	if zero != Invalid() {
		t.Fatal("zero value must equal Invalid()")
	}
}

func TestHandleRoundTrip(t *testing.T) {
	for _, raw := range []uint64{1, 42, 1<<32 | 7, 1<<64 - 1} {
		h := newHandle(raw)
		if h.ID() != raw {
			t.Errorf("round trip %v -> %v", raw, h.ID())
		}
		if !h.IsValid() {
			t.Errorf("%v should be valid", raw)
		}
	}
}

func TestHandleEquality(t *testing.T) {
	if newHandle(42) != newHandle(42) {
		t.Error("same id must compare equal")
	}
	if newHandle(42) == newHandle(43) {
		t.Error("different ids must compare unequal")
	}
	m := map[uint64]string{}
	m[newHandle(42).ID()] = "a"
	if m[newHandle(42).ID()] != "a" {
		t.Error("raw id key lookup failed")
	}
}

func TestHandleParts(t *testing.T) {
	h := makeHandle(7, 3)
	if h.Index() != 7 || h.Generation() != 3 {
		t.Fatalf("parts:%v %v", h.Index(), h.Generation())
	}
	if h.ID() != 3<<32|7 {
		t.Fatalf("id:%v", h.ID())
	}
	t.Log(h, Invalid())
}
