package graph

import "testing"

func TestSizeAbsolute(t *testing.T) {
	s := Absolute(640, 480)
	w, h := s.resolve([2]uint32{1920, 1080})
	if w != 640 || h != 480 {
		t.Fatalf("resolve() = (%d, %d), want (640, 480)", w, h)
	}
}

func TestSizeScreenRelative(t *testing.T) {
	s := ScreenRelative(0.5, 0.25)
	w, h := s.resolve([2]uint32{1920, 1080})
	if w != 960 || h != 270 {
		t.Fatalf("resolve() = (%d, %d), want (960, 270)", w, h)
	}
}

func TestSizeScreenRelativeNeverZero(t *testing.T) {
	s := ScreenRelative(0.001, 0.001)
	w, h := s.resolve([2]uint32{100, 100})
	if w == 0 || h == 0 {
		t.Fatalf("resolve() = (%d, %d), want both nonzero", w, h)
	}
}

func TestDescHandleValidity(t *testing.T) {
	var zero DescHandle
	if zero.IsValid() {
		t.Fatal("zero-value DescHandle reports valid")
	}
	if zero.index() != -1 {
		t.Fatalf("zero-value DescHandle.index() = %d, want -1", zero.index())
	}

	h := DescHandle{idx: 3, valid: true}
	if !h.IsValid() {
		t.Fatal("constructed DescHandle reports invalid")
	}
	if h.index() != 3 {
		t.Fatalf("index() = %d, want 3", h.index())
	}
}
