package ui

import (
	"testing"

	"github.com/NOT-REAL-GAMES/bindless/painter"
	"github.com/NOT-REAL-GAMES/bindless/rect"
)

func newTestDockingUi() *Ui {
	u := New(painter.New(nil), DefaultTheme())
	u.Theme.FontSize = 16
	return u
}

// TestDockingRegistersTabsToDefaultArea checks that newly registered tabs
// attach to the root container until explicitly split or detached.
func TestDockingRegistersTabsToDefaultArea(t *testing.T) {
	u := newTestDockingUi()
	d := NewDocking()

	d.BeginDocking(u, rect.Rect{Size: rect.Vec2{X: 800, Y: 600}})
	d.TabView(u, "A")
	d.TabView(u, "B")
	d.EndDocking(u)

	root, ok := d.areas.Get(d.root)
	if !ok {
		t.Fatalf("root area missing")
	}
	if !root.IsContainer {
		t.Fatalf("root should still be a container before any split")
	}
	if len(root.Container.Tabviews) != 2 {
		t.Fatalf("expected 2 tabs on root container, got %d", len(root.Container.Tabviews))
	}
}

// TestSplitThenCollapse covers scenario S4: splitting a tab into its own
// area produces a splitter with two container children; moving the tab
// back into the sibling collapses the splitter away, leaving a single
// container holding both tabs again.
func TestSplitThenCollapse(t *testing.T) {
	u := newTestDockingUi()
	d := NewDocking()

	d.BeginDocking(u, rect.Rect{Size: rect.Vec2{X: 800, Y: 600}})
	d.TabView(u, "A")
	d.TabView(u, "B")
	d.EndDocking(u)

	// Split tab B (index 1) out of the root container to the right.
	d.applyEvent(splitEvent{direction: rect.SplitRight, iTabview: 1, container: d.root}, u)

	root, ok := d.areas.Get(d.root)
	if !ok || root.IsContainer {
		t.Fatalf("root should now be a splitter")
	}
	left := root.Splitter.LeftChild
	right := root.Splitter.RightChild
	if !left.IsValid() || !right.IsValid() {
		t.Fatalf("splitter should have two valid children")
	}

	leftArea, _ := d.areas.Get(left)
	rightArea, _ := d.areas.Get(right)
	if !leftArea.IsContainer || !rightArea.IsContainer {
		t.Fatalf("both split children should be leaf containers")
	}
	if len(leftArea.Container.Tabviews) != 1 || leftArea.Container.Tabviews[0] != 0 {
		t.Fatalf("left child should hold tab A (index 0), got %v", leftArea.Container.Tabviews)
	}
	if len(rightArea.Container.Tabviews) != 1 || rightArea.Container.Tabviews[0] != 1 {
		t.Fatalf("right child should hold tab B (index 1), got %v", rightArea.Container.Tabviews)
	}

	// Drop tab B back into the left container: the right (now-empty)
	// container and the splitter holding it should both collapse away.
	d.applyEvent(dropTabEvent{iTabview: 1, inContainer: left}, u)

	newRoot, ok := d.areas.Get(d.root)
	if !ok {
		t.Fatalf("root area should still exist after collapse")
	}
	if !newRoot.IsContainer {
		t.Fatalf("root should have collapsed back to a single container")
	}
	if len(newRoot.Container.Tabviews) != 2 {
		t.Fatalf("collapsed root should hold both tabs, got %v", newRoot.Container.Tabviews)
	}
}

// TestDetachTabCreatesFloatingContainer covers the detach-to-floating path
// (docking.cpp's DetachTab event).
func TestDetachTabCreatesFloatingContainer(t *testing.T) {
	u := newTestDockingUi()
	d := NewDocking()

	d.BeginDocking(u, rect.Rect{Size: rect.Vec2{X: 800, Y: 600}})
	d.TabView(u, "A")
	d.EndDocking(u)

	if len(d.floatingContainers) != 0 {
		t.Fatalf("expected no floating containers before detach")
	}

	d.applyEvent(detachTabEvent{iTabview: 0}, u)

	if len(d.floatingContainers) != 1 {
		t.Fatalf("expected one floating container after detach, got %d", len(d.floatingContainers))
	}

	fc := d.floatingContainers[0]
	area, ok := d.areas.Get(fc.Area)
	if !ok || !area.IsContainer || len(area.Container.Tabviews) != 1 {
		t.Fatalf("floating container should own a fresh container holding the detached tab")
	}

	root, ok := d.areas.Get(d.root)
	if !ok || !root.IsContainer {
		t.Fatalf("root must have collapsed back to an (empty) container, not been destroyed")
	}
	if len(root.Container.Tabviews) != 0 {
		t.Fatalf("root should have no tabs left after detaching its only one")
	}
}
