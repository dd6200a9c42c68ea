package ui

import (
	"testing"

	"github.com/NOT-REAL-GAMES/bindless/painter"
	"github.com/NOT-REAL-GAMES/bindless/rect"
)

func newTestUi() *Ui {
	return New(painter.New(nil), DefaultTheme())
}

// TestButtonPressReleaseContract covers testable property / scenario S6: a
// button reports true only on the frame the mouse button is released while
// the cursor is still over it and this button was the one that captured
// the original press.
func TestButtonPressReleaseContract(t *testing.T) {
	u := newTestUi()
	btn := rect.Rect{Pos: rect.Vec2{X: 0, Y: 0}, Size: rect.Vec2{X: 100, Y: 30}}

	// Frame 1: mouse moves over the button and presses.
	u.NewFrame()
	u.Inputs.MousePosition = rect.Vec2{X: 10, Y: 10}
	u.Inputs.MouseButtonsPressed[MouseLeft] = true
	if u.Button(btn, "ok") {
		t.Fatalf("button reported clicked on the press frame, want false")
	}
	u.EndFrame()
	u.Inputs.MouseButtonsPressedLastFrame[MouseLeft] = true

	// Frame 2: still held, still hovering — no click yet.
	u.NewFrame()
	if u.Button(btn, "ok") {
		t.Fatalf("button reported clicked while still held, want false")
	}
	u.EndFrame()

	// Frame 3: release while still hovering — this is the click.
	u.NewFrame()
	u.Inputs.MouseButtonsPressed[MouseLeft] = false
	if !u.Button(btn, "ok") {
		t.Fatalf("button did not report clicked on release, want true")
	}
	u.EndFrame()
}

func TestButtonNoClickWhenPressedElsewhere(t *testing.T) {
	u := newTestUi()
	btn := rect.Rect{Pos: rect.Vec2{X: 0, Y: 0}, Size: rect.Vec2{X: 100, Y: 30}}

	// Press outside the button.
	u.NewFrame()
	u.Inputs.MousePosition = rect.Vec2{X: 500, Y: 500}
	u.Inputs.MouseButtonsPressed[MouseLeft] = true
	u.Button(btn, "ok")
	u.EndFrame()
	u.Inputs.MouseButtonsPressedLastFrame[MouseLeft] = true

	// Move over the button and release: should NOT count as a click since
	// this button never captured activation.
	u.NewFrame()
	u.Inputs.MousePosition = rect.Vec2{X: 10, Y: 10}
	u.Inputs.MouseButtonsPressed[MouseLeft] = false
	if u.Button(btn, "ok") {
		t.Fatalf("button reported clicked despite never being the active widget")
	}
}

func TestHasPressedEdgeDetection(t *testing.T) {
	u := newTestUi()
	if u.HasPressed(MouseLeft) {
		t.Fatalf("HasPressed true with nothing pressed")
	}
	u.Inputs.MouseButtonsPressed[MouseLeft] = true
	if !u.HasPressed(MouseLeft) {
		t.Fatalf("HasPressed false on press edge")
	}
	u.Inputs.MouseButtonsPressedLastFrame[MouseLeft] = true
	if u.HasPressed(MouseLeft) {
		t.Fatalf("HasPressed true on a held (non-edge) frame")
	}
}
