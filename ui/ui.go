// Package ui implements the immediate-mode UI core (C9): per-frame input
// snapshot, focus/activation tracking, and the primitive widgets (button,
// splitter, label) built on top of the painter, adapted from the original
// engine's ui/ui.h and render_sample/src/ui.cpp.
package ui

import (
	"github.com/NOT-REAL-GAMES/bindless/painter"
	"github.com/NOT-REAL-GAMES/bindless/rect"
	"github.com/NOT-REAL-GAMES/bindless/text"
)

// MouseButton names a mouse button index into Inputs.MouseButtonsPressed.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
	mouseButtonCount
)

// Theme carries every color and size constant the widgets in this package
// read, matching ui/ui.h's UiTheme/Theme.
type Theme struct {
	AccentColor      painter.ColorU32
	ButtonBgColor    painter.ColorU32
	ButtonHoverColor painter.ColorU32
	ButtonPressColor painter.ColorU32
	LabelColor       painter.ColorU32

	InputThickness        float32
	SplitterThickness      float32
	SplitterHoverThickness float32
	SplitterColor          painter.ColorU32
	SplitterHoverColor     painter.ColorU32

	ScrollAreaBgColor   painter.ColorU32
	ScrollBarBgColor    painter.ColorU32
	ScrollThumbBgColor  painter.ColorU32

	MainFont   *text.Face
	MainFontID uint32
	FontSize   float32
}

// DefaultTheme returns a reasonable starting theme; callers typically
// override MainFont/MainFontID/FontSize once a font is loaded.
func DefaultTheme() Theme {
	return Theme{
		AccentColor:            0xFFF7831B,
		ButtonBgColor:          0xFF333333,
		ButtonHoverColor:       0xFF424242,
		ButtonPressColor:       0xFF383838,
		LabelColor:             0xFFFFFFFF,
		InputThickness:         6,
		SplitterThickness:      1,
		SplitterHoverThickness: 2,
		SplitterColor:          0xFF1A1A1A,
		SplitterHoverColor:     0xFF2A2A2A,
		ScrollAreaBgColor:      0xFF141414,
		ScrollBarBgColor:       0xFF1A1A1A,
		ScrollThumbBgColor:     0xFF3A3A3A,
		FontSize:               16,
	}
}

// Inputs is the per-frame input snapshot the caller populates before
// calling NewFrame.
type Inputs struct {
	MouseButtonsPressed           [mouseButtonCount]bool
	MouseButtonsPressedLastFrame [mouseButtonCount]bool
	MousePosition                rect.Vec2
	MouseWheel                   rect.Vec2
	HasMouseWheel                bool
}

// activeNone and activeInvalid are the two reserved Activation.Active
// values: 0 means "unclaimed this frame", and activeInvalid means "claimed
// and confirmed inactive" while a button stays held with no winner,
// matching ui_end_frame's two-phase release in render_sample/src/ui.cpp.
const (
	activeNone    uint64 = 0
	activeInvalid uint64 = ^uint64(0)
)

// Activation tracks which widget id is hovered (Focused) and which is
// currently being interacted with (Active), plus a monotonic id generator
// (Gen), matching ui/ui.h's Activation.
type Activation struct {
	Focused uint64
	Active  uint64
	Gen     uint64

	// dragOffsetX/Y record the cursor-to-origin offset captured at the
	// moment a drag-style widget (floating window titlebar, resize handle)
	// is activated, matching ui::State::active_drag_offset.
	dragOffsetX, dragOffsetY float32
}

// Cursor names the shape the caller should render for the OS cursor.
type Cursor int

const (
	CursorArrow Cursor = iota
	CursorResizeEW
	CursorResizeNS
)

// Ui is the immediate-mode context threaded through one frame's widget
// calls. It owns no resources; Painter is the frame's primitive emitter.
type Ui struct {
	Theme      Theme
	Inputs     Inputs
	Activation Activation
	Cursor     Cursor

	Painter *painter.Painter
}

// New creates a Ui drawing into p with the given theme.
func New(p *painter.Painter, theme Theme) *Ui {
	return &Ui{Theme: theme, Painter: p}
}

// NewFrame resets per-frame focus tracking and the cursor hint. Call once
// per frame before issuing any widget calls.
func (u *Ui) NewFrame() {
	u.Activation.Gen = 0
	u.Activation.Focused = 0
	u.Cursor = CursorArrow
}

// EndFrame resolves the activation state for the next frame: releasing the
// active widget once the mouse button is no longer held, or locking out new
// claims for the remainder of a held press that no widget claimed.
func (u *Ui) EndFrame() {
	if !u.Inputs.MouseButtonsPressed[MouseLeft] {
		u.Activation.Active = activeNone
	} else if u.Activation.Active == activeNone {
		u.Activation.Active = activeInvalid
	}
}

// MakeID returns a fresh widget id, unique within the current frame.
func (u *Ui) MakeID() uint64 {
	u.Activation.Gen++
	return u.Activation.Gen
}

// MousePosition returns the current frame's mouse position.
func (u *Ui) MousePosition() rect.Vec2 { return u.Inputs.MousePosition }

// IsHovering reports whether the mouse is currently inside r.
func (u *Ui) IsHovering(r rect.Rect) bool {
	return r.IsPointInside(u.Inputs.MousePosition)
}

// HasPressed reports whether button transitioned from up to down this
// frame.
func (u *Ui) HasPressed(button MouseButton) bool {
	return u.Inputs.MouseButtonsPressed[button] && !u.Inputs.MouseButtonsPressedLastFrame[button]
}

// HasPressedAndReleased reports whether button transitioned from down to up
// this frame.
func (u *Ui) HasPressedAndReleased(button MouseButton) bool {
	return !u.Inputs.MouseButtonsPressed[button] && u.Inputs.MouseButtonsPressedLastFrame[button]
}

// HasClicked reports whether id is both the focused and the active widget
// and button has just been released, the click-confirmation test every
// clickable widget (button, tab) shares (render_sample/src/ui.cpp's
// ui_button).
func (u *Ui) HasClicked(id uint64, button MouseButton) bool {
	return !u.Inputs.MouseButtonsPressed[button] && u.Activation.Focused == id && u.Activation.Active == id
}

// TryActivate claims id as Active if no widget has claimed activation yet
// this press and the mouse has just been pressed; the usual hover+press
// widget-claim sequence.
func (u *Ui) TryActivate(id uint64, button MouseButton) {
	if u.Activation.Active == activeNone && u.Inputs.MouseButtonsPressed[button] {
		u.Activation.Active = id
	}
}

// CurrentClipRect returns the clip index currently on top of the painter's
// clip stack, or painter.NoClipRect if none is pushed.
func (u *Ui) CurrentClipRect() uint32 { return u.Painter.CurrentClipRect() }

// PushClipRect draws r as a clip primitive and pushes it, returning its
// clip index.
func (u *Ui) PushClipRect(r rect.Rect) uint32 { return u.Painter.PushClipRect(r) }

// PopClipRect undoes the last PushClipRect.
func (u *Ui) PopClipRect() { u.Painter.PopClipRect() }

func (u *Ui) measureLabel(label string) (float32, float32) {
	if u.Theme.MainFont == nil {
		return 0, 0
	}
	return u.Painter.MeasureLabel(u.Theme.MainFont, label)
}

func (u *Ui) drawLabel(r rect.Rect, clip uint32, label string) {
	if u.Theme.MainFont == nil {
		return
	}
	u.Painter.DrawLabel(r, clip, u.Theme.MainFont, label, u.Theme.MainFontID)
}

// Button draws a clickable rectangle with a centered label and reports
// whether it was clicked this frame (ui_button in
// render_sample/src/ui.cpp).
func (u *Ui) Button(r rect.Rect, label string) bool {
	id := u.MakeID()
	clip := u.PushClipRect(r)
	defer u.PopClipRect()

	if u.IsHovering(r) {
		u.Activation.Focused = id
		u.TryActivate(id, MouseLeft)
	}
	clicked := u.HasClicked(id, MouseLeft)

	bg := u.Theme.ButtonBgColor
	if u.Activation.Focused == id {
		if u.Activation.Active == id {
			bg = u.Theme.ButtonPressColor
		} else {
			bg = u.Theme.ButtonHoverColor
		}
	}
	u.Painter.DrawColorRect(r, clip, bg)

	advance, height := u.measureLabel(label)
	labelRect := r.Center(rect.Vec2{X: advance, Y: height})
	u.drawLabel(labelRect, clip, label)

	return clicked
}

// InvisibleButton behaves like Button without drawing anything, for
// widgets that need a hit-test region without a rendered background (e.g.
// resize handles drawn separately).
func (u *Ui) InvisibleButton(r rect.Rect) bool {
	id := u.MakeID()
	if u.IsHovering(r) {
		u.Activation.Focused = id
		u.TryActivate(id, MouseLeft)
	}
	return u.HasClicked(id, MouseLeft)
}

// Label draws text left-aligned within r, with no interaction.
func (u *Ui) Label(r rect.Rect, text string) {
	u.drawLabel(r, u.CurrentClipRect(), text)
}

// Rect draws a flat-colored rectangle with no interaction.
func (u *Ui) Rect(r rect.Rect, color painter.ColorU32) {
	u.Painter.DrawColorRect(r, u.CurrentClipRect(), color)
}

// SplitterX splits viewRect horizontally at *value (a 0..1 fraction of
// width), returning the left and right rects, and lets the user drag the
// boundary (ui_splitter_x).
func (u *Ui) SplitterX(viewRect rect.Rect, value *float32) (left, right rect.Rect) {
	id := u.MakeID()

	right = viewRect
	left = rect.SplitLeftOf(&right, *value*viewRect.Size.X)

	inputRect := rect.Rect{
		Pos:  rect.Vec2{X: viewRect.Pos.X + left.Size.X - u.Theme.InputThickness/2, Y: viewRect.Pos.Y},
		Size: rect.Vec2{X: u.Theme.InputThickness, Y: viewRect.Size.Y},
	}

	if u.IsHovering(inputRect) {
		u.Cursor = CursorResizeEW
		u.Activation.Focused = id
		u.TryActivate(id, MouseLeft)
	}
	if u.Activation.Active == id {
		*value = (u.Inputs.MousePosition.X - viewRect.Pos.X) / viewRect.Size.X
	}

	thickness := u.Theme.SplitterThickness
	color := u.Theme.SplitterColor
	if u.Activation.Focused == id {
		color = u.Theme.SplitterHoverColor
	}
	bar := rect.Rect{
		Pos:  rect.Vec2{X: right.Pos.X - thickness/2, Y: viewRect.Pos.Y},
		Size: rect.Vec2{X: thickness, Y: viewRect.Size.Y},
	}
	u.Painter.DrawColorRect(bar, u.CurrentClipRect(), color)
	return left, right
}

// SplitterY splits viewRect vertically at *value (a 0..1 fraction of
// height), returning the top and bottom rects (ui_splitter_y).
func (u *Ui) SplitterY(viewRect rect.Rect, value *float32) (top, bottom rect.Rect) {
	id := u.MakeID()

	bottom = viewRect
	top = rect.SplitTopOf(&bottom, *value*viewRect.Size.Y)

	inputRect := rect.Rect{
		Pos:  rect.Vec2{X: viewRect.Pos.X, Y: viewRect.Pos.Y + top.Size.Y - u.Theme.InputThickness/2},
		Size: rect.Vec2{X: viewRect.Size.X, Y: u.Theme.InputThickness},
	}

	if u.IsHovering(inputRect) {
		u.Cursor = CursorResizeNS
		u.Activation.Focused = id
		u.TryActivate(id, MouseLeft)
	}
	if u.Activation.Active == id {
		*value = (u.Inputs.MousePosition.Y - viewRect.Pos.Y) / viewRect.Size.Y
	}

	thickness := u.Theme.SplitterThickness
	color := u.Theme.SplitterColor
	if u.Activation.Focused == id {
		color = u.Theme.SplitterHoverColor
	}
	bar := rect.Rect{
		Pos:  rect.Vec2{X: viewRect.Pos.X, Y: bottom.Pos.Y - thickness/2},
		Size: rect.Vec2{X: viewRect.Size.X, Y: thickness},
	}
	u.Painter.DrawColorRect(bar, u.CurrentClipRect(), color)
	return top, bottom
}
