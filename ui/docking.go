package ui

import (
	"github.com/NOT-REAL-GAMES/bindless/painter"
	"github.com/NOT-REAL-GAMES/bindless/pool"
	"github.com/NOT-REAL-GAMES/bindless/rect"
)

// invalidTab marks a TabView/container selection slot as unset, mirroring
// the source's u32_invalid/usize_invalid sentinel convention (ui/docking.h).
const invalidTab = -1

// SplitDirection reuses rect.SplitDirection: Top/Bottom produce a
// horizontal splitter, Left/Right a vertical one (docking.cpp's
// split_is_horizontal).

// AreaDirection names a splitter's layout axis.
type AreaDirection int

const (
	DirectionHorizontal AreaDirection = iota
	DirectionVertical
)

// AreaContainer is a leaf area: a tab well holding zero or more tab
// indices, with Selected naming the currently visible one.
type AreaContainer struct {
	Tabviews []int
	Selected int
}

// AreaSplitter is an interior area: two children divided by a draggable
// bar at fraction Split along Direction.
type AreaSplitter struct {
	LeftChild, RightChild pool.Handle[Area]
	Split                 float32
	Direction             AreaDirection
}

// Area is a node in the docking tree: either a container or a splitter,
// matching ui/docking.h's manually tagged Area union. Go's pool.Pool
// already gives it generational-handle safety, so no move/destructor
// bookkeeping is needed the way the source's hand-rolled union required.
type Area struct {
	IsContainer bool
	Container   AreaContainer
	Splitter    AreaSplitter
	Rect        rect.Rect
	Parent      pool.Handle[Area]
}

// TabView names one dockable panel and the area it currently lives in.
type TabView struct {
	Title string
	Area  pool.Handle[Area]
}

// FloatingContainer is a free-floating window wrapping its own area tree.
type FloatingContainer struct {
	Area pool.Handle[Area]
	Rect rect.Rect
}

// TabState is what draw_tab reports about one tab-title interaction this
// frame.
type TabState int

const (
	TabNone TabState = iota
	TabDragging
	TabClickedTitle
	TabClickedDetach
)

// DockingEvent is the sum type of deferred mutations EndDocking applies
// after drawing (docking.cpp processes these after the draw pass so tree
// structure never changes mid-traversal).
type DockingEvent interface{ isDockingEvent() }

type dropTabEvent struct {
	iTabview    int
	inContainer pool.Handle[Area]
}

func (dropTabEvent) isDockingEvent() {}

type splitEvent struct {
	direction rect.SplitDirection
	iTabview  int
	container pool.Handle[Area]
}

func (splitEvent) isDockingEvent() {}

type detachTabEvent struct{ iTabview int }

func (detachTabEvent) isDockingEvent() {}

type moveFloatingEvent struct {
	iFloating int
	position  rect.Vec2
}

func (moveFloatingEvent) isDockingEvent() {}

// DockingUi is the per-update scratch state draw_docking/draw_area_overlay
// read and the deferred event queue EndDocking drains.
type DockingUi struct {
	EMSize    float32
	ActiveTab int
	Events    []DockingEvent
}

// Docking owns the whole dockable-panel tree: a generational pool of
// Areas, the root splitter/container, every known tab, and any torn-off
// floating windows (ui/docking.h's Docking struct).
type Docking struct {
	areas       *pool.Pool[Area]
	root        pool.Handle[Area]
	defaultArea pool.Handle[Area]

	tabviews           []TabView
	floatingContainers []FloatingContainer

	state DockingUi
}

// NewDocking creates an empty docking tree: one root container that new
// tabs attach to by default.
func NewDocking() *Docking {
	d := &Docking{areas: pool.New[Area](64), state: DockingUi{ActiveTab: invalidTab}}
	d.root = d.areas.Add(Area{IsContainer: true, Container: AreaContainer{Selected: invalidTab}, Parent: pool.Invalid[Area]()})
	d.defaultArea = d.root
	return d
}

// TabView registers tabname on first call (attaching it to the default
// area) and returns its content rect whenever it is the selected tab of its
// area this frame.
func (d *Docking) TabView(u *Ui, tabname string) (rect.Rect, bool) {
	iTab := invalidTab
	for i := range d.tabviews {
		if d.tabviews[i].Title == tabname {
			iTab = i
			break
		}
	}
	if iTab == invalidTab {
		d.tabviews = append(d.tabviews, TabView{Title: tabname, Area: d.defaultArea})
		iTab = len(d.tabviews) - 1
		d.insertTabview(iTab, d.defaultArea)
	}

	tab := d.tabviews[iTab]
	area, _ := d.areas.Get(tab.Area)
	if area.Container.Selected < 0 || area.Container.Selected >= len(area.Container.Tabviews) ||
		area.Container.Tabviews[area.Container.Selected] != iTab {
		return rect.Rect{}, false
	}

	content := area.Rect
	rect.SplitTopOf(&content, 2*d.state.EMSize)
	u.Painter.DrawColorRect(content, u.CurrentClipRect(), 0xFF1A1A1A)
	return content, true
}

// BeginDocking lays rect out over the tree, refreshing selected tabs and
// propagating geometry top-down (docking.cpp's begin_docking).
func (d *Docking) BeginDocking(u *Ui, r rect.Rect) {
	d.state.EMSize = u.Theme.FontSize
	d.state.ActiveTab = invalidTab

	d.updateAreaRec(d.root)
	if area, ok := d.areas.Get(d.root); ok {
		area.Rect = r
	}

	em := d.state.EMSize
	for i := range d.floatingContainers {
		fc := d.floatingContainers[i]
		body := fc.Rect
		rect.SplitTopOf(&body, 0.25*em)
		if area, ok := d.areas.Get(fc.Area); ok {
			area.Rect = body
		}
		d.updateAreaRec(fc.Area)
	}
}

// EndDocking draws every area, the floating windows, the drag preview and
// docking overlay, then applies every event queued this frame
// (docking.cpp's end_docking).
func (d *Docking) EndDocking(u *Ui) {
	d.drawAreaRec(u, d.root)
	for i := range d.floatingContainers {
		d.drawFloatingArea(u, i)
	}
	d.drawDragPreview(u)

	d.areas.Each(func(h pool.Handle[Area], _ *Area) bool {
		d.drawAreaOverlay(u, h)
		return true
	})

	events := d.state.Events
	d.state.Events = nil
	for _, ev := range events {
		d.applyEvent(ev, u)
	}

	for i := 0; i < len(d.floatingContainers); {
		fc := d.floatingContainers[i]
		if area, ok := d.areas.Get(fc.Area); ok && area.IsContainer && len(area.Container.Tabviews) == 0 {
			d.areas.Remove(fc.Area)
			d.floatingContainers[i] = d.floatingContainers[len(d.floatingContainers)-1]
			d.floatingContainers = d.floatingContainers[:len(d.floatingContainers)-1]
			continue
		}
		i++
	}
}

func (d *Docking) applyEvent(ev DockingEvent, u *Ui) {
	switch e := ev.(type) {
	case dropTabEvent:
		previous := d.tabviews[e.iTabview].Area
		if previous != e.inContainer {
			d.removeTabview(e.iTabview)
			d.insertTabview(e.iTabview, e.inContainer)
			d.removeEmptyAreas(previous)
		}

	case splitEvent:
		previousTabContainer := d.tabviews[e.iTabview].Area
		d.removeTabview(e.iTabview)
		newContainer := d.areas.Add(Area{IsContainer: true, Container: AreaContainer{Selected: 0}, Parent: pool.Invalid[Area]()})
		d.insertTabview(e.iTabview, newContainer)
		previousSplit := d.splitArea(e.container, e.direction, newContainer)
		d.removeEmptyAreas(previousTabContainer)
		d.removeEmptyAreas(previousSplit)

	case detachTabEvent:
		previous := d.tabviews[e.iTabview].Area
		d.removeTabview(e.iTabview)
		newContainer := d.areas.Add(Area{IsContainer: true, Container: AreaContainer{Tabviews: []int{e.iTabview}, Selected: 0}, Parent: pool.Invalid[Area]()})
		d.tabviews[e.iTabview].Area = newContainer
		d.floatingContainers = append(d.floatingContainers, FloatingContainer{
			Area: newContainer,
			Rect: rect.Rect{Pos: rect.Vec2{X: 200, Y: 200}, Size: rect.Vec2{X: 500, Y: 500}},
		})
		d.removeEmptyAreas(previous)

	case moveFloatingEvent:
		fc := &d.floatingContainers[e.iFloating]
		fc.Rect.Pos = rect.Vec2{X: e.position.X - u.Activation.dragOffsetX, Y: e.position.Y - u.Activation.dragOffsetY}
	}
}

func (d *Docking) removeTabview(iTabview int) {
	tab := &d.tabviews[iTabview]
	area, _ := d.areas.Get(tab.Area)
	tab.Area = pool.Invalid[Area]()

	for i, t := range area.Container.Tabviews {
		if t == iTabview {
			last := len(area.Container.Tabviews) - 1
			area.Container.Tabviews[i] = area.Container.Tabviews[last]
			area.Container.Tabviews = area.Container.Tabviews[:last]
			break
		}
	}
}

func (d *Docking) insertTabview(iTabview int, areaHandle pool.Handle[Area]) {
	area, _ := d.areas.Get(areaHandle)
	area.Container.Tabviews = append(area.Container.Tabviews, iTabview)
	d.tabviews[iTabview].Area = areaHandle
}

func areaReplaceChild(area *Area, previous, next pool.Handle[Area]) {
	if area.Splitter.LeftChild == previous {
		area.Splitter.LeftChild = next
	} else if area.Splitter.RightChild == previous {
		area.Splitter.RightChild = next
	}
}

func splitIsHorizontal(dir rect.SplitDirection) bool {
	return dir == rect.SplitTop || dir == rect.SplitBottom
}

// splitArea replaces previousAreaHandle with a new splitter holding the
// previous area's contents (moved to a new handle) and newChildHandle,
// returning the handle the previous area's contents now live under
// (docking.cpp's split_area).
func (d *Docking) splitArea(previousAreaHandle pool.Handle[Area], direction rect.SplitDirection, newChildHandle pool.Handle[Area]) pool.Handle[Area] {
	previousArea, _ := d.areas.Get(previousAreaHandle)
	previousCopy := *previousArea
	previousParent := previousCopy.Parent
	newOldAreaHandle := d.areas.Add(previousCopy)

	if previousCopy.IsContainer {
		for i := range d.tabviews {
			if d.tabviews[i].Area == previousAreaHandle {
				d.tabviews[i].Area = newOldAreaHandle
			}
		}
	}

	left, right := newChildHandle, newOldAreaHandle
	if direction == rect.SplitBottom || direction == rect.SplitRight {
		left, right = newOldAreaHandle, newChildHandle
	}

	axis := DirectionVertical
	if splitIsHorizontal(direction) {
		axis = DirectionHorizontal
	}

	newSplitter := Area{
		IsContainer: false,
		Splitter:    AreaSplitter{LeftChild: left, RightChild: right, Split: 0.5, Direction: axis},
		Parent:      previousParent,
	}
	*previousArea = newSplitter

	if child, ok := d.areas.Get(newChildHandle); ok {
		child.Parent = previousAreaHandle
	}
	if child, ok := d.areas.Get(newOldAreaHandle); ok {
		child.Parent = previousAreaHandle
	}

	return newOldAreaHandle
}

// removeEmptyAreas collapses redundant splitters (one dead child) and
// container areas with no tabs, bubbling from areaHandle up to the root
// (docking.cpp's remove_empty_areas).
func (d *Docking) removeEmptyAreas(areaHandle pool.Handle[Area]) {
	if !areaHandle.IsValid() {
		return
	}
	area, ok := d.areas.Get(areaHandle)
	if !ok {
		return
	}
	parentHandle := area.Parent

	if !area.IsContainer {
		lvalid, rvalid := area.Splitter.LeftChild.IsValid(), area.Splitter.RightChild.IsValid()
		if lvalid != rvalid {
			childHandle := area.Splitter.LeftChild
			if !lvalid {
				childHandle = area.Splitter.RightChild
			}

			if child, ok := d.areas.Get(childHandle); ok {
				child.Parent = parentHandle
			}

			if parentHandle.IsValid() {
				if parent, ok := d.areas.Get(parentHandle); ok {
					areaReplaceChild(parent, areaHandle, childHandle)
				}
			} else {
				child, _ := d.areas.Get(childHandle)
				moved := *child
				if !moved.IsContainer {
					if l, ok := d.areas.Get(moved.Splitter.LeftChild); ok {
						l.Parent = areaHandle
					}
					if r, ok := d.areas.Get(moved.Splitter.RightChild); ok {
						r.Parent = areaHandle
					}
				} else {
					for _, iTab := range moved.Container.Tabviews {
						d.tabviews[iTab].Area = areaHandle
					}
				}
				*area = moved
				d.areas.Remove(childHandle)
			}
		}
	} else if len(area.Container.Tabviews) == 0 && parentHandle.IsValid() {
		if parent, ok := d.areas.Get(parentHandle); ok {
			areaReplaceChild(parent, areaHandle, pool.Invalid[Area]())
		}
		d.areas.Remove(areaHandle)
	}

	d.removeEmptyAreas(parentHandle)
}

// updateAreaRec refreshes each container's selected-tab index (selecting
// the first tab if none is selected, clearing selection if the tab list
// emptied) across the whole subtree (docking.cpp's update_area_rec).
func (d *Docking) updateAreaRec(areaHandle pool.Handle[Area]) {
	if !areaHandle.IsValid() {
		return
	}
	area, ok := d.areas.Get(areaHandle)
	if !ok {
		return
	}

	if !area.IsContainer {
		d.updateAreaRec(area.Splitter.LeftChild)
		d.updateAreaRec(area.Splitter.RightChild)
		return
	}

	c := &area.Container
	switch {
	case c.Selected == invalidTab:
		if len(c.Tabviews) > 0 {
			c.Selected = 0
		}
	case len(c.Tabviews) == 0:
		c.Selected = invalidTab
	case c.Selected >= len(c.Tabviews):
		c.Selected = 0
	}
}

func (d *Docking) drawTab(u *Ui, tab TabView, r *rect.Rect, isActive bool) TabState {
	em := d.state.EMSize
	advance, _ := u.measureLabel(tab.Title)

	titleRect := rect.SplitLeftOf(r, advance+em)
	titleCopy := titleRect
	bottomBorder := rect.SplitBottomOf(&titleCopy, 0.1*em)

	result := TabNone
	id := u.MakeID()

	hovering := u.IsHovering(titleRect)
	if hovering {
		u.Activation.Focused = id
		if u.Activation.Active == activeNone && (u.HasPressed(MouseLeft) || u.HasPressed(MouseRight)) {
			u.Activation.Active = id
		}
	} else if u.Activation.Active == id {
		result = TabDragging
	}

	if hovering && u.HasClicked(id, MouseLeft) {
		result = TabClickedTitle
	}
	if hovering && u.HasClicked(id, MouseRight) {
		result = TabClickedDetach
	}

	color := painter.ColorU32(0xFF333333)
	if u.Activation.Focused == id && u.Activation.Active == id {
		color = 0xFF383838
	} else if u.Activation.Focused == id {
		color = 0xFF424242
	}
	u.Painter.DrawColorRect(titleRect, u.CurrentClipRect(), color)
	u.drawLabel(titleRect, u.CurrentClipRect(), tab.Title)

	if isActive {
		u.Painter.DrawColorRect(bottomBorder, painter.NoClipRect, u.Theme.AccentColor)
	}

	rect.SplitLeftOf(r, 0.1*em)
	return result
}

func (d *Docking) drawAreaRec(u *Ui, areaHandle pool.Handle[Area]) {
	if !areaHandle.IsValid() {
		return
	}
	em := d.state.EMSize
	area, ok := d.areas.Get(areaHandle)
	if !ok {
		return
	}

	if !area.IsContainer {
		var left, right rect.Rect
		s := area.Splitter
		if s.Direction == DirectionHorizontal {
			left, right = u.SplitterY(area.Rect, &area.Splitter.Split)
		} else {
			left, right = u.SplitterX(area.Rect, &area.Splitter.Split)
		}

		if s.LeftChild.IsValid() {
			if c, ok := d.areas.Get(s.LeftChild); ok {
				c.Rect = left
			}
		}
		if s.RightChild.IsValid() {
			if c, ok := d.areas.Get(s.RightChild); ok {
				c.Rect = right
			}
		}

		d.drawAreaRec(u, s.LeftChild)
		d.drawAreaRec(u, s.RightChild)
		return
	}

	c := &area.Container
	if len(c.Tabviews) == 0 {
		return
	}

	areaRect := area.Rect
	tabwell := rect.SplitTopOf(&areaRect, 2*em)
	u.Painter.DrawColorRect(tabwell, u.CurrentClipRect(), 0xFF282828)

	for i, iTab := range c.Tabviews {
		tab := d.tabviews[iTab]
		state := d.drawTab(u, tab, &tabwell, i == c.Selected)
		switch state {
		case TabDragging:
			d.state.ActiveTab = iTab
		case TabClickedTitle:
			c.Selected = i
		case TabClickedDetach:
			d.state.Events = append(d.state.Events, detachTabEvent{iTabview: iTab})
		}
	}
}

func (d *Docking) drawFloatingArea(u *Ui, i int) {
	fc := &d.floatingContainers[i]
	em := d.state.EMSize

	body := fc.Rect
	titlebar := rect.SplitTopOf(&body, 0.25*em)

	mouse := u.MousePosition()
	{
		id := u.MakeID()
		if u.IsHovering(titlebar) {
			u.Activation.Focused = id
			if u.Activation.Active == activeNone && u.Inputs.MouseButtonsPressed[MouseLeft] {
				u.Activation.Active = id
				u.Activation.dragOffsetX = mouse.X - fc.Rect.Pos.X
				u.Activation.dragOffsetY = mouse.Y - fc.Rect.Pos.Y
			}
		}
		if u.Activation.Active == id {
			d.state.Events = append(d.state.Events, moveFloatingEvent{iFloating: i, position: mouse})
		}
		u.Painter.DrawColorRect(titlebar, u.CurrentClipRect(), 0xFF00FFFF)
	}

	d.drawAreaRec(u, fc.Area)

	bottom := body
	resizeStrip := rect.SplitBottomOf(&bottom, 0.5*em)
	handle := rect.SplitRightOf(&resizeStrip, 0.5*em)
	{
		id := u.MakeID()
		if u.IsHovering(handle) {
			u.Activation.Focused = id
			if u.Activation.Active == activeNone && u.Inputs.MouseButtonsPressed[MouseLeft] {
				u.Activation.Active = id
				u.Activation.dragOffsetX = mouse.X - handle.Pos.X
				u.Activation.dragOffsetY = mouse.Y - handle.Pos.Y
			}
		}
		if u.Activation.Active == id {
			fc.Rect.Size = rect.Vec2{
				X: mouse.X - fc.Rect.Pos.X - u.Activation.dragOffsetX + handle.Size.X,
				Y: mouse.Y - fc.Rect.Pos.Y - u.Activation.dragOffsetY + handle.Size.Y,
			}
		}
		u.Painter.DrawColorRect(handle, u.CurrentClipRect(), 0xBBFF00FF)
	}
}

func (d *Docking) drawDragPreview(u *Ui) {
	if d.state.ActiveTab == invalidTab {
		return
	}
	em := d.state.EMSize
	tab := d.tabviews[d.state.ActiveTab]

	preview := rect.Rect{Pos: u.MousePosition(), Size: rect.Vec2{X: 10 * em, Y: 1.5 * em}}
	u.Painter.DrawColorRect(preview, u.CurrentClipRect(), 0x80000000)
	u.drawLabel(preview, u.CurrentClipRect(), tab.Title)
}

// dropZoneSize/dropZoneOffset match docking.cpp's HANDLE_SIZE/HANDLE_OFFSET
// constants for the five drop-target rects (center + four split edges).
const (
	dropZoneSize   = 3.0
	dropZoneOffset = dropZoneSize + 0.5
)

func (d *Docking) drawAreaOverlay(u *Ui, areaHandle pool.Handle[Area]) {
	if d.state.ActiveTab == invalidTab {
		return
	}
	em := d.state.EMSize
	area, ok := d.areas.Get(areaHandle)
	if !ok || !area.IsContainer {
		return
	}

	dropRect := area.Rect.Center(rect.Vec2{X: dropZoneSize * em, Y: dropZoneSize * em})
	top := dropRect.Offset(rect.Vec2{X: 0, Y: -dropZoneOffset * em})
	right := dropRect.Offset(rect.Vec2{X: dropZoneOffset * em, Y: 0})
	bottom := dropRect.Offset(rect.Vec2{X: 0, Y: dropZoneOffset * em})
	left := dropRect.Offset(rect.Vec2{X: -dropZoneOffset * em, Y: 0})

	drawZone := func(r rect.Rect, ev DockingEvent) {
		color := painter.ColorU32(0x401B83F7)
		if u.IsHovering(r) {
			if !u.Inputs.MouseButtonsPressed[MouseLeft] {
				d.state.Events = append(d.state.Events, ev)
			}
			color = 0x801B83F7
		}
		u.Painter.DrawColorRect(r, u.CurrentClipRect(), color)
	}

	drawZone(dropRect, dropTabEvent{iTabview: d.state.ActiveTab, inContainer: areaHandle})
	drawZone(top, splitEvent{direction: rect.SplitTop, iTabview: d.state.ActiveTab, container: areaHandle})
	drawZone(right, splitEvent{direction: rect.SplitRight, iTabview: d.state.ActiveTab, container: areaHandle})
	drawZone(bottom, splitEvent{direction: rect.SplitBottom, iTabview: d.state.ActiveTab, container: areaHandle})
	drawZone(left, splitEvent{direction: rect.SplitLeft, iTabview: d.state.ActiveTab, container: areaHandle})
}
