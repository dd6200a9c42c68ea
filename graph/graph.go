package graph

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/bindless/device"
	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
	"github.com/NOT-REAL-GAMES/bindless/pool"
	"github.com/NOT-REAL-GAMES/bindless/work"
)

// ExecuteFunc is a pass's recording callback. It receives the recorder,
// already positioned inside a begin_pass/end_pass scope for graphic passes,
// and the graph itself for resolving any other TextureDesc handles it needs.
type ExecuteFunc func(rec *work.Recorder, g *Graph)

type passKind int

const (
	passGraphic passKind = iota
	passRaw
)

type pass struct {
	kind     passKind
	color    DescHandle
	depth    DescHandle
	hasDepth bool
	execute  ExecuteFunc
}

// Graph is the single-frame object client code builds by calling Output,
// GraphicPass and RawPass, then hands to Execute to record (§4.6). A Graph
// is reused frame to frame: Execute clears its pass and desc lists before
// returning.
type Graph struct {
	dev      *device.Device
	registry *Registry

	descs  []TextureDesc
	passes []pass
}

// New creates a Graph bound to dev and its resource Registry. The Registry
// persists across frames; the Graph's pass/desc lists do not.
func New(dev *device.Device, registry *Registry) *Graph {
	return &Graph{dev: dev, registry: registry}
}

// Registry exposes the persistent resource registry, e.g. for
// SetScreenSize calls from the renderer.
func (g *Graph) Registry() *Registry { return g.registry }

// Dev exposes the device for pass callbacks that need to resolve other
// resources (ring buffers, bindless indices) outside the graph's own API.
func (g *Graph) Dev() *device.Device { return g.dev }

// Output adds a logical texture description to the current frame and
// returns a handle valid only until the next Execute call.
func (g *Graph) Output(desc TextureDesc) DescHandle {
	g.descs = append(g.descs, desc)
	return DescHandle{idx: len(g.descs) - 1, valid: true}
}

// GraphicPass appends a pass that renders into color (and, if hasDepth,
// depth) via VK_KHR_dynamic_rendering.
func (g *Graph) GraphicPass(color, depth DescHandle, hasDepth bool, execute ExecuteFunc) {
	g.passes = append(g.passes, pass{kind: passGraphic, color: color, depth: depth, hasDepth: hasDepth, execute: execute})
}

// RawPass appends a pass whose callback manipulates the command buffer (and
// its own barriers) directly, outside the attachment-resolution machinery —
// the present blit is the prototypical example (§4.4).
func (g *Graph) RawPass(execute ExecuteFunc) {
	g.passes = append(g.passes, pass{kind: passRaw, execute: execute})
}

// ResolveImage resolves a TextureDesc handle to its backing device image,
// for pass callbacks that need the raw handle (e.g. to read its bindless
// sampled index for a fullscreen blit or composite).
func (g *Graph) ResolveImage(h DescHandle) (pool.Handle[device.Image], bool) {
	idx := h.index()
	if idx < 0 || idx >= len(g.descs) {
		return pool.Invalid[device.Image](), false
	}
	img, _, err := g.registry.resolve(&g.descs[idx])
	if err != nil {
		return pool.Invalid[device.Image](), false
	}
	return img, true
}

// Execute records one command buffer covering every pass in submission
// order (§4.6): begin_frame on the registry, acquire a command buffer,
// record each pass, end the buffer, advance the frame counter. The pass and
// desc lists are cleared before returning so the caller can start building
// next frame's graph immediately.
func (g *Graph) Execute(wp *work.Pool) (*work.Recorder, error) {
	g.registry.beginFrame()

	rec, err := wp.Acquire()
	if err != nil {
		return nil, fmt.Errorf("graph: acquire command buffer: %w", err)
	}

	for _, p := range g.passes {
		switch p.kind {
		case passGraphic:
			if err := g.recordGraphicPass(rec, p); err != nil {
				return nil, err
			}
		case passRaw:
			p.execute(rec, g)
		}
	}

	if err := rec.End(); err != nil {
		return nil, fmt.Errorf("graph: end recording: %w", err)
	}

	g.registry.iFrame++
	g.passes = g.passes[:0]
	g.descs = g.descs[:0]
	return rec, nil
}

func (g *Graph) recordGraphicPass(rec *work.Recorder, p pass) error {
	colorIdx := p.color.index()
	if colorIdx < 0 || colorIdx >= len(g.descs) {
		return fmt.Errorf("graph: graphic pass references an invalid color desc")
	}
	colorImg, colorFresh, err := g.registry.resolve(&g.descs[colorIdx])
	if err != nil {
		return fmt.Errorf("graph: resolve color attachment: %w", err)
	}

	hasDepth := p.hasDepth
	var depthImg pool.Handle[device.Image]
	var depthFresh bool
	if hasDepth {
		depthIdx := p.depth.index()
		if depthIdx < 0 || depthIdx >= len(g.descs) {
			hasDepth = false
		} else if depthImg, depthFresh, err = g.registry.resolve(&g.descs[depthIdx]); err != nil {
			return fmt.Errorf("graph: resolve depth attachment: %w", err)
		}
	}

	colorImage, ok := g.dev.Image(colorImg)
	if !ok {
		return fmt.Errorf("graph: resolved color image handle is stale")
	}
	width, height := colorImage.Desc.Width, colorImage.Desc.Height

	colorAttachments := []pool.Handle[device.Image]{colorImg}
	var depthForFB pool.Handle[device.Image]
	if hasDepth {
		depthForFB = depthImg
	}
	g.registry.framebuffer(colorAttachments, depthForFB, width, height)

	rec.Barrier(colorImg, device.UsageColorAttachment)
	colorView, _ := g.dev.ImageView(colorImg)
	colorLoads := []work.AttachmentLoad{{Clear: colorFresh}}

	var depthViewPtr *vk.ImageView
	var depthLoadPtr *work.AttachmentLoad
	if hasDepth {
		rec.Barrier(depthImg, device.UsageDepthAttachment)
		depthView, _ := g.dev.ImageView(depthImg)
		depthLoad := work.AttachmentLoad{Clear: depthFresh}
		depthViewPtr = &depthView
		depthLoadPtr = &depthLoad
	}

	rec.SetViewport(float32(width), float32(height))
	rec.SetScissor(0, 0, width, height)
	rec.BeginPass([]vk.ImageView{colorView}, colorLoads, depthViewPtr, depthLoadPtr, width, height)
	p.execute(rec, g)
	rec.EndPass()
	return nil
}
