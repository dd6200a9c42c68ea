package work

import (
	"github.com/NOT-REAL-GAMES/bindless/device"
	"github.com/NOT-REAL-GAMES/bindless/engine/vkerr"
	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
)

// Pool is a ring of FrameQueueLength command pools, one primary command
// buffer each, rotated by SimpleRenderer.StartFrame so that recording frame
// k never touches a pool the GPU might still be executing from frame
// k-FrameQueueLength (§4.10, §5).
type Pool struct {
	dev     *device.Device
	pools   []vk.CommandPool
	buffers []vk.CommandBuffer
	index   int
}

// NewPool allocates frameQueueLength command pools against queueFamily,
// each with a single resettable primary command buffer.
func NewPool(dev *device.Device, frameQueueLength int, queueFamily uint32) (*Pool, error) {
	raw := dev.Raw()
	p := &Pool{dev: dev, pools: make([]vk.CommandPool, frameQueueLength), buffers: make([]vk.CommandBuffer, frameQueueLength)}
	for i := 0; i < frameQueueLength; i++ {
		cp, err := raw.CreateCommandPool(&vk.CommandPoolCreateInfo{
			Flags:            vk.COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT,
			QueueFamilyIndex: queueFamily,
		})
		if err != nil {
			return nil, vkerr.Classify("vkCreateCommandPool", int32(err.(vk.Result)))
		}
		bufs, err := raw.AllocateCommandBuffers(&vk.CommandBufferAllocateInfo{
			CommandPool:        cp,
			Level:              vk.COMMAND_BUFFER_LEVEL_PRIMARY,
			CommandBufferCount: 1,
		})
		if err != nil {
			return nil, vkerr.Classify("vkAllocateCommandBuffers", int32(err.(vk.Result)))
		}
		p.pools[i] = cp
		p.buffers[i] = bufs[0]
	}
	return p, nil
}

// Rotate advances to the next ring slot; call once per frame, matching the
// ring buffers' own StartFrame cadence.
func (p *Pool) Rotate() { p.index = (p.index + 1) % len(p.pools) }

// Acquire resets the current slot's pool and returns a Recorder with
// recording already begun over its single command buffer.
func (p *Pool) Acquire() (*Recorder, error) {
	if err := p.dev.Raw().ResetCommandPool(p.pools[p.index], 0); err != nil {
		return nil, vkerr.Classify("vkResetCommandPool", int32(err.(vk.Result)))
	}
	rec := New(p.dev, p.buffers[p.index])
	if err := rec.Begin(); err != nil {
		return nil, vkerr.Classify("vkBeginCommandBuffer", int32(err.(vk.Result)))
	}
	return rec, nil
}

// CommandBuffer exposes the current slot's raw command buffer for
// submission.
func (p *Pool) CommandBuffer() vk.CommandBuffer { return p.buffers[p.index] }
