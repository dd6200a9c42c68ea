package device

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/bindless/engine/elog"
	"github.com/NOT-REAL-GAMES/bindless/engine/vkerr"
	"github.com/NOT-REAL-GAMES/bindless/internal/vk"
	"github.com/NOT-REAL-GAMES/bindless/pool"
)

// Bindless array sizes, fixed when the descriptor set is created at startup;
// the arrays never grow afterwards, matching the source's "one big set"
// design (§4.2, §6).
const (
	maxSampledImages = 4096
	maxStorageImages = 4096
	maxStorageBuffers = 8192
)

// bindless descriptor set layout, matching §6's table.
const (
	setUniforms      = 0
	setSampledImages = 1
	setStorageImages = 2
	setStorageBuffers = 3
)

// DeviceOptions controls instance/device construction.
type DeviceOptions struct {
	ApplicationName        string
	EnableValidationLayers bool
	// SelectPhysicalDevice picks among the enumerated devices; nil selects
	// the first VK_PHYSICAL_DEVICE_TYPE_DISCRETE_GPU, falling back to the
	// first device of any type.
	SelectPhysicalDevice func([]vk.PhysicalDevice) vk.PhysicalDevice
	Logger               elog.Logger
}

// pendingDeletion is an entry in the per-frame deletion queue: a resource
// scheduled for destruction is not actually destroyed until every frame
// that could still be in flight when it was scheduled has retired.
type pendingDeletion struct {
	readyAtFrame uint64
	free         func()
}

// Device owns the Vulkan instance/device/bindless descriptor set, every
// resource pool, and per-queue submission state (C2).
type Device struct {
	opts DeviceOptions
	log  elog.Logger

	instance       vk.Instance
	physicalDevice vk.PhysicalDevice
	vk             vk.Device
	graphicsQueue  vk.Queue
	queueFamily    uint32

	descriptorPool vk.DescriptorPool
	setLayout      vk.DescriptorSetLayout
	globalSet      vk.DescriptorSet
	pendingWrites  []vk.WriteDescriptorSet
	pipelineLayout vk.PipelineLayout

	images       pool.Pool[Image]
	buffers      pool.Pool[Buffer]
	programs     pool.Pool[Program]
	framebuffers pool.Pool[Framebuffer]
	shaders      pool.Pool[Shader]

	freeSampledSlots []int32
	nextSampledSlot  int32
	freeStorageSlots []int32
	nextStorageSlot  int32
	freeBufferSlots  []int32
	nextBufferSlot   int32

	currentFrame uint64
	deletions    []pendingDeletion

	currentSwapchainImage vk.Image
}

// New builds the Vulkan instance, selects a physical device, creates the
// logical device and the bindless descriptor set. Window/surface extension
// names are supplied by the caller's window-system collaborator (out of
// scope per §1) and merged into the instance extension list.
func New(opts DeviceOptions, windowExtensions []string) (*Device, error) {
	if opts.Logger == nil {
		opts.Logger = elog.Default()
	}
	d := &Device{opts: opts, log: opts.Logger}

	var layers []string
	if opts.EnableValidationLayers {
		layers = append(layers, "VK_LAYER_KHRONOS_validation")
	}

	instance, err := vk.CreateInstance(&vk.InstanceCreateInfo{
		ApplicationInfo: &vk.ApplicationInfo{
			ApplicationName: opts.ApplicationName,
			EngineName:      "bindless",
			ApiVersion:      vk.ApiVersion_1_3,
		},
		EnabledLayerNames:     layers,
		EnabledExtensionNames: windowExtensions,
	})
	if err != nil {
		return nil, vkerr.Classify("vkCreateInstance", int32(err.(vk.Result)))
	}
	d.instance = instance
	d.log.Info("vulkan instance created", "validation", opts.EnableValidationLayers)

	physicalDevices, err := instance.EnumeratePhysicalDevices()
	if err != nil || len(physicalDevices) == 0 {
		return nil, fmt.Errorf("device: no vulkan physical devices available: %w", vkerr.ErrDeviceLost)
	}
	selector := opts.SelectPhysicalDevice
	if selector == nil {
		selector = selectDiscreteGPU
	}
	d.physicalDevice = selector(physicalDevices)
	props := d.physicalDevice.GetProperties()
	d.log.Info("physical device selected", "name", props.DeviceName)

	d.queueFamily = findGraphicsQueueFamily(d.physicalDevice)

	logical, err := d.physicalDevice.CreateDevice(&vk.DeviceCreateInfo{
		QueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			QueueFamilyIndex: d.queueFamily,
			QueuePriorities:  []float32{1.0},
		}},
		EnabledExtensionNames: []string{"VK_KHR_swapchain", "VK_KHR_dynamic_rendering"},
		Vulkan13Features:      &vk.PhysicalDeviceVulkan13Features{DynamicRendering: true},
	})
	if err != nil {
		return nil, vkerr.Classify("vkCreateDevice", int32(err.(vk.Result)))
	}
	d.vk = logical
	d.graphicsQueue = logical.GetQueue(d.queueFamily, 0)

	if err := d.createBindlessSet(); err != nil {
		return nil, err
	}

	d.images = *pool.New[Image](256)
	d.buffers = *pool.New[Buffer](256)
	d.programs = *pool.New[Program](64)
	d.framebuffers = *pool.New[Framebuffer](64)
	d.shaders = *pool.New[Shader](128)

	return d, nil
}

func selectDiscreteGPU(devices []vk.PhysicalDevice) vk.PhysicalDevice {
	for _, pd := range devices {
		if pd.GetProperties().DeviceType == vk.PHYSICAL_DEVICE_TYPE_DISCRETE_GPU {
			return pd
		}
	}
	return devices[0]
}

func findGraphicsQueueFamily(pd vk.PhysicalDevice) uint32 {
	for i, fam := range pd.GetQueueFamilyProperties() {
		if fam.QueueFlags&vk.QUEUE_GRAPHICS_BIT != 0 {
			return uint32(i)
		}
	}
	return 0
}

func (d *Device) createBindlessSet() error {
	layout, err := d.vk.CreateDescriptorSetLayout(&vk.DescriptorSetLayoutCreateInfo{
		Bindings: []vk.DescriptorSetLayoutBinding{
			{Binding: setUniforms, DescriptorType: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER, DescriptorCount: 1, StageFlags: 0x7fffffff},
			{Binding: setSampledImages, DescriptorType: vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, DescriptorCount: maxSampledImages, StageFlags: 0x7fffffff},
			{Binding: setStorageImages, DescriptorType: vk.DESCRIPTOR_TYPE_STORAGE_IMAGE, DescriptorCount: maxStorageImages, StageFlags: 0x7fffffff},
			{Binding: setStorageBuffers, DescriptorType: vk.DESCRIPTOR_TYPE_STORAGE_BUFFER, DescriptorCount: maxStorageBuffers, StageFlags: 0x7fffffff},
		},
	})
	if err != nil {
		return vkerr.Classify("vkCreateDescriptorSetLayout", int32(err.(vk.Result)))
	}
	d.setLayout = layout

	dpool, err := d.vk.CreateDescriptorPool(&vk.DescriptorPoolCreateInfo{
		MaxSets: 1,
		PoolSizes: []vk.DescriptorPoolSize{
			{Type: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER, DescriptorCount: 1},
			{Type: vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, DescriptorCount: maxSampledImages},
			{Type: vk.DESCRIPTOR_TYPE_STORAGE_IMAGE, DescriptorCount: maxStorageImages},
			{Type: vk.DESCRIPTOR_TYPE_STORAGE_BUFFER, DescriptorCount: maxStorageBuffers},
		},
	})
	if err != nil {
		return vkerr.Classify("vkCreateDescriptorPool", int32(err.(vk.Result)))
	}
	d.descriptorPool = dpool

	sets, err := d.vk.AllocateDescriptorSets(&vk.DescriptorSetAllocateInfo{
		DescriptorPool: dpool,
		SetLayouts:     []vk.DescriptorSetLayout{layout},
	})
	if err != nil {
		return vkerr.Classify("vkAllocateDescriptorSets", int32(err.(vk.Result)))
	}
	d.globalSet = sets[0]

	playout, err := d.vk.CreatePipelineLayout(&vk.PipelineLayoutCreateInfo{
		SetLayouts: []vk.DescriptorSetLayout{layout},
		PushConstantRanges: []vk.PushConstantRange{
			{StageFlags: 0x7fffffff, Offset: 0, Size: 8}, // {draw_id, gui_texture_id} per §6.
		},
	})
	if err != nil {
		return vkerr.Classify("vkCreatePipelineLayout", int32(err.(vk.Result)))
	}
	d.pipelineLayout = playout
	return nil
}

// CurrentFrame returns the monotonic frame counter Device submissions are
// tagged with; the deletion queue compares against it.
func (d *Device) CurrentFrame() uint64 { return d.currentFrame }

// PipelineLayout exposes the shared bindless pipeline layout for program
// compilation.
func (d *Device) PipelineLayout() vk.PipelineLayout { return d.pipelineLayout }

// Queue returns the graphics queue used for submission.
func (d *Device) Queue() vk.Queue { return d.graphicsQueue }

// Raw exposes the underlying vk.Device for collaborators that need to issue
// calls the device abstraction doesn't wrap (e.g. surface/swapchain setup).
func (d *Device) Raw() vk.Device                 { return d.vk }
func (d *Device) PhysicalDevice() vk.PhysicalDevice { return d.physicalDevice }
func (d *Device) Instance() vk.Instance          { return d.instance }

// QueueFamily returns the graphics queue family index selected at
// construction, for collaborators (work.NewPool) that need to allocate
// their own command pools against it.
func (d *Device) QueueFamily() uint32 { return d.queueFamily }
