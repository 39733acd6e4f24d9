package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// VulkanGraphicsDevice is a renderer.Device on one logical device and its
// graphics queue. It outlives the surfaces it presents to: swapchains are
// created and disposed independently.
type VulkanGraphicsDevice struct {
	context *VulkanContext
	main    *VulkanSwapchain
	factory *VulkanResourceFactory
}

// NewGraphicsDevice creates the instance, picks a physical device and
// creates the logical device. A main swapchain is created when desc is set.
func NewGraphicsDevice(options metadata.GraphicsDeviceOptions, desc *metadata.SwapchainDescription) (*VulkanGraphicsDevice, error) {
	context, err := createInstance(options)
	if err != nil {
		return nil, err
	}
	if err := DeviceCreate(context, options.PreferStandardClipSpaceYDirection); err != nil {
		destroyInstance(context)
		return nil, errors.Wrap(err, "creating vulkan device")
	}
	if options.PreferDepthRangeZeroToOne {
		core.LogDebug("Vulkan depth range is always [0, 1].")
	}

	gd := &VulkanGraphicsDevice{context: context}
	gd.factory = &VulkanResourceFactory{context: context}

	if desc != nil {
		sc, err := SwapchainCreate(context, *desc)
		if err != nil {
			gd.Dispose()
			return nil, err
		}
		gd.main = sc
	}
	return gd, nil
}

func (gd *VulkanGraphicsDevice) Backend() metadata.GraphicsBackend {
	return metadata.GraphicsBackendVulkan
}

func (gd *VulkanGraphicsDevice) ResourceFactory() renderer.ResourceFactory { return gd.factory }

func (gd *VulkanGraphicsDevice) MainSwapchain() renderer.Swapchain {
	if gd.main == nil {
		return nil
	}
	return gd.main
}

func (gd *VulkanGraphicsDevice) UpdateBuffer(buffer renderer.Buffer, offset uint32, data []byte) error {
	b, ok := buffer.(*VulkanBuffer)
	if !ok {
		return errors.Errorf("buffer %T was not created by a vulkan device", buffer)
	}
	return b.Update(offset, data)
}

func (gd *VulkanGraphicsDevice) SubmitCommands(cl renderer.CommandList) error {
	list, ok := cl.(*VulkanCommandList)
	if !ok {
		return errors.Errorf("command list %T was not created by a vulkan device", cl)
	}
	return list.submit()
}

func (gd *VulkanGraphicsDevice) SwapBuffers(swapchain renderer.Swapchain) error {
	sc, ok := swapchain.(*VulkanSwapchain)
	if !ok {
		return errors.Errorf("swapchain %T was not created by a vulkan device", swapchain)
	}
	return sc.present()
}

func (gd *VulkanGraphicsDevice) WaitForIdle() {
	if gd.context != nil && gd.context.Device != nil {
		vk.DeviceWaitIdle(gd.context.Device.LogicalDevice)
	}
}

func (gd *VulkanGraphicsDevice) Dispose() {
	if gd.context == nil {
		return
	}
	gd.WaitForIdle()
	if gd.main != nil {
		gd.main.Dispose()
		gd.main = nil
	}
	DeviceDestroy(gd.context)
	destroyInstance(gd.context)
	core.LogDebug("Vulkan device destroyed.")
	gd.context = nil
}

type VulkanResourceFactory struct {
	context *VulkanContext
}

func (f *VulkanResourceFactory) CreateBuffer(desc metadata.BufferDescription) (renderer.Buffer, error) {
	b, err := BufferCreate(f.context, desc)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (f *VulkanResourceFactory) CreateShaders(vertex, fragment metadata.ShaderDescription) ([]renderer.Shader, error) {
	vs, err := ShaderCreate(f.context, vertex)
	if err != nil {
		return nil, err
	}
	fs, err := ShaderCreate(f.context, fragment)
	if err != nil {
		vs.Dispose()
		return nil, err
	}
	return []renderer.Shader{vs, fs}, nil
}

func (f *VulkanResourceFactory) CreateGraphicsPipeline(desc renderer.GraphicsPipelineDescription) (renderer.Pipeline, error) {
	p, err := NewGraphicsPipeline(f.context, desc)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (f *VulkanResourceFactory) CreateCommandList() (renderer.CommandList, error) {
	cl, err := NewCommandList(f.context)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func (f *VulkanResourceFactory) CreateSwapchain(desc metadata.SwapchainDescription) (renderer.Swapchain, error) {
	sc, err := SwapchainCreate(f.context, desc)
	if err != nil {
		return nil, err
	}
	return sc, nil
}
