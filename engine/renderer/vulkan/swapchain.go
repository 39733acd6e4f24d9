package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// MaxFramesInFlight is the number of image acquisitions that may be
// pending at once.
const MaxFramesInFlight = 2

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// VulkanSwapchain presents to one platform surface. It owns the surface,
// so disposing it releases the window's Vulkan surface too.
type VulkanSwapchain struct {
	context     *VulkanContext
	vsync       bool
	depthFormat vk.Format

	Surface         vk.Surface
	Handle          vk.Swapchain
	ImageFormat     vk.SurfaceFormat
	Extent          vk.Extent2D
	Images          []vk.Image
	Views           []vk.ImageView
	DepthAttachment *VulkanImage
	Renderpass      *VulkanRenderpass
	Framebuffers    []*VulkanFramebuffer

	imageAvailable []vk.Semaphore
	renderFinished []vk.Semaphore
	currentFrame   uint32
	imageIndex     uint32
	acquired       bool
	submitted      bool

	width, height uint32
	framebuffer   *VulkanSwapchainFramebuffer
}

// SwapchainCreate creates the surface from desc.Source and a swapchain of
// the requested size on it.
func SwapchainCreate(context *VulkanContext, desc metadata.SwapchainDescription) (*VulkanSwapchain, error) {
	if desc.Source.Vulkan == nil {
		return nil, errors.Wrap(core.ErrSurfaceRequired, "vulkan swapchain")
	}
	ptr, err := desc.Source.Vulkan(context.Instance)
	if err != nil {
		return nil, errors.Wrap(err, "creating platform surface")
	}
	if ptr == 0 {
		return nil, errors.New("failed to create platform surface")
	}

	vs := &VulkanSwapchain{
		context: context,
		vsync:   desc.SyncToVerticalBlank,
		Surface: vk.SurfaceFromPointer(ptr),
		Handle:  vk.NullSwapchain,
		width:   desc.Width,
		height:  desc.Height,
	}
	vs.framebuffer = &VulkanSwapchainFramebuffer{swapchain: vs}

	var supported vk.Bool32
	res := vk.GetPhysicalDeviceSurfaceSupport(context.Device.PhysicalDevice, context.Device.GraphicsQueueIndex, vs.Surface, &supported)
	if err := checkResult(res, "vkGetPhysicalDeviceSurfaceSupport"); err != nil {
		vs.destroySurface()
		return nil, err
	}
	if !supported.B() {
		vs.destroySurface()
		return nil, errors.Errorf("queue family %d cannot present to the surface", context.Device.GraphicsQueueIndex)
	}

	if desc.DepthFormat != metadata.PixelFormatUndefined {
		vs.depthFormat, err = context.Device.DetectDepthFormat(vkPixelFormat(desc.DepthFormat))
		if err != nil {
			vs.destroySurface()
			return nil, err
		}
	} else {
		vs.depthFormat = vk.FormatUndefined
	}

	if err := vs.create(); err != nil {
		vs.Dispose()
		return nil, err
	}
	core.LogDebug("Swapchain created (%dx%d).", vs.Extent.Width, vs.Extent.Height)
	return vs, nil
}

func querySwapchainSupport(pd vk.PhysicalDevice, surface vk.Surface) (*VulkanSwapchainSupportInfo, error) {
	info := &VulkanSwapchainSupportInfo{}
	if err := checkResult(vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &info.Capabilities), "vkGetPhysicalDeviceSurfaceCapabilities"); err != nil {
		return nil, err
	}
	info.Capabilities.Deref()
	info.Capabilities.CurrentExtent.Deref()
	info.Capabilities.MinImageExtent.Deref()
	info.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := checkResult(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, nil), "vkGetPhysicalDeviceSurfaceFormats"); err != nil {
		return nil, err
	}
	if formatCount != 0 {
		formats := make([]vk.SurfaceFormat, formatCount)
		if err := checkResult(vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, formats), "vkGetPhysicalDeviceSurfaceFormats"); err != nil {
			return nil, err
		}
		for _, f := range formats[:formatCount] {
			f.Deref()
			info.Formats = append(info.Formats, f)
		}
	}

	var modeCount uint32
	if err := checkResult(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &modeCount, nil), "vkGetPhysicalDeviceSurfacePresentModes"); err != nil {
		return nil, err
	}
	if modeCount != 0 {
		info.PresentModes = make([]vk.PresentMode, modeCount)
		if err := checkResult(vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &modeCount, info.PresentModes), "vkGetPhysicalDeviceSurfacePresentModes"); err != nil {
			return nil, err
		}
		info.PresentModes = info.PresentModes[:modeCount]
	}

	if len(info.Formats) == 0 || len(info.PresentModes) == 0 {
		return nil, errors.New("surface has no formats or present modes")
	}
	return info, nil
}

func clampUint32(v, lo, hi uint32) uint32 {
	return max(lo, min(v, hi))
}

func chooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func chooseCompositeAlpha(supported vk.CompositeAlphaFlags) vk.CompositeAlphaFlagBits {
	for _, bit := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if supported&vk.CompositeAlphaFlags(bit) != 0 {
			return bit
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

// create builds the swapchain and everything sized after it. A zero sized
// surface leaves the swapchain empty until the next resize.
func (vs *VulkanSwapchain) create() error {
	device := vs.context.Device
	support, err := querySwapchainSupport(device.PhysicalDevice, vs.Surface)
	if err != nil {
		return err
	}

	extent := chooseExtent(support.Capabilities, vs.width, vs.height)
	if extent.Width == 0 || extent.Height == 0 {
		core.LogDebug("Surface has zero extent, swapchain left empty.")
		vs.destroySwapchain()
		return nil
	}

	surfaceFormat := chooseSurfaceFormat(support.Formats)
	presentMode := choosePresentMode(support.PresentModes, vs.vsync)

	imageCount := support.Capabilities.MinImageCount + 1
	if support.Capabilities.MaxImageCount > 0 && imageCount > support.Capabilities.MaxImageCount {
		imageCount = support.Capabilities.MaxImageCount
	}

	oldSwapchain := vs.Handle
	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          vs.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   chooseCompositeAlpha(support.Capabilities.SupportedCompositeAlpha),
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}

	var handle vk.Swapchain
	res := vk.CreateSwapchain(device.LogicalDevice, &createInfo, vs.context.Allocator, &handle)
	vs.destroySwapchain()
	if err := checkResult(res, "vkCreateSwapchain"); err != nil {
		return err
	}
	vs.Handle = handle
	vs.ImageFormat = surfaceFormat
	vs.Extent = extent

	var count uint32
	if err := checkResult(vk.GetSwapchainImages(device.LogicalDevice, vs.Handle, &count, nil), "vkGetSwapchainImages"); err != nil {
		return err
	}
	vs.Images = make([]vk.Image, count)
	if err := checkResult(vk.GetSwapchainImages(device.LogicalDevice, vs.Handle, &count, vs.Images), "vkGetSwapchainImages"); err != nil {
		return err
	}
	vs.Images = vs.Images[:count]

	for _, image := range vs.Images {
		view, err := ImageViewCreate(vs.context, image, surfaceFormat.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return err
		}
		vs.Views = append(vs.Views, view)
	}

	if vs.depthFormat != vk.FormatUndefined {
		vs.DepthAttachment, err = ImageCreate(vs.context, extent.Width, extent.Height, vs.depthFormat,
			vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit), depthAspect(vs.depthFormat))
		if err != nil {
			return errors.Wrap(err, "creating depth attachment")
		}
	}

	if vs.Renderpass == nil || vs.Renderpass.ColorFormat != surfaceFormat.Format {
		if vs.Renderpass != nil {
			vs.Renderpass.Destroy(vs.context)
		}
		vs.Renderpass, err = RenderpassCreate(vs.context, surfaceFormat.Format, vs.depthFormat)
		if err != nil {
			return err
		}
	}

	for _, view := range vs.Views {
		attachments := []vk.ImageView{view}
		if vs.DepthAttachment != nil {
			attachments = append(attachments, vs.DepthAttachment.View)
		}
		fb, err := FramebufferCreate(vs.context, vs.Renderpass, extent.Width, extent.Height, attachments)
		if err != nil {
			return err
		}
		vs.Framebuffers = append(vs.Framebuffers, fb)
	}

	return vs.createSyncObjects()
}

func (vs *VulkanSwapchain) createSyncObjects() error {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	newSemaphore := func() (vk.Semaphore, error) {
		var s vk.Semaphore
		err := checkResult(vk.CreateSemaphore(vs.context.Device.LogicalDevice, &semaphoreCreateInfo, vs.context.Allocator, &s), "vkCreateSemaphore")
		return s, err
	}
	for i := 0; i < MaxFramesInFlight; i++ {
		s, err := newSemaphore()
		if err != nil {
			return err
		}
		vs.imageAvailable = append(vs.imageAvailable, s)
	}
	// One per image: a present may still wait on the previous signal.
	for range vs.Images {
		s, err := newSemaphore()
		if err != nil {
			return err
		}
		vs.renderFinished = append(vs.renderFinished, s)
	}
	vs.currentFrame = 0
	vs.acquired = false
	vs.submitted = false
	return nil
}

// destroySwapchain releases everything create builds except the render
// pass and the surface.
func (vs *VulkanSwapchain) destroySwapchain() {
	logical := vs.context.Device.LogicalDevice
	for _, s := range vs.imageAvailable {
		vk.DestroySemaphore(logical, s, vs.context.Allocator)
	}
	for _, s := range vs.renderFinished {
		vk.DestroySemaphore(logical, s, vs.context.Allocator)
	}
	vs.imageAvailable, vs.renderFinished = nil, nil

	for _, fb := range vs.Framebuffers {
		fb.Destroy(vs.context)
	}
	vs.Framebuffers = nil

	if vs.DepthAttachment != nil {
		vs.DepthAttachment.Destroy(vs.context)
		vs.DepthAttachment = nil
	}

	for _, view := range vs.Views {
		vk.DestroyImageView(logical, view, vs.context.Allocator)
	}
	vs.Views = nil
	vs.Images = nil

	if vs.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(logical, vs.Handle, vs.context.Allocator)
		vs.Handle = vk.NullSwapchain
	}
	vs.acquired = false
	vs.submitted = false
}

func (vs *VulkanSwapchain) destroySurface() {
	if vs.Surface != vk.NullSurface {
		vk.DestroySurface(vs.context.Instance, vs.Surface, vs.context.Allocator)
		vs.Surface = vk.NullSurface
	}
}

// recreate waits for the device and builds the swapchain again at the
// last requested size.
func (vs *VulkanSwapchain) recreate() error {
	return vs.context.Locks.SafeCall(SwapchainManagement, func() error {
		vk.DeviceWaitIdle(vs.context.Device.LogicalDevice)
		if err := vs.create(); err != nil {
			return errors.Wrapf(err, "recreating swapchain at %dx%d", vs.width, vs.height)
		}
		core.LogDebug("Swapchain recreated (%dx%d).", vs.Extent.Width, vs.Extent.Height)
		return nil
	})
}

// acquireNextImage acquires the image the next frame renders into. An out
// of date swapchain is recreated and the acquisition retried once.
func (vs *VulkanSwapchain) acquireNextImage() error {
	if vs.acquired {
		return nil
	}
	for attempt := 0; ; attempt++ {
		if vs.Handle == vk.NullSwapchain {
			return errors.Wrap(core.ErrSwapchainBooting, "swapchain is empty")
		}
		var index uint32
		result := vk.AcquireNextImage(vs.context.Device.LogicalDevice, vs.Handle, math.MaxUint64,
			vs.imageAvailable[vs.currentFrame], vk.NullFence, &index)
		switch result {
		case vk.Success, vk.Suboptimal:
			vs.imageIndex = index
			vs.acquired = true
			vs.submitted = false
			return nil
		case vk.ErrorOutOfDate:
			if attempt > 0 {
				return errors.Wrap(core.ErrSwapchainBooting, "swapchain still out of date")
			}
			if err := vs.recreate(); err != nil {
				return err
			}
		default:
			return errors.Errorf("failed to acquire swapchain image: %s", VulkanResultString(result, true))
		}
	}
}

// present queues the acquired image for presentation. Nothing happens when
// no image was acquired since the last present.
func (vs *VulkanSwapchain) present() error {
	if !vs.acquired {
		return nil
	}
	if !vs.submitted {
		return errors.New("presenting a swapchain image no commands were submitted for")
	}

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{vs.renderFinished[vs.imageIndex]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{vs.imageIndex},
	}

	device := vs.context.Device
	var result vk.Result
	_ = vs.context.Locks.SafeQueueCall(device.GraphicsQueueIndex, func() error {
		result = vk.QueuePresent(device.GraphicsQueue, &presentInfo)
		return nil
	})

	vs.acquired = false
	vs.submitted = false
	vs.currentFrame = (vs.currentFrame + 1) % MaxFramesInFlight

	switch result {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		core.LogDebug("Swapchain %s on present, recreating.", VulkanResultString(result, false))
		return vs.recreate()
	}
	return errors.Errorf("failed to present swapchain image: %s", VulkanResultString(result, true))
}

func (vs *VulkanSwapchain) Framebuffer() renderer.Framebuffer { return vs.framebuffer }

func (vs *VulkanSwapchain) Width() uint32 { return vs.Extent.Width }

func (vs *VulkanSwapchain) Height() uint32 { return vs.Extent.Height }

func (vs *VulkanSwapchain) Resize(width, height uint32) error {
	vs.width, vs.height = width, height
	return vs.recreate()
}

func (vs *VulkanSwapchain) Dispose() {
	if vs.context == nil || vs.context.Device == nil {
		return
	}
	vk.DeviceWaitIdle(vs.context.Device.LogicalDevice)
	vs.destroySwapchain()
	if vs.Renderpass != nil {
		vs.Renderpass.Destroy(vs.context)
		vs.Renderpass = nil
	}
	vs.destroySurface()
	core.LogDebug("Swapchain destroyed.")
	vs.context = nil
}

// VulkanSwapchainFramebuffer targets whichever swapchain image is acquired
// for the current frame.
type VulkanSwapchainFramebuffer struct {
	swapchain *VulkanSwapchain
}

func (f *VulkanSwapchainFramebuffer) Width() uint32  { return f.swapchain.Extent.Width }
func (f *VulkanSwapchainFramebuffer) Height() uint32 { return f.swapchain.Extent.Height }

func (f *VulkanSwapchainFramebuffer) OutputDescription() metadata.OutputDescription {
	return metadata.OutputDescription{
		ColorFormat: pixelFormat(f.swapchain.ImageFormat.Format),
		DepthFormat: pixelFormat(f.swapchain.depthFormat),
	}
}
