package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
)

const maintenance1Ext = "VK_KHR_maintenance1"

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	GraphicsQueueIndex uint32
	GraphicsQueue      vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties

	Extensions []string
}

func enumeratePhysicalDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var count uint32
	if err := checkResult(vk.EnumeratePhysicalDevices(instance, &count, nil), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, errors.New("no devices which support Vulkan were found")
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := checkResult(vk.EnumeratePhysicalDevices(instance, &count, devices), "vkEnumeratePhysicalDevices"); err != nil {
		return nil, err
	}
	return devices[:count], nil
}

// findGraphicsQueueFamily returns the first queue family with graphics
// support. Presentation is checked once a surface exists.
func findGraphicsQueueFamily(pd vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, families)
	for i, family := range families {
		family.Deref()
		if family.QueueCount > 0 && family.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

func deviceExtensions(pd vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := checkResult(vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil), "vkEnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := checkResult(vk.EnumerateDeviceExtensionProperties(pd, "", &count, props), "vkEnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:]))
	}
	return names, nil
}

// SelectPhysicalDevice picks a device with a graphics queue and the
// swapchain extension, preferring discrete GPUs.
func SelectPhysicalDevice(context *VulkanContext) error {
	devices, err := enumeratePhysicalDevices(context.Instance)
	if err != nil {
		return err
	}

	var best *VulkanDevice
	bestScore := 0
	for _, pd := range devices {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pd, &props)
		props.Deref()
		name := vk.ToString(props.DeviceName[:])

		queueIndex, ok := findGraphicsQueueFamily(pd)
		if !ok {
			core.LogDebug("Device '%s' has no graphics queue, skipping.", name)
			continue
		}
		exts, err := deviceExtensions(pd)
		if err != nil {
			return err
		}
		if !hasName(exts, vk.KhrSwapchainExtensionName) {
			core.LogDebug("Device '%s' lacks %s, skipping.", name, vk.KhrSwapchainExtensionName)
			continue
		}

		score := 1
		if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			score = 1000
		}
		core.LogDebug("Available device: %s (score: %d)", name, score)
		if score > bestScore {
			bestScore = score
			best = &VulkanDevice{
				PhysicalDevice:     pd,
				GraphicsQueueIndex: queueIndex,
				Properties:         props,
				Extensions:         exts,
			}
		}
	}
	if best == nil {
		return errors.New("no physical device meets the requirements")
	}

	vk.GetPhysicalDeviceMemoryProperties(best.PhysicalDevice, &best.Memory)
	best.Memory.Deref()
	context.Device = best
	core.LogInfo("Selected device: '%s'.", vk.ToString(best.Properties.DeviceName[:]))
	return nil
}

// DeviceCreate creates the logical device, its graphics queue and the
// command pool command lists allocate from.
func DeviceCreate(context *VulkanContext, flipY bool) error {
	if err := SelectPhysicalDevice(context); err != nil {
		return err
	}
	device := context.Device

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if hasName(device.Extensions, "VK_KHR_portability_subset") {
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}
	if flipY {
		if hasName(device.Extensions, maintenance1Ext) {
			extensionNames = append(extensionNames, maintenance1Ext)
			context.FlipViewportY = true
		} else {
			core.LogWarn("%s is not available, clip space Y keeps pointing down", maintenance1Ext)
		}
	}

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	if err := checkResult(vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &device.LogicalDevice), "vkCreateDevice"); err != nil {
		return err
	}
	core.LogDebug("Logical device created.")

	vk.GetDeviceQueue(device.LogicalDevice, device.GraphicsQueueIndex, 0, &device.GraphicsQueue)

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if err := checkResult(vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, context.Allocator, &device.GraphicsCommandPool), "vkCreateCommandPool"); err != nil {
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		device.LogicalDevice = nil
		return err
	}
	core.LogDebug("Graphics command pool created.")
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	device := context.Device
	if device == nil {
		return
	}
	device.GraphicsQueue = nil

	if device.GraphicsCommandPool != nil {
		vk.DestroyCommandPool(device.LogicalDevice, device.GraphicsCommandPool, context.Allocator)
		device.GraphicsCommandPool = nil
	}
	if device.LogicalDevice != nil {
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		device.LogicalDevice = nil
	}
	// Physical devices are not destroyed.
	device.PhysicalDevice = nil
	context.Device = nil
}

var depthCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

func (device *VulkanDevice) supportsDepthFormat(format vk.Format) bool {
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, format, &properties)
	properties.Deref()
	return properties.OptimalTilingFeatures&flags == flags
}

// DetectDepthFormat returns requested when the device can render to it,
// otherwise the first supported candidate.
func (device *VulkanDevice) DetectDepthFormat(requested vk.Format) (vk.Format, error) {
	if device.supportsDepthFormat(requested) {
		return requested, nil
	}
	for _, candidate := range depthCandidates {
		if device.supportsDepthFormat(candidate) {
			core.LogWarn("depth format %d is not supported, using %d", requested, candidate)
			return candidate, nil
		}
	}
	return vk.FormatUndefined, errors.New("could not find suitable depth format")
}
