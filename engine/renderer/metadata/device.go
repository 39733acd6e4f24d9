package metadata

import "unsafe"

type ResourceBindingModel uint8

const (
	ResourceBindingModelDefault ResourceBindingModel = iota
	ResourceBindingModelImproved
)

/** @brief Options used when creating a graphics device. */
type GraphicsDeviceOptions struct {
	/** @brief The name of the application, reported to the driver where supported. */
	ApplicationName string
	/** @brief Enables validation layers and debug output. */
	Debug bool
	/** @brief Depth values span [0, 1] instead of [-1, 1] where the backend allows it. */
	PreferDepthRangeZeroToOne bool
	/** @brief Clip space Y points up on every backend. */
	PreferStandardClipSpaceYDirection bool
	ResourceBindingModel              ResourceBindingModel
	/** @brief Instance extensions the host platform needs for presentation (Vulkan only). */
	InstanceExtensions []string
	/** @brief vkGetInstanceProcAddr of the loader the host links against (Vulkan only). */
	VulkanProcAddr unsafe.Pointer
}
