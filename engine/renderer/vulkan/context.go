package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// VulkanContext holds the instance level objects shared by a device and
// everything it creates.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks

	// Only set when the device was created with Debug.
	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice
	Locks  *VulkanLockPool

	// FlipViewportY is set when the viewport is flipped to keep clip space Y
	// pointing up.
	FlipViewportY bool
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that
// has all of propertyFlags.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	memoryProperties := vc.Device.Memory
	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		memType := memoryProperties.MemoryTypes[i]
		memType.Deref()
		if typeFilter&(1<<i) == 0 {
			continue
		}
		if memType.PropertyFlags&propertyFlags == propertyFlags {
			return i, nil
		}
	}
	return 0, errors.New("unable to find suitable memory type")
}

// allocateMemory allocates and binds memory for the given requirements.
func (vc *VulkanContext) allocateMemory(requirements vk.MemoryRequirements, properties vk.MemoryPropertyFlags) (vk.DeviceMemory, error) {
	requirements.Deref()
	memTypeIndex, err := vc.FindMemoryIndex(requirements.MemoryTypeBits, properties)
	if err != nil {
		return nil, err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memTypeIndex,
	}
	var memory vk.DeviceMemory
	if err := checkResult(vk.AllocateMemory(vc.Device.LogicalDevice, &allocInfo, vc.Allocator, &memory), "vkAllocateMemory"); err != nil {
		return nil, err
	}
	return memory, nil
}
