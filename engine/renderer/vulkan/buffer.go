package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// VulkanBuffer lives in host visible, coherent memory so updates are a map
// and a copy.
type VulkanBuffer struct {
	context *VulkanContext
	Handle  vk.Buffer
	Memory  vk.DeviceMemory
	size    uint32
	usage   metadata.BufferUsage
}

func BufferCreate(context *VulkanContext, desc metadata.BufferDescription) (*VulkanBuffer, error) {
	if desc.SizeInBytes == 0 {
		return nil, errors.New("buffer size must be greater than zero")
	}
	buffer := &VulkanBuffer{context: context, size: desc.SizeInBytes, usage: desc.Usage}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(desc.SizeInBytes),
		Usage:       vkBufferUsage(desc.Usage),
		SharingMode: vk.SharingModeExclusive,
	}
	if err := checkResult(vk.CreateBuffer(context.Device.LogicalDevice, &bufferInfo, context.Allocator, &buffer.Handle), "vkCreateBuffer"); err != nil {
		return nil, err
	}

	var memRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &memRequirements)
	memory, err := context.allocateMemory(memRequirements,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		buffer.Dispose()
		return nil, errors.Wrap(err, "allocating buffer memory")
	}
	buffer.Memory = memory
	if err := checkResult(vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0), "vkBindBufferMemory"); err != nil {
		buffer.Dispose()
		return nil, err
	}
	return buffer, nil
}

func (b *VulkanBuffer) SizeInBytes() uint32         { return b.size }
func (b *VulkanBuffer) Usage() metadata.BufferUsage { return b.usage }

// Update copies data into the buffer at offset.
func (b *VulkanBuffer) Update(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(b.size) {
		return errors.Errorf("update of %d bytes at %d overflows buffer of %d", len(data), offset, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	return b.context.Locks.SafeCall(BufferManagement, func() error {
		var pData unsafe.Pointer
		res := vk.MapMemory(b.context.Device.LogicalDevice, b.Memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &pData)
		if err := checkResult(res, "vkMapMemory"); err != nil {
			return err
		}
		vk.Memcopy(pData, data)
		vk.UnmapMemory(b.context.Device.LogicalDevice, b.Memory)
		return nil
	})
}

func (b *VulkanBuffer) Dispose() {
	if b.context == nil {
		return
	}
	logical := b.context.Device.LogicalDevice
	if b.Handle != nil {
		vk.DestroyBuffer(logical, b.Handle, b.context.Allocator)
		b.Handle = nil
	}
	if b.Memory != nil {
		vk.FreeMemory(logical, b.Memory, b.context.Allocator)
		b.Memory = nil
	}
	b.context = nil
}
