package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Format vk.Format
	Width  uint32
	Height uint32
}

// ImageCreate creates a device local 2D image with one mip level and, if
// aspect is non-zero, a view on it.
func ImageCreate(context *VulkanContext, width, height uint32, format vk.Format, usage vk.ImageUsageFlags, aspect vk.ImageAspectFlags) (*VulkanImage, error) {
	image := &VulkanImage{Format: format, Width: width, Height: height}

	imageInfo := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Extent:        vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}
	if err := checkResult(vk.CreateImage(context.Device.LogicalDevice, &imageInfo, context.Allocator, &image.Handle), "vkCreateImage"); err != nil {
		return nil, err
	}

	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &memRequirements)
	memory, err := context.allocateMemory(memRequirements, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		image.Destroy(context)
		return nil, errors.Wrap(err, "allocating image memory")
	}
	image.Memory = memory
	if err := checkResult(vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0), "vkBindImageMemory"); err != nil {
		image.Destroy(context)
		return nil, err
	}

	if aspect != 0 {
		view, err := ImageViewCreate(context, image.Handle, format, aspect)
		if err != nil {
			image.Destroy(context)
			return nil, err
		}
		image.View = view
	}
	return image, nil
}

func ImageViewCreate(context *VulkanContext, image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if err := checkResult(vk.CreateImageView(context.Device.LogicalDevice, &createInfo, context.Allocator, &view), "vkCreateImageView"); err != nil {
		return nil, err
	}
	return view, nil
}

func (image *VulkanImage) Destroy(context *VulkanContext) {
	if image.View != nil {
		vk.DestroyImageView(context.Device.LogicalDevice, image.View, context.Allocator)
		image.View = nil
	}
	if image.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, image.Memory, context.Allocator)
		image.Memory = nil
	}
	if image.Handle != nil {
		vk.DestroyImage(context.Device.LogicalDevice, image.Handle, context.Allocator)
		image.Handle = nil
	}
}
