package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{IsSignaled: createSignaled}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var pFence vk.Fence
	if err := checkResult(vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &pFence), "vkCreateFence"); err != nil {
		return nil, err
	}
	fence.Handle = pFence
	return fence, nil
}

func (vf *VulkanFence) Destroy(context *VulkanContext) {
	if vf.Handle != nil {
		vk.DestroyFence(context.Device.LogicalDevice, vf.Handle, context.Allocator)
		vf.Handle = nil
	}
	vf.IsSignaled = false
}

// Wait blocks until the fence is signaled or timeoutNs passes. A fence that
// is known to be signaled returns at once.
func (vf *VulkanFence) Wait(context *VulkanContext, timeoutNs uint64) error {
	if vf.IsSignaled {
		return nil
	}
	result := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
	default:
		core.LogError("vk_fence_wait - %s", VulkanResultString(result, true))
	}
	return errors.Errorf("waiting for fence: %s", VulkanResultString(result, false))
}

func (vf *VulkanFence) Reset(context *VulkanContext) error {
	if !vf.IsSignaled {
		return nil
	}
	if err := checkResult(vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}), "vkResetFences"); err != nil {
		return err
	}
	vf.IsSignaled = false
	return nil
}
