package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// VulkanRenderpass has one subpass writing a color attachment that ends up
// presentable, plus an optional depth attachment.
type VulkanRenderpass struct {
	Handle      vk.RenderPass
	ColorFormat vk.Format
	DepthFormat vk.Format
}

func RenderpassCreate(context *VulkanContext, colorFormat, depthFormat vk.Format) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{
		ColorFormat: colorFormat,
		DepthFormat: depthFormat,
	}

	attachmentDescriptions := []vk.AttachmentDescription{{
		Format:         colorFormat,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
		FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}

	stageMask := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	accessMask := vk.AccessFlags(vk.AccessColorAttachmentWriteBit)

	if depthFormat != vk.FormatUndefined {
		attachmentDescriptions = append(attachmentDescriptions, vk.AttachmentDescription{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpClear,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: 1,
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		stageMask |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
		accessMask |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stageMask,
		SrcAccessMask: 0,
		DstStageMask:  stageMask,
		DstAccessMask: accessMask,
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var pRenderPass vk.RenderPass
	if err := checkResult(vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &pRenderPass), "vkCreateRenderPass"); err != nil {
		return nil, err
	}
	outRenderpass.Handle = pRenderPass
	return outRenderpass, nil
}

// renderpassForOutputs creates a render pass compatible with framebuffers
// matching outputs.
func renderpassForOutputs(context *VulkanContext, outputs metadata.OutputDescription) (*VulkanRenderpass, error) {
	return RenderpassCreate(context, vkPixelFormat(outputs.ColorFormat), vkPixelFormat(outputs.DepthFormat))
}

func (vr *VulkanRenderpass) Destroy(context *VulkanContext) {
	if vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

// Begin starts the render pass on commandBuffer, clearing color to clear
// and depth to 1.
func (vr *VulkanRenderpass) Begin(commandBuffer *VulkanCommandBuffer, framebuffer vk.Framebuffer, extent vk.Extent2D, clear metadata.RgbaFloat) {
	clearValues := make([]vk.ClearValue, 1, 2)
	clearValues[0].SetColor([]float32{clear.R, clear.G, clear.B, clear.A})
	if vr.DepthFormat != vk.FormatUndefined {
		var depth vk.ClearValue
		depth.SetDepthStencil(1.0, 0)
		clearValues = append(clearValues, depth)
	}

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) End(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}
