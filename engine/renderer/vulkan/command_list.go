package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// VulkanCommandList records into one primary command buffer. The render
// pass begins lazily at the first draw, or at End when nothing was drawn,
// so a clear requested before it becomes the pass's clear value.
type VulkanCommandList struct {
	context *VulkanContext
	buffer  *VulkanCommandBuffer
	fence   *VulkanFence

	swapchain   *VulkanSwapchain
	framebuffer vk.Framebuffer
	renderpass  *VulkanRenderpass
	extent      vk.Extent2D
	clearColor  metadata.RgbaFloat
	pipelineSet bool
	recording   bool
	err         error
}

func NewCommandList(context *VulkanContext) (*VulkanCommandList, error) {
	buffer, err := NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool, true)
	if err != nil {
		return nil, err
	}
	fence, err := NewFence(context, true)
	if err != nil {
		buffer.Free(context, context.Device.GraphicsCommandPool)
		return nil, err
	}
	return &VulkanCommandList{context: context, buffer: buffer, fence: fence}, nil
}

func (cl *VulkanCommandList) fail(err error) {
	if cl.err == nil {
		cl.err = err
	}
}

func (cl *VulkanCommandList) inRenderPass() bool {
	return cl.buffer.State == COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

// Begin waits for the previous submission of the list to finish and starts
// a new recording.
func (cl *VulkanCommandList) Begin() {
	cl.err = nil
	cl.swapchain = nil
	cl.framebuffer = nil
	cl.renderpass = nil
	cl.clearColor = metadata.RgbaFloat{}
	cl.pipelineSet = false
	cl.recording = false

	if err := cl.fence.Wait(cl.context, math.MaxUint64); err != nil {
		cl.fail(err)
		return
	}
	if err := cl.buffer.Reset(); err != nil {
		cl.fail(err)
		return
	}
	if err := cl.buffer.Begin(true, false, false); err != nil {
		cl.fail(err)
		return
	}
	cl.recording = true
}

func (cl *VulkanCommandList) usable(name string) bool {
	if cl.err != nil {
		return false
	}
	if !cl.recording {
		cl.fail(errors.Errorf("%s outside Begin/End", name))
		return false
	}
	return true
}

func (cl *VulkanCommandList) SetFramebuffer(fb renderer.Framebuffer) {
	if !cl.usable("SetFramebuffer") {
		return
	}
	target, ok := fb.(*VulkanSwapchainFramebuffer)
	if !ok {
		cl.fail(errors.Errorf("framebuffer %T was not created by a vulkan device", fb))
		return
	}
	if cl.swapchain != nil && cl.swapchain != target.swapchain {
		cl.fail(errors.New("a command list can target one swapchain per submission"))
		return
	}
	if cl.inRenderPass() {
		cl.renderpass.End(cl.buffer)
	}

	sc := target.swapchain
	if err := sc.acquireNextImage(); err != nil {
		cl.fail(err)
		return
	}
	cl.swapchain = sc
	cl.framebuffer = sc.Framebuffers[sc.imageIndex].Handle
	cl.renderpass = sc.Renderpass
	cl.extent = sc.Extent
}

// ClearColorTarget clears the color attachment. Before the render pass
// begins the color becomes its clear value, afterwards it is cleared in
// place.
func (cl *VulkanCommandList) ClearColorTarget(index uint32, color metadata.RgbaFloat) {
	if !cl.usable("ClearColorTarget") {
		return
	}
	if cl.framebuffer == nil {
		cl.fail(errors.New("ClearColorTarget without a framebuffer"))
		return
	}
	if index != 0 {
		cl.fail(errors.Errorf("color target %d does not exist", index))
		return
	}
	if !cl.inRenderPass() {
		cl.clearColor = color
		return
	}

	var value vk.ClearValue
	value.SetColor([]float32{color.R, color.G, color.B, color.A})
	attachment := vk.ClearAttachment{
		AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
		ColorAttachment: index,
		ClearValue:      value,
	}
	rect := vk.ClearRect{
		Rect:       vk.Rect2D{Extent: cl.extent},
		LayerCount: 1,
	}
	vk.CmdClearAttachments(cl.buffer.Handle, 1, []vk.ClearAttachment{attachment}, 1, []vk.ClearRect{rect})
}

func (cl *VulkanCommandList) SetVertexBuffer(index uint32, buffer renderer.Buffer) {
	if !cl.usable("SetVertexBuffer") {
		return
	}
	vb, ok := buffer.(*VulkanBuffer)
	if !ok {
		cl.fail(errors.Errorf("buffer %T was not created by a vulkan device", buffer))
		return
	}
	vk.CmdBindVertexBuffers(cl.buffer.Handle, index, 1, []vk.Buffer{vb.Handle}, []vk.DeviceSize{0})
}

func (cl *VulkanCommandList) SetIndexBuffer(buffer renderer.Buffer, format metadata.IndexFormat) {
	if !cl.usable("SetIndexBuffer") {
		return
	}
	ib, ok := buffer.(*VulkanBuffer)
	if !ok {
		cl.fail(errors.Errorf("buffer %T was not created by a vulkan device", buffer))
		return
	}
	vk.CmdBindIndexBuffer(cl.buffer.Handle, ib.Handle, 0, vkIndexType(format))
}

// SetPipeline binds the pipeline and covers the framebuffer with the
// viewport and scissor.
func (cl *VulkanCommandList) SetPipeline(pipeline renderer.Pipeline) {
	if !cl.usable("SetPipeline") {
		return
	}
	p, ok := pipeline.(*VulkanPipeline)
	if !ok {
		cl.fail(errors.Errorf("pipeline %T was not created by a vulkan device", pipeline))
		return
	}
	if cl.framebuffer == nil {
		cl.fail(errors.New("SetPipeline without a framebuffer"))
		return
	}
	vk.CmdBindPipeline(cl.buffer.Handle, vk.PipelineBindPointGraphics, p.Handle)

	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(cl.extent.Width),
		Height:   float32(cl.extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	if cl.context.FlipViewportY {
		viewport.Y = float32(cl.extent.Height)
		viewport.Height = -float32(cl.extent.Height)
	}
	vk.CmdSetViewport(cl.buffer.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cl.buffer.Handle, 0, 1, []vk.Rect2D{{Extent: cl.extent}})
	cl.pipelineSet = true
}

func (cl *VulkanCommandList) beginRenderPass() {
	if !cl.inRenderPass() {
		cl.renderpass.Begin(cl.buffer, cl.framebuffer, cl.extent, cl.clearColor)
	}
}

func (cl *VulkanCommandList) DrawIndexed(indexCount, instanceCount, indexStart uint32, vertexOffset int32, instanceStart uint32) {
	if !cl.usable("DrawIndexed") {
		return
	}
	if cl.framebuffer == nil || !cl.pipelineSet {
		cl.fail(errors.New("DrawIndexed needs a framebuffer and a pipeline"))
		return
	}
	cl.beginRenderPass()
	vk.CmdDrawIndexed(cl.buffer.Handle, indexCount, instanceCount, indexStart, vertexOffset, instanceStart)
}

// End finishes the recording and returns the first error met since Begin.
func (cl *VulkanCommandList) End() error {
	if cl.err != nil {
		if cl.recording {
			if cl.inRenderPass() {
				cl.renderpass.End(cl.buffer)
			}
			_ = cl.buffer.End()
			cl.recording = false
		}
		return cl.err
	}
	if !cl.recording {
		return errors.New("End without Begin")
	}
	if cl.framebuffer != nil {
		// The image must leave the pass presentable even when nothing was drawn.
		cl.beginRenderPass()
		cl.renderpass.End(cl.buffer)
	}
	cl.recording = false
	return cl.buffer.End()
}

// submit queues the recorded buffer. When it targets a swapchain image the
// submission waits for the image and signals the present semaphore.
func (cl *VulkanCommandList) submit() error {
	if cl.recording || cl.buffer.State != COMMAND_BUFFER_STATE_RECORDING_ENDED {
		return errors.New("submitting a command list that was not ended")
	}
	if err := cl.fence.Reset(cl.context); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cl.buffer.Handle},
	}
	sc := cl.swapchain
	if sc != nil {
		if !sc.acquired {
			return errors.Wrap(core.ErrSwapchainBooting, "swapchain image was released before submit")
		}
		submitInfo.WaitSemaphoreCount = 1
		submitInfo.PWaitSemaphores = []vk.Semaphore{sc.imageAvailable[sc.currentFrame]}
		submitInfo.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
		submitInfo.SignalSemaphoreCount = 1
		submitInfo.PSignalSemaphores = []vk.Semaphore{sc.renderFinished[sc.imageIndex]}
	}

	device := cl.context.Device
	err := cl.context.Locks.SafeQueueCall(device.GraphicsQueueIndex, func() error {
		return checkResult(vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, cl.fence.Handle), "vkQueueSubmit")
	})
	if err != nil {
		return err
	}
	cl.buffer.UpdateSubmitted()
	if sc != nil {
		sc.submitted = true
	}
	return nil
}

func (cl *VulkanCommandList) Dispose() {
	if cl.context == nil {
		return
	}
	if err := cl.fence.Wait(cl.context, math.MaxUint64); err != nil {
		core.LogWarn("disposing command list: %v", err)
	}
	cl.fence.Destroy(cl.context)
	cl.buffer.Free(cl.context, cl.context.Device.GraphicsCommandPool)
	cl.context = nil
}
