package renderer

import (
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

// Device is a GPU device created for one backend.
type Device interface {
	Backend() metadata.GraphicsBackend
	ResourceFactory() ResourceFactory
	// MainSwapchain returns the swapchain created together with the device,
	// or nil when the device was created without one.
	MainSwapchain() Swapchain
	UpdateBuffer(buffer Buffer, offset uint32, data []byte) error
	SubmitCommands(cl CommandList) error
	SwapBuffers(swapchain Swapchain) error
	WaitForIdle()
	Dispose()
}

// ResourceFactory creates device objects. Objects must be disposed before
// the device that created them.
type ResourceFactory interface {
	CreateBuffer(desc metadata.BufferDescription) (Buffer, error)
	CreateShaders(vertex, fragment metadata.ShaderDescription) ([]Shader, error)
	CreateGraphicsPipeline(desc GraphicsPipelineDescription) (Pipeline, error)
	CreateCommandList() (CommandList, error)
	CreateSwapchain(desc metadata.SwapchainDescription) (Swapchain, error)
}

type Swapchain interface {
	Framebuffer() Framebuffer
	Width() uint32
	Height() uint32
	Resize(width, height uint32) error
	Dispose()
}

type Framebuffer interface {
	Width() uint32
	Height() uint32
	OutputDescription() metadata.OutputDescription
}

type Buffer interface {
	SizeInBytes() uint32
	Usage() metadata.BufferUsage
	Dispose()
}

type Shader interface {
	Stage() metadata.ShaderStage
	EntryPoint() string
	Dispose()
}

type Pipeline interface {
	Dispose()
}

// CommandList records commands between Begin and End. Recording methods
// report misuse through End.
type CommandList interface {
	Begin()
	SetFramebuffer(fb Framebuffer)
	ClearColorTarget(index uint32, color metadata.RgbaFloat)
	SetVertexBuffer(index uint32, buffer Buffer)
	SetIndexBuffer(buffer Buffer, format metadata.IndexFormat)
	SetPipeline(pipeline Pipeline)
	DrawIndexed(indexCount, instanceCount, indexStart uint32, vertexOffset int32, instanceStart uint32)
	End() error
	Dispose()
}

type ShaderSetDescription struct {
	VertexLayouts []metadata.VertexLayoutDescription
	Shaders       []Shader
}

type GraphicsPipelineDescription struct {
	BlendState        metadata.BlendStateDescription
	DepthStencilState metadata.DepthStencilStateDescription
	RasterizerState   metadata.RasterizerStateDescription
	PrimitiveTopology metadata.PrimitiveTopology
	ShaderSet         ShaderSetDescription
	Outputs           metadata.OutputDescription
}
