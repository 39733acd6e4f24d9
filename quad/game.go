// Package quad is the demo game: one colored quad drawn over a clear color
// that cycles with time.
package quad

import (
	"encoding/binary"
	gomath "math"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine"
	"github.com/spaghettifunk/helloquad/engine/assets"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/math"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/exp/f32"
)

// VertexPositionColor is the quad vertex: a float2 position and a float4
// color.
type VertexPositionColor struct {
	Position [2]float32
	Color    metadata.RgbaFloat
}

const vertexSize = 24

var quadVertices = []VertexPositionColor{
	{Position: [2]float32{-0.75, 0.75}, Color: metadata.RgbaFloatRed},
	{Position: [2]float32{0.75, 0.75}, Color: metadata.RgbaFloatGreen},
	{Position: [2]float32{-0.75, -0.75}, Color: metadata.RgbaFloatBlue},
	{Position: [2]float32{0.75, -0.75}, Color: metadata.RgbaFloatYellow},
}

var quadIndices = []uint16{0, 1, 2, 3}

// fpsReportInterval is how often, in seconds, the frame metrics are logged.
const fpsReportInterval = 5.0

type QuadGame struct {
	*engine.Game
	assets *assets.AssetManager
}

type gameState struct {
	backend metadata.GraphicsBackend
	device  renderer.Device
	factory renderer.ResourceFactory

	vertexBuffer renderer.Buffer
	indexBuffer  renderer.Buffer
	shaders      []renderer.Shader
	pipeline     renderer.Pipeline
	commandList  renderer.CommandList
	outputs      metadata.OutputDescription

	width  uint32
	height uint32

	elapsed      float64
	sinceReport  float64
	metrics      *core.Metrics
	skipped      uint64
	reloadNeeded bool
}

// NewQuadGame builds the game. Shaders come from am, which may watch the
// asset directory for changes.
func NewQuadGame(config *engine.ApplicationConfig, am *assets.AssetManager) (*QuadGame, error) {
	if config == nil {
		return nil, errors.Wrap(core.ErrInvalidConfig, "quad game needs an application config")
	}
	if am == nil {
		return nil, errors.New("quad game needs an asset manager")
	}
	g := &QuadGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{metrics: core.NewMetrics()},
		},
		assets: am,
	}

	g.FnInitialize = g.Initialize
	g.FnDeviceCreated = g.DeviceCreated
	g.FnDeviceDisposed = g.DeviceDisposed
	g.FnUpdate = g.Update
	g.FnRender = g.Render
	g.FnOnResize = g.OnResize
	g.FnShutdown = g.Shutdown

	return g, nil
}

func (g *QuadGame) state() *gameState { return g.State.(*gameState) }

func (g *QuadGame) Initialize() error {
	core.LogDebug("QuadGame Initialize fn....")
	return nil
}

// DeviceCreated creates the draw resources on the new device.
func (g *QuadGame) DeviceCreated(device renderer.Device, factory renderer.ResourceFactory, swapchain renderer.Swapchain) error {
	state := g.state()
	state.backend = device.Backend()
	state.device = device
	state.factory = factory

	if err := g.createResources(swapchain); err != nil {
		g.disposeResources()
		return err
	}
	core.LogInfo("quad resources created on %s", state.backend)
	return nil
}

// DeviceDisposed releases the draw resources before the device goes away.
func (g *QuadGame) DeviceDisposed() {
	g.disposeResources()
	core.LogInfo("quad resources released")
}

func (g *QuadGame) createResources(swapchain renderer.Swapchain) error {
	state := g.state()

	vb, err := state.factory.CreateBuffer(metadata.BufferDescription{
		SizeInBytes: uint32(len(quadVertices) * vertexSize),
		Usage:       metadata.BufferUsageVertexBuffer,
	})
	if err != nil {
		return errors.Wrap(err, "creating vertex buffer")
	}
	state.vertexBuffer = vb
	if err := state.device.UpdateBuffer(vb, 0, vertexBytes(quadVertices)); err != nil {
		return errors.Wrap(err, "uploading vertices")
	}

	ib, err := state.factory.CreateBuffer(metadata.BufferDescription{
		SizeInBytes: uint32(len(quadIndices) * 2),
		Usage:       metadata.BufferUsageIndexBuffer,
	})
	if err != nil {
		return errors.Wrap(err, "creating index buffer")
	}
	state.indexBuffer = ib
	if err := state.device.UpdateBuffer(ib, 0, indexBytes(quadIndices)); err != nil {
		return errors.Wrap(err, "uploading indices")
	}

	if err := g.createPipeline(swapchain.Framebuffer().OutputDescription()); err != nil {
		return err
	}

	cl, err := state.factory.CreateCommandList()
	if err != nil {
		return errors.Wrap(err, "creating command list")
	}
	state.commandList = cl
	return nil
}

// createPipeline builds the shaders and the pipeline for outputs. The
// previous ones are released only once the new ones exist.
func (g *QuadGame) createPipeline(outputs metadata.OutputDescription) error {
	state := g.state()

	vs, fs, err := g.assets.QuadShaders(state.backend)
	if err != nil {
		return errors.Wrap(err, "loading quad shaders")
	}
	shaders, err := state.factory.CreateShaders(vs, fs)
	if err != nil {
		return errors.Wrap(err, "creating quad shaders")
	}

	pipeline, err := state.factory.CreateGraphicsPipeline(renderer.GraphicsPipelineDescription{
		BlendState: metadata.BlendStateSingleOverride,
		DepthStencilState: metadata.DepthStencilStateDescription{
			DepthTestEnabled:  true,
			DepthWriteEnabled: true,
			DepthComparison:   metadata.ComparisonLessEqual,
		},
		RasterizerState: metadata.RasterizerStateDescription{
			CullMode:           metadata.FaceCullModeBack,
			FillMode:           metadata.PolygonFillModeSolid,
			FrontFace:          metadata.FrontFaceClockwise,
			DepthClipEnabled:   true,
			ScissorTestEnabled: false,
		},
		PrimitiveTopology: metadata.PrimitiveTopologyTriangleStrip,
		ShaderSet: renderer.ShaderSetDescription{
			VertexLayouts: []metadata.VertexLayoutDescription{VertexLayout()},
			Shaders:       shaders,
		},
		Outputs: outputs,
	})
	if err != nil {
		for _, s := range shaders {
			s.Dispose()
		}
		return errors.Wrap(err, "creating quad pipeline")
	}

	g.disposePipeline()
	state.shaders = shaders
	state.pipeline = pipeline
	state.outputs = outputs
	return nil
}

func (g *QuadGame) disposePipeline() {
	state := g.state()
	if state.pipeline != nil {
		state.pipeline.Dispose()
		state.pipeline = nil
	}
	for _, s := range state.shaders {
		s.Dispose()
	}
	state.shaders = nil
}

func (g *QuadGame) disposeResources() {
	state := g.state()
	if state.commandList != nil {
		state.commandList.Dispose()
		state.commandList = nil
	}
	g.disposePipeline()
	if state.indexBuffer != nil {
		state.indexBuffer.Dispose()
		state.indexBuffer = nil
	}
	if state.vertexBuffer != nil {
		state.vertexBuffer.Dispose()
		state.vertexBuffer = nil
	}
	state.device = nil
	state.factory = nil
}

// Update advances the clear color clock, reports the frame metrics and
// notices shader changes.
func (g *QuadGame) Update(deltaTime float64) error {
	state := g.state()
	state.elapsed += deltaTime
	state.metrics.Update(deltaTime)

	state.sinceReport += deltaTime
	if state.sinceReport >= fpsReportInterval {
		state.sinceReport = 0
		fps, frameTime := state.metrics.Frame()
		core.LogInfo("FPS: %5.1f(%4.1fms)", fps, frameTime)
	}

	select {
	case <-g.assets.Changed():
		state.reloadNeeded = true
	default:
	}
	return nil
}

// Render draws the quad. Frames where the swapchain is being recreated are
// skipped.
func (g *QuadGame) Render(swapchain renderer.Swapchain, deltaTime float64) error {
	state := g.state()
	if state.device == nil || swapchain == nil {
		return nil
	}

	outputs := swapchain.Framebuffer().OutputDescription()
	if outputs != state.outputs {
		// The old pipeline cannot draw into the new framebuffer.
		state.reloadNeeded = false
		if err := g.createPipeline(outputs); err != nil {
			return errors.Wrap(err, "rebuilding pipeline for new framebuffer outputs")
		}
	} else if state.reloadNeeded {
		state.reloadNeeded = false
		if err := g.createPipeline(outputs); err != nil {
			// Keep drawing with the previous shaders until the files are fixed.
			core.LogError("shader reload failed: %v", err)
		}
	}

	err := g.draw(swapchain)
	if errors.Is(err, core.ErrSwapchainBooting) {
		state.skipped++
		core.LogDebug("frame skipped: %v", err)
		return nil
	}
	return err
}

func (g *QuadGame) draw(swapchain renderer.Swapchain) error {
	state := g.state()
	cl := state.commandList

	cl.Begin()
	cl.SetFramebuffer(swapchain.Framebuffer())
	cl.ClearColorTarget(0, ClearColor(state.elapsed))
	cl.SetVertexBuffer(0, state.vertexBuffer)
	cl.SetIndexBuffer(state.indexBuffer, metadata.IndexFormatUInt16)
	cl.SetPipeline(state.pipeline)
	cl.DrawIndexed(uint32(len(quadIndices)), 1, 0, 0, 0)
	if err := cl.End(); err != nil {
		return err
	}
	if err := state.device.SubmitCommands(cl); err != nil {
		return err
	}
	return state.device.SwapBuffers(swapchain)
}

func (g *QuadGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	core.LogDebug("quad viewport %dx%d", width, height)
	return nil
}

func (g *QuadGame) Shutdown() error {
	core.LogInfo("quad rendered for %.1fs, %d frames skipped", g.state().elapsed, g.state().skipped)
	return g.assets.Shutdown()
}

// ClearColor is the background at t seconds: red follows sin t and green
// follows cos t, both clamped to [0, 1].
func ClearColor(t float64) metadata.RgbaFloat {
	return metadata.RgbaFloat{
		R: math.Saturate(float32(gomath.Sin(t))),
		G: math.Saturate(float32(gomath.Cos(t))),
		B: 1,
		A: 1,
	}
}

// VertexLayout matches VertexPositionColor. The element names are the
// shader input names.
func VertexLayout() metadata.VertexLayoutDescription {
	return metadata.NewVertexLayoutDescription(
		metadata.VertexElementDescription{Name: "Position", Semantic: metadata.VertexElementSemanticTextureCoordinate, Format: metadata.VertexElementFormatFloat2},
		metadata.VertexElementDescription{Name: "Color", Semantic: metadata.VertexElementSemanticTextureCoordinate, Format: metadata.VertexElementFormatFloat4},
	)
}

func vertexBytes(vertices []VertexPositionColor) []byte {
	values := make([]float32, 0, len(vertices)*6)
	for _, v := range vertices {
		values = append(values, v.Position[0], v.Position[1], v.Color.R, v.Color.G, v.Color.B, v.Color.A)
	}
	return f32.Bytes(binary.LittleEndian, values...)
}

func indexBytes(indices []uint16) []byte {
	b := make([]byte, 0, len(indices)*2)
	for _, i := range indices {
		b = binary.LittleEndian.AppendUint16(b, i)
	}
	return b
}
