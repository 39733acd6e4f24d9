package gles

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/gl"
)

// fakeContext records the GL calls the backend makes. Calls it does not
// override panic through the nil embedded interface.
type fakeContext struct {
	gl.Context

	calls      []string
	next       uint32
	compileLog string
	linkLog    string
	attribs    map[string]uint
	glErr      gl.Enum
	data       map[uint32][]byte
	bound      map[gl.Enum]uint32
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		attribs: map[string]uint{"Position": 0, "Color": 1},
		data:    map[uint32][]byte{},
		bound:   map[gl.Enum]uint32{},
	}
}

func (c *fakeContext) call(format string, args ...interface{}) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *fakeContext) id() uint32 { c.next++; return c.next }

func (c *fakeContext) CreateBuffer() gl.Buffer { return gl.Buffer{Value: c.id()} }

func (c *fakeContext) BindBuffer(target gl.Enum, b gl.Buffer) {
	c.bound[target] = b.Value
}

func (c *fakeContext) BufferInit(target gl.Enum, size int, usage gl.Enum) {
	c.data[c.bound[target]] = make([]byte, size)
}

func (c *fakeContext) BufferSubData(target gl.Enum, offset int, data []byte) {
	copy(c.data[c.bound[target]][offset:], data)
}

func (c *fakeContext) DeleteBuffer(b gl.Buffer) { c.call("DeleteBuffer %d", b.Value) }

func (c *fakeContext) CreateShader(ty gl.Enum) gl.Shader    { return gl.Shader{Value: c.id()} }
func (c *fakeContext) ShaderSource(s gl.Shader, src string) {}
func (c *fakeContext) CompileShader(s gl.Shader)            {}
func (c *fakeContext) DeleteShader(s gl.Shader)             { c.call("DeleteShader %d", s.Value) }

func (c *fakeContext) GetShaderi(s gl.Shader, pname gl.Enum) int {
	if c.compileLog != "" {
		return 0
	}
	return 1
}

func (c *fakeContext) GetShaderInfoLog(s gl.Shader) string { return c.compileLog }

func (c *fakeContext) CreateProgram() gl.Program {
	return gl.Program{Init: true, Value: c.id()}
}

func (c *fakeContext) AttachShader(p gl.Program, s gl.Shader) {}
func (c *fakeContext) LinkProgram(p gl.Program)               {}
func (c *fakeContext) DeleteProgram(p gl.Program)             { c.call("DeleteProgram %d", p.Value) }

func (c *fakeContext) GetProgrami(p gl.Program, pname gl.Enum) int {
	if c.linkLog != "" {
		return 0
	}
	return 1
}

func (c *fakeContext) GetProgramInfoLog(p gl.Program) string { return c.linkLog }

func (c *fakeContext) GetAttribLocation(p gl.Program, name string) gl.Attrib {
	if loc, ok := c.attribs[name]; ok {
		return gl.Attrib{Value: loc}
	}
	return gl.Attrib{Value: ^uint(0)}
}

func (c *fakeContext) UseProgram(p gl.Program) { c.call("UseProgram %d", p.Value) }

func (c *fakeContext) BindFramebuffer(target gl.Enum, fb gl.Framebuffer) {
	c.call("BindFramebuffer %d", fb.Value)
}

func (c *fakeContext) Viewport(x, y, width, height int) {
	c.call("Viewport %d %d %d %d", x, y, width, height)
}

func (c *fakeContext) ClearColor(r, g, b, a float32) { c.call("ClearColor %g %g %g %g", r, g, b, a) }
func (c *fakeContext) ClearDepthf(d float32)         { c.call("ClearDepthf %g", d) }
func (c *fakeContext) Clear(mask gl.Enum)            { c.call("Clear %#x", uint32(mask)) }
func (c *fakeContext) DepthMask(flag bool)           {}
func (c *fakeContext) DepthFunc(fn gl.Enum)          {}
func (c *fakeContext) CullFace(mode gl.Enum)         {}
func (c *fakeContext) FrontFace(mode gl.Enum)        {}
func (c *fakeContext) BlendFunc(s, d gl.Enum)        {}
func (c *fakeContext) Enable(capability gl.Enum)     {}
func (c *fakeContext) Disable(capability gl.Enum)    {}
func (c *fakeContext) Scissor(x, y, w, h int32)      {}

func (c *fakeContext) EnableVertexAttribArray(a gl.Attrib) {}

func (c *fakeContext) VertexAttribPointer(a gl.Attrib, size int, ty gl.Enum, normalized bool, stride, offset int) {
	c.call("VertexAttribPointer %d %d %d %d", a.Value, size, stride, offset)
}

func (c *fakeContext) DisableVertexAttribArray(a gl.Attrib) {}

func (c *fakeContext) DrawElements(mode gl.Enum, count int, ty gl.Enum, offset int) {
	c.call("DrawElements %d %d", count, offset)
}

func (c *fakeContext) GetError() gl.Enum { return c.glErr }
func (c *fakeContext) Finish()           { c.call("Finish") }

type fakeSurface struct {
	ctx      *fakeContext
	presents int
	released bool
}

func (s *fakeSurface) Context() gl.Context { return s.ctx }
func (s *fakeSurface) Present() error      { s.presents++; return nil }
func (s *fakeSurface) Release()            { s.released = true }

func newDevice(t *testing.T, depth metadata.PixelFormat) (*GLESGraphicsDevice, *fakeContext, *fakeSurface) {
	t.Helper()
	ctx := newFakeContext()
	surface := &fakeSurface{ctx: ctx}
	gd, err := NewGraphicsDevice(metadata.GraphicsDeviceOptions{}, &metadata.SwapchainDescription{
		Source:      metadata.SwapchainSource{GL: surface},
		Width:       640,
		Height:      480,
		DepthFormat: depth,
	})
	if err != nil {
		t.Fatalf("NewGraphicsDevice() error = %v", err)
	}
	return gd, ctx, surface
}

func TestNewGraphicsDeviceRequiresSurface(t *testing.T) {
	for _, desc := range []*metadata.SwapchainDescription{nil, {Width: 1, Height: 1}} {
		if _, err := NewGraphicsDevice(metadata.GraphicsDeviceOptions{}, desc); !errors.Is(err, core.ErrSurfaceRequired) {
			t.Errorf("NewGraphicsDevice(%v) error = %v, want ErrSurfaceRequired", desc, err)
		}
	}
}

func TestBufferUpdate(t *testing.T) {
	gd, ctx, _ := newDevice(t, metadata.PixelFormatUndefined)
	b, err := gd.ResourceFactory().CreateBuffer(metadata.BufferDescription{SizeInBytes: 8, Usage: metadata.BufferUsageVertexBuffer})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := gd.UpdateBuffer(b, 4, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("UpdateBuffer() error = %v", err)
	}
	handle := b.(*GLESBuffer).Handle.Value
	if got := ctx.data[handle]; !reflect.DeepEqual(got, []byte{0, 0, 0, 0, 1, 2, 3, 4}) {
		t.Fatalf("buffer data = %v", got)
	}
	if err := gd.UpdateBuffer(b, 6, []byte{1, 2, 3}); err == nil {
		t.Fatal("UpdateBuffer() accepted an overflowing write")
	}
	if _, err := gd.ResourceFactory().CreateBuffer(metadata.BufferDescription{}); err == nil {
		t.Fatal("CreateBuffer() accepted a zero size")
	}
}

func TestShaderCompileError(t *testing.T) {
	gd, ctx, _ := newDevice(t, metadata.PixelFormatUndefined)
	ctx.compileLog = "0:3: 'vec5' : undeclared identifier\n"
	_, err := gd.ResourceFactory().CreateShaders(
		metadata.ShaderDescription{Stage: metadata.ShaderStageVertex, Code: []byte("void main() {}")},
		metadata.ShaderDescription{Stage: metadata.ShaderStageFragment, Code: []byte("void main() {}")},
	)
	if err == nil || !strings.Contains(err.Error(), "undeclared identifier") {
		t.Fatalf("CreateShaders() error = %v, want the info log", err)
	}
	if len(ctx.calls) != 1 || !strings.HasPrefix(ctx.calls[0], "DeleteShader") {
		t.Fatalf("calls = %q, want the failed shader deleted", ctx.calls)
	}
}

func quadLayout() metadata.VertexLayoutDescription {
	return metadata.NewVertexLayoutDescription(
		metadata.VertexElementDescription{Name: "Position", Semantic: metadata.VertexElementSemanticPosition, Format: metadata.VertexElementFormatFloat2},
		metadata.VertexElementDescription{Name: "Color", Semantic: metadata.VertexElementSemanticColor, Format: metadata.VertexElementFormatFloat4},
	)
}

func newPipeline(t *testing.T, gd *GLESGraphicsDevice, layout metadata.VertexLayoutDescription) (renderer.Pipeline, error) {
	t.Helper()
	shaders, err := gd.ResourceFactory().CreateShaders(
		metadata.ShaderDescription{Stage: metadata.ShaderStageVertex, Code: []byte("vs")},
		metadata.ShaderDescription{Stage: metadata.ShaderStageFragment, Code: []byte("fs")},
	)
	if err != nil {
		t.Fatalf("CreateShaders() error = %v", err)
	}
	return gd.ResourceFactory().CreateGraphicsPipeline(renderer.GraphicsPipelineDescription{
		BlendState:        metadata.BlendStateSingleOverride,
		RasterizerState:   metadata.RasterizerStateDescription{CullMode: metadata.FaceCullModeBack, FrontFace: metadata.FrontFaceClockwise},
		PrimitiveTopology: metadata.PrimitiveTopologyTriangleStrip,
		ShaderSet:         renderer.ShaderSetDescription{VertexLayouts: []metadata.VertexLayoutDescription{layout}, Shaders: shaders},
		Outputs:           gd.MainSwapchain().Framebuffer().OutputDescription(),
	})
}

func TestPipelineNeedsNamedAttributes(t *testing.T) {
	gd, _, _ := newDevice(t, metadata.PixelFormatUndefined)
	layout := metadata.NewVertexLayoutDescription(
		metadata.VertexElementDescription{Name: "Normal", Format: metadata.VertexElementFormatFloat3},
	)
	if _, err := newPipeline(t, gd, layout); err == nil || !strings.Contains(err.Error(), "Normal") {
		t.Fatalf("CreateGraphicsPipeline() error = %v, want missing attribute", err)
	}
}

func TestDrawQuad(t *testing.T) {
	gd, ctx, surface := newDevice(t, metadata.PixelFormatD24UNormS8UInt)
	factory := gd.ResourceFactory()
	vb, _ := factory.CreateBuffer(metadata.BufferDescription{SizeInBytes: 4 * 24, Usage: metadata.BufferUsageVertexBuffer})
	ib, _ := factory.CreateBuffer(metadata.BufferDescription{SizeInBytes: 4 * 2, Usage: metadata.BufferUsageIndexBuffer})
	pipeline, err := newPipeline(t, gd, quadLayout())
	if err != nil {
		t.Fatalf("CreateGraphicsPipeline() error = %v", err)
	}
	cl, _ := factory.CreateCommandList()

	cl.Begin()
	cl.SetFramebuffer(gd.MainSwapchain().Framebuffer())
	cl.ClearColorTarget(0, metadata.RgbaFloat{R: 0.5, A: 1})
	cl.SetVertexBuffer(0, vb)
	cl.SetIndexBuffer(ib, metadata.IndexFormatUInt16)
	cl.SetPipeline(pipeline)
	cl.DrawIndexed(4, 1, 0, 0, 0)
	if err := cl.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	ctx.calls = nil
	if err := gd.SubmitCommands(cl); err != nil {
		t.Fatalf("SubmitCommands() error = %v", err)
	}
	if err := gd.SwapBuffers(gd.MainSwapchain()); err != nil {
		t.Fatalf("SwapBuffers() error = %v", err)
	}

	program := pipeline.(*GLESPipeline).Program.Value
	want := []string{
		"BindFramebuffer 0",
		"Viewport 0 0 640 480",
		"ClearDepthf 1",
		"ClearColor 0.5 0 0 1",
		fmt.Sprintf("Clear %#x", uint32(gl.COLOR_BUFFER_BIT|gl.DEPTH_BUFFER_BIT)),
		fmt.Sprintf("UseProgram %d", program),
		"VertexAttribPointer 0 2 24 0",
		"VertexAttribPointer 1 4 24 8",
		"DrawElements 4 0",
	}
	if !reflect.DeepEqual(ctx.calls, want) {
		t.Fatalf("calls =\n%q\nwant\n%q", ctx.calls, want)
	}
	if surface.presents != 1 {
		t.Fatalf("presents = %d, want 1", surface.presents)
	}
}

func TestCommandListMisuse(t *testing.T) {
	gd, ctx, _ := newDevice(t, metadata.PixelFormatUndefined)
	cl, _ := gd.ResourceFactory().CreateCommandList()

	cl.ClearColorTarget(0, metadata.RgbaFloatBlack)
	if err := cl.End(); err == nil {
		t.Fatal("End() accepted a command outside Begin")
	}
	if err := gd.SubmitCommands(cl); err == nil {
		t.Fatal("SubmitCommands() accepted a failed list")
	}

	cl.Begin()
	cl.SetFramebuffer(gd.MainSwapchain().Framebuffer())
	cl.DrawIndexed(6, 2, 0, 0, 0)
	if err := cl.End(); err == nil || !strings.Contains(err.Error(), "instanced") {
		t.Fatalf("End() error = %v, want instancing error", err)
	}

	cl.Begin()
	cl.SetFramebuffer(gd.MainSwapchain().Framebuffer())
	if err := cl.End(); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	ctx.glErr = gl.INVALID_OPERATION
	if err := gd.SubmitCommands(cl); err == nil || !strings.Contains(err.Error(), "GL_INVALID_OPERATION") {
		t.Fatalf("SubmitCommands() error = %v, want GL_INVALID_OPERATION", err)
	}
}

func TestDeviceLifecycle(t *testing.T) {
	gd, ctx, surface := newDevice(t, metadata.PixelFormatUndefined)
	if _, err := gd.ResourceFactory().CreateSwapchain(metadata.SwapchainDescription{}); err == nil {
		t.Fatal("CreateSwapchain() succeeded on a surface bound device")
	}
	if err := gd.MainSwapchain().Resize(100, 50); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if fb := gd.MainSwapchain().Framebuffer(); fb.Width() != 100 || fb.Height() != 50 {
		t.Fatalf("framebuffer = %dx%d, want 100x50", fb.Width(), fb.Height())
	}

	gd.WaitForIdle()
	gd.Dispose()
	gd.Dispose()
	if !surface.released {
		t.Fatal("Dispose() kept the surface")
	}
	if ctx.calls[0] != "Finish" {
		t.Fatalf("calls = %q, want Finish", ctx.calls)
	}
	if err := gd.SwapBuffers(gd.MainSwapchain()); err == nil {
		t.Fatal("SwapBuffers() presented a disposed swapchain")
	}
}

func TestCullFace(t *testing.T) {
	tests := []struct {
		mode   metadata.FaceCullMode
		want   gl.Enum
		enable bool
	}{
		{metadata.FaceCullModeBack, gl.BACK, true},
		{metadata.FaceCullModeFront, gl.FRONT, true},
		{metadata.FaceCullModeFrontAndBack, gl.FRONT_AND_BACK, true},
		{metadata.FaceCullModeNone, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got, enable := glCullFace(tt.mode)
			if got != tt.want || enable != tt.enable {
				t.Errorf("glCullFace() = %v, %v; want %v, %v", got, enable, tt.want, tt.enable)
			}
		})
	}
}
