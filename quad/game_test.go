package quad

import (
	"encoding/binary"
	gomath "math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine"
	"github.com/spaghettifunk/helloquad/engine/assets"
	"github.com/spaghettifunk/helloquad/engine/config"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"github.com/spaghettifunk/helloquad/engine/renderer/rendertest"
)

func newGame(t *testing.T, dir string) *QuadGame {
	t.Helper()
	appCfg, err := engine.NewApplicationConfig(config.Default())
	if err != nil {
		t.Fatalf("NewApplicationConfig() error = %v", err)
	}
	am := assets.NewAssetManager(dir)
	if err := am.Initialize(false); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	g, err := NewQuadGame(appCfg, am)
	if err != nil {
		t.Fatalf("NewQuadGame() error = %v", err)
	}
	return g
}

func glesDevice(t *testing.T) *rendertest.Device {
	t.Helper()
	d, err := rendertest.NewFactory().CreateDevice(metadata.GraphicsBackendOpenGLES, metadata.GraphicsDeviceOptions{}, &metadata.SwapchainDescription{
		Width:       800,
		Height:      600,
		DepthFormat: metadata.PixelFormatD24UNormS8UInt,
	})
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	return d.(*rendertest.Device)
}

func created(t *testing.T, g *QuadGame, d renderer.Device, sc renderer.Swapchain) {
	t.Helper()
	if err := g.DeviceCreated(d, d.ResourceFactory(), sc); err != nil {
		t.Fatalf("DeviceCreated() error = %v", err)
	}
}

func TestDrawRoutine(t *testing.T) {
	g := newGame(t, t.TempDir())
	d := glesDevice(t)
	sc := d.MainSwapchain()
	created(t, g, d, sc)

	if err := g.Update(0.5); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := g.Render(sc, 0.5); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	cl := g.state().commandList.(*rendertest.CommandList)
	want := []string{"Begin", "SetFramebuffer", "ClearColorTarget", "SetVertexBuffer", "SetIndexBuffer", "SetPipeline", "DrawIndexed", "End"}
	if got := cl.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("commands = %q, want %q", got, want)
	}
	cmds := cl.Commands()
	if got := cmds[2].Args[1].(metadata.RgbaFloat); got != ClearColor(0.5) {
		t.Fatalf("clear color = %+v, want %+v", got, ClearColor(0.5))
	}
	if got := cmds[4].Args[1].(metadata.IndexFormat); got != metadata.IndexFormatUInt16 {
		t.Fatalf("index format = %d, want uint16", got)
	}
	if got := cmds[6].Args; !reflect.DeepEqual(got, []interface{}{uint32(4), uint32(1), uint32(0), int32(0), uint32(0)}) {
		t.Fatalf("DrawIndexed args = %v", got)
	}
	if got, want := d.Ops(), []string{"update", "update", "submit", "swap"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("device ops = %q, want %q", got, want)
	}

	p := g.state().pipeline.(*rendertest.Pipeline)
	if p.Description.PrimitiveTopology != metadata.PrimitiveTopologyTriangleStrip {
		t.Fatal("quad is not drawn as a triangle strip")
	}
	if p.Description.Outputs.DepthFormat != metadata.PixelFormatD24UNormS8UInt {
		t.Fatalf("pipeline outputs = %+v, want the swapchain depth format", p.Description.Outputs)
	}
}

func TestVertexData(t *testing.T) {
	g := newGame(t, t.TempDir())
	d := glesDevice(t)
	created(t, g, d, d.MainSwapchain())

	data := g.state().vertexBuffer.(*rendertest.Buffer).Data()
	if len(data) != 4*vertexSize {
		t.Fatalf("vertex buffer holds %d bytes, want %d", len(data), 4*vertexSize)
	}
	float := func(i int) float32 { return gomath.Float32frombits(binary.LittleEndian.Uint32(data[4*i:])) }
	// Second vertex: (0.75, 0.75) green.
	if got := []float32{float(6), float(7), float(8), float(9), float(10), float(11)}; !reflect.DeepEqual(got, []float32{0.75, 0.75, 0, 1, 0, 1}) {
		t.Fatalf("second vertex = %v", got)
	}

	indices := g.state().indexBuffer.(*rendertest.Buffer).Data()
	if !reflect.DeepEqual(indices, []byte{0, 0, 1, 0, 2, 0, 3, 0}) {
		t.Fatalf("index buffer = %v", indices)
	}
	if VertexLayout().Stride != vertexSize {
		t.Fatalf("layout stride = %d, want %d", VertexLayout().Stride, vertexSize)
	}
}

func TestResourcesFollowDeviceLifetime(t *testing.T) {
	g := newGame(t, t.TempDir())
	for i := 0; i < 2; i++ {
		d := glesDevice(t)
		created(t, g, d, d.MainSwapchain())
		// vertex and index buffer, two shaders, pipeline and command list
		if n := d.LiveResources(); n != 6 {
			t.Fatalf("lifetime %d: live resources = %d, want 6", i, n)
		}
		g.DeviceDisposed()
		if n := d.LiveResources(); n != 0 {
			t.Fatalf("lifetime %d: %d resources leaked", i, n)
		}
		if err := g.Render(d.MainSwapchain(), 0.016); err != nil {
			t.Fatalf("Render() without a device error = %v", err)
		}
	}
}

func TestSwapchainBootingSkipsFrame(t *testing.T) {
	g := newGame(t, t.TempDir())
	d := glesDevice(t)
	created(t, g, d, d.MainSwapchain())

	d.SubmitErr = errors.Wrap(core.ErrSwapchainBooting, "acquiring image")
	if err := g.Render(d.MainSwapchain(), 0.016); err != nil {
		t.Fatalf("Render() error = %v, want the frame skipped", err)
	}
	if g.state().skipped != 1 {
		t.Fatalf("skipped = %d, want 1", g.state().skipped)
	}

	d.SubmitErr = errors.New("device lost")
	if err := g.Render(d.MainSwapchain(), 0.016); err == nil {
		t.Fatal("Render() swallowed a device error")
	}
}

func TestPipelineRebuild(t *testing.T) {
	dir := t.TempDir()
	spirv := make([]byte, 8)
	binary.LittleEndian.PutUint32(spirv, 0x07230203)
	for _, name := range []string{"quad.vert.spv", "quad.frag.spv"} {
		path := filepath.Join(dir, "shaders", name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, spirv, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	g := newGame(t, dir)

	factory := rendertest.NewFactory()
	dev, err := factory.CreateDevice(metadata.GraphicsBackendVulkan, metadata.GraphicsDeviceOptions{}, nil)
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	d := dev.(*rendertest.Device)
	sc, err := d.ResourceFactory().CreateSwapchain(metadata.SwapchainDescription{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("CreateSwapchain() error = %v", err)
	}
	created(t, g, d, sc)
	first := g.state().pipeline

	g.state().reloadNeeded = true
	if err := g.Render(sc, 0.016); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if g.state().pipeline == first {
		t.Fatal("pipeline was not rebuilt after a shader change")
	}
	if n := d.LiveResources(); n != 6 {
		t.Fatalf("live resources = %d after rebuild, want 6", n)
	}

	// A swapchain with different outputs also rebuilds the pipeline.
	second := g.state().pipeline
	sc2, _ := d.ResourceFactory().CreateSwapchain(metadata.SwapchainDescription{Width: 64, Height: 64, DepthFormat: metadata.PixelFormatD32Float})
	if err := g.Render(sc2, 0.016); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if g.state().pipeline == second {
		t.Fatal("pipeline kept after the output description changed")
	}
}

func TestPipelineRebuildFailure(t *testing.T) {
	dir := t.TempDir()
	spirv := make([]byte, 8)
	binary.LittleEndian.PutUint32(spirv, 0x07230203)
	var paths []string
	for _, name := range []string{"quad.vert.spv", "quad.frag.spv"} {
		path := filepath.Join(dir, "shaders", name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, spirv, 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}
	g := newGame(t, dir)

	dev, err := rendertest.NewFactory().CreateDevice(metadata.GraphicsBackendVulkan, metadata.GraphicsDeviceOptions{}, nil)
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	d := dev.(*rendertest.Device)
	sc, err := d.ResourceFactory().CreateSwapchain(metadata.SwapchainDescription{Width: 64, Height: 64})
	if err != nil {
		t.Fatalf("CreateSwapchain() error = %v", err)
	}
	created(t, g, d, sc)
	first := g.state().pipeline

	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
	}

	// A broken shader reload keeps the previous pipeline and is not retried.
	g.state().reloadNeeded = true
	if err := g.Render(sc, 0.016); err != nil {
		t.Fatalf("Render() error = %v after a failed reload", err)
	}
	if g.state().pipeline != first || g.state().reloadNeeded {
		t.Fatal("failed reload replaced the pipeline or stayed pending")
	}

	// New outputs cannot be drawn with the old pipeline.
	sc2, _ := d.ResourceFactory().CreateSwapchain(metadata.SwapchainDescription{Width: 64, Height: 64, DepthFormat: metadata.PixelFormatD32Float})
	if err := g.Render(sc2, 0.016); err == nil {
		t.Fatal("Render() drew with a pipeline built for other outputs")
	}
}

func TestClearColor(t *testing.T) {
	tests := []struct {
		t    float64
		r, g float32
	}{
		{0, 0, 1},
		{gomath.Pi / 2, 1, 0},
		{gomath.Pi, 0, 0},
		{3 * gomath.Pi / 2, 0, 0},
	}
	for _, tt := range tests {
		c := ClearColor(tt.t)
		if gomath.Abs(float64(c.R-tt.r)) > 1e-6 || gomath.Abs(float64(c.G-tt.g)) > 1e-6 || c.B != 1 || c.A != 1 {
			t.Errorf("ClearColor(%v) = %+v, want r=%v g=%v", tt.t, c, tt.r, tt.g)
		}
		if c.R < 0 || c.R > 1 || c.G < 0 || c.G > 1 {
			t.Errorf("ClearColor(%v) = %+v is outside [0, 1]", tt.t, c)
		}
	}
}
