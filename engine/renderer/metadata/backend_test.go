package metadata

import "testing"

func TestGraphicsBackendSurfaceBinding(t *testing.T) {
	tests := []struct {
		backend GraphicsBackend
		want    SurfaceBinding
	}{
		{GraphicsBackendVulkan, SwapchainRebindable},
		{GraphicsBackendOpenGLES, DeviceBoundToSurface},
		{GraphicsBackendOpenGL, SurfaceBindingUnsupported},
		{GraphicsBackendMetal, SurfaceBindingUnsupported},
		{GraphicsBackendDirect3D11, SurfaceBindingUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.backend.String(), func(t *testing.T) {
			if got := tt.backend.SurfaceBinding(); got != tt.want {
				t.Errorf("SurfaceBinding() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseGraphicsBackend(t *testing.T) {
	for _, b := range []GraphicsBackend{
		GraphicsBackendDirect3D11, GraphicsBackendVulkan, GraphicsBackendOpenGL,
		GraphicsBackendMetal, GraphicsBackendOpenGLES,
	} {
		got, err := ParseGraphicsBackend(b.String())
		if err != nil || got != b {
			t.Errorf("ParseGraphicsBackend(%q) = %v, %v", b.String(), got, err)
		}
	}
	if got, err := ParseGraphicsBackend(" GLES "); err != nil || got != GraphicsBackendOpenGLES {
		t.Errorf("ParseGraphicsBackend(\" GLES \") = %v, %v", got, err)
	}
	if _, err := ParseGraphicsBackend("directx12"); err == nil {
		t.Error("ParseGraphicsBackend(\"directx12\") returned no error")
	}
}

func TestNewVertexLayoutDescription(t *testing.T) {
	layout := NewVertexLayoutDescription(
		VertexElementDescription{Name: "Position", Semantic: VertexElementSemanticTextureCoordinate, Format: VertexElementFormatFloat2},
		VertexElementDescription{Name: "Color", Semantic: VertexElementSemanticTextureCoordinate, Format: VertexElementFormatFloat4},
	)
	if layout.Stride != 24 {
		t.Fatalf("Stride = %d, want 24", layout.Stride)
	}
	if layout.Elements[0].Offset != 0 || layout.Elements[1].Offset != 8 {
		t.Fatalf("offsets = %d, %d; want 0, 8", layout.Elements[0].Offset, layout.Elements[1].Offset)
	}
}

func TestParseDepthFormat(t *testing.T) {
	tests := map[string]PixelFormat{
		"":                  PixelFormatUndefined,
		"none":              PixelFormatUndefined,
		"d32_float":         PixelFormatD32Float,
		"D24_UNORM_S8_UINT": PixelFormatD24UNormS8UInt,
	}
	for in, want := range tests {
		got, err := ParseDepthFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseDepthFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseDepthFormat("r8"); err == nil {
		t.Error("ParseDepthFormat(\"r8\") returned no error")
	}
	if !PixelFormatD24UNormS8UInt.HasStencil() || PixelFormatD32Float.HasStencil() {
		t.Error("HasStencil() mismatch")
	}
}

func TestFaceCullModeString(t *testing.T) {
	tests := []struct {
		mode FaceCullMode
		want string
	}{
		{FaceCullModeBack, "back"},
		{FaceCullModeFront, "front"},
		{FaceCullModeNone, "none"},
		{FaceCullModeFrontAndBack, "front-and-back"},
		{FaceCullMode(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("FaceCullMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
	var zero RasterizerStateDescription
	if zero.CullMode != FaceCullModeBack {
		t.Errorf("zero CullMode = %v, want back", zero.CullMode)
	}
}

func TestParseErrorsNameInput(t *testing.T) {
	if _, err := ParseGraphicsBackend("directx12"); err == nil || err.Error() != `unknown graphics backend "directx12"` {
		t.Errorf("ParseGraphicsBackend() error = %v", err)
	}
	if _, err := ParseDepthFormat("r8"); err == nil || err.Error() != `unknown depth format "r8"` {
		t.Errorf("ParseDepthFormat() error = %v", err)
	}
}
