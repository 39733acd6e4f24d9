package assets

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

func spirv(words ...uint32) []byte {
	b := make([]byte, 4*(len(words)+1))
	binary.LittleEndian.PutUint32(b, 0x07230203)
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[4*(i+1):], w)
	}
	return b
}

func writeShader(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, shadersDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestQuadShaders(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string][]byte
		backend  metadata.GraphicsBackend
		wantVert []byte
		wantErr  error
	}{
		{
			name:     "embedded glsl es",
			backend:  metadata.GraphicsBackendOpenGLES,
			wantVert: quadVertexES,
		},
		{
			name:     "glsl es override",
			files:    map[string][]byte{"quad.es.vert": []byte("#version 300 es\nvoid main() {}\n")},
			backend:  metadata.GraphicsBackendOpenGLES,
			wantVert: []byte("#version 300 es\nvoid main() {}\n"),
		},
		{
			name:     "spir-v",
			files:    map[string][]byte{"quad.vert.spv": spirv(1, 2), "quad.frag.spv": spirv(3)},
			backend:  metadata.GraphicsBackendVulkan,
			wantVert: spirv(1, 2),
		},
		{
			name:    "spir-v not compiled",
			files:   map[string][]byte{"quad.vert": []byte("#version 450\n")},
			backend: metadata.GraphicsBackendVulkan,
			wantErr: core.ErrShaderNotFound,
		},
		{
			name:    "metal",
			backend: metadata.GraphicsBackendMetal,
			wantErr: core.ErrUnsupportedBackend,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, data := range tt.files {
				writeShader(t, dir, name, data)
			}
			am := NewAssetManager(dir)
			if err := am.Initialize(false); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}
			defer am.Shutdown()

			vs, fs, err := am.QuadShaders(tt.backend)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("QuadShaders() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("QuadShaders() error = %v", err)
			}
			if !bytes.Equal(vs.Code, tt.wantVert) {
				t.Fatalf("vertex code = %q, want %q", vs.Code, tt.wantVert)
			}
			if vs.Stage != metadata.ShaderStageVertex || fs.Stage != metadata.ShaderStageFragment {
				t.Fatalf("stages = %s, %s", vs.Stage, fs.Stage)
			}
			if vs.EntryPoint != "main" || fs.EntryPoint != "main" || len(fs.Code) == 0 {
				t.Fatalf("bad fragment shader %+v", fs)
			}
		})
	}
}

func TestQuadShadersRejectsBadSpirv(t *testing.T) {
	dir := t.TempDir()
	writeShader(t, dir, "quad.vert.spv", []byte{1, 2, 3})
	writeShader(t, dir, "quad.frag.spv", spirv())
	am := NewAssetManager(dir)
	if err := am.Initialize(false); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if _, _, err := am.QuadShaders(metadata.GraphicsBackendVulkan); err == nil {
		t.Fatal("QuadShaders() accepted a truncated module")
	}
}

func TestMissingDirectory(t *testing.T) {
	am := NewAssetManager(filepath.Join(t.TempDir(), "nope"))
	if err := am.Initialize(true); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer am.Shutdown()
	if _, _, err := am.QuadShaders(metadata.GraphicsBackendOpenGLES); err != nil {
		t.Fatalf("QuadShaders() error = %v", err)
	}
}

func TestWatchReportsShaderChanges(t *testing.T) {
	dir := t.TempDir()
	writeShader(t, dir, "quad.es.frag", []byte("v1"))
	am := NewAssetManager(dir)
	if err := am.Initialize(true); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer am.Shutdown()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeShader(t, dir, "quad.es.frag", []byte("v2"))

	select {
	case <-am.Changed():
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	if am.Generation() == 0 {
		t.Fatal("Generation() = 0 after a change")
	}
	res, err := am.Load("quad.es.frag")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(res.Data) != "v2" {
		t.Fatalf("Load() = %q, want v2", res.Data)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	am := NewAssetManager(t.TempDir())
	if err := am.Initialize(true); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := am.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := am.Shutdown(); err != nil {
		t.Fatal(err)
	}
}
