package gles

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/gl"
)

type GLESShader struct {
	ctx    gl.Context
	Handle gl.Shader
	stage  metadata.ShaderStage
}

// ShaderCreate compiles GLSL ES source. GLSL has a single entry point
// named main.
func ShaderCreate(ctx gl.Context, desc metadata.ShaderDescription) (*GLESShader, error) {
	if len(desc.Code) == 0 {
		return nil, errors.Errorf("%s shader has no source", desc.Stage)
	}
	if desc.EntryPoint != "" && desc.EntryPoint != "main" {
		return nil, errors.Errorf("%s shader entry point must be main, got %q", desc.Stage, desc.EntryPoint)
	}

	handle := ctx.CreateShader(glShaderType(desc.Stage))
	if handle.Value == 0 {
		return nil, errors.Errorf("glCreateShader failed for the %s stage", desc.Stage)
	}
	ctx.ShaderSource(handle, string(desc.Code))
	ctx.CompileShader(handle)
	if ctx.GetShaderi(handle, gl.COMPILE_STATUS) == 0 {
		log := strings.TrimSpace(ctx.GetShaderInfoLog(handle))
		ctx.DeleteShader(handle)
		return nil, errors.Errorf("compiling %s shader: %s", desc.Stage, log)
	}
	return &GLESShader{ctx: ctx, Handle: handle, stage: desc.Stage}, nil
}

func (s *GLESShader) Stage() metadata.ShaderStage { return s.stage }
func (s *GLESShader) EntryPoint() string          { return "main" }

func (s *GLESShader) Dispose() {
	if s.Handle.Value == 0 {
		return
	}
	s.ctx.DeleteShader(s.Handle)
	s.Handle = gl.Shader{}
}
