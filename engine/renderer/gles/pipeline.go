package gles

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/core"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/gl"
)

// vertexAttrib binds one vertex element to a program attribute.
type vertexAttrib struct {
	location   gl.Attrib
	components int
	offset     int
}

type vertexBinding struct {
	stride  int
	attribs []vertexAttrib
}

// GLESPipeline is a linked program plus the fixed function state applied
// when it is bound.
type GLESPipeline struct {
	ctx      gl.Context
	Program  gl.Program
	bindings []vertexBinding
	topology gl.Enum

	depthTest   bool
	depthWrite  bool
	depthFunc   gl.Enum
	cull        bool
	cullFace    gl.Enum
	frontFace   gl.Enum
	blend       bool
	scissorTest bool
}

/**
 * @brief Links the shader set of desc into a program and resolves the vertex
 * attributes by element name.
 */
func NewGraphicsPipeline(ctx gl.Context, desc renderer.GraphicsPipelineDescription) (*GLESPipeline, error) {
	if len(desc.ShaderSet.Shaders) == 0 {
		return nil, errors.New("graphics pipeline needs at least one shader")
	}

	program := ctx.CreateProgram()
	for _, s := range desc.ShaderSet.Shaders {
		shader, ok := s.(*GLESShader)
		if !ok {
			ctx.DeleteProgram(program)
			return nil, errors.Errorf("shader %T was not created by an opengles device", s)
		}
		ctx.AttachShader(program, shader.Handle)
	}
	ctx.LinkProgram(program)
	if ctx.GetProgrami(program, gl.LINK_STATUS) == 0 {
		log := strings.TrimSpace(ctx.GetProgramInfoLog(program))
		ctx.DeleteProgram(program)
		return nil, errors.Errorf("linking program: %s", log)
	}

	p := &GLESPipeline{ctx: ctx, Program: program, topology: glTopology(desc.PrimitiveTopology)}
	for _, layout := range desc.ShaderSet.VertexLayouts {
		binding := vertexBinding{stride: int(layout.Stride)}
		for _, e := range layout.Elements {
			if e.Name == "" {
				p.Dispose()
				return nil, errors.New("opengles vertex elements must be named after their shader input")
			}
			location := ctx.GetAttribLocation(program, e.Name)
			if int32(location.Value) < 0 {
				p.Dispose()
				return nil, errors.Errorf("program has no active attribute %q", e.Name)
			}
			binding.attribs = append(binding.attribs, vertexAttrib{
				location:   location,
				components: int(e.Format.Components()),
				offset:     int(e.Offset),
			})
		}
		p.bindings = append(p.bindings, binding)
	}

	hasDepth := desc.Outputs.DepthFormat.IsDepth()
	p.depthTest = hasDepth && desc.DepthStencilState.DepthTestEnabled
	p.depthWrite = hasDepth && desc.DepthStencilState.DepthWriteEnabled
	p.depthFunc = glCompare(desc.DepthStencilState.DepthComparison)
	p.cullFace, p.cull = glCullFace(desc.RasterizerState.CullMode)
	p.frontFace = glFrontFace(desc.RasterizerState.FrontFace)
	p.blend = desc.BlendState.BlendEnabled
	p.scissorTest = desc.RasterizerState.ScissorTestEnabled
	if desc.RasterizerState.FillMode == metadata.PolygonFillModeWireframe {
		core.LogWarn("OpenGL ES has no wireframe fill mode, drawing solid.")
	}
	return p, nil
}

// apply binds the program and sets the pipeline state on the context.
func (p *GLESPipeline) apply(width, height uint32) {
	ctx := p.ctx
	ctx.UseProgram(p.Program)

	setCap(ctx, gl.DEPTH_TEST, p.depthTest)
	ctx.DepthMask(p.depthWrite)
	if p.depthTest {
		ctx.DepthFunc(p.depthFunc)
	}
	setCap(ctx, gl.CULL_FACE, p.cull)
	if p.cull {
		ctx.CullFace(p.cullFace)
	}
	ctx.FrontFace(p.frontFace)
	setCap(ctx, gl.BLEND, p.blend)
	if p.blend {
		ctx.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
	setCap(ctx, gl.SCISSOR_TEST, p.scissorTest)
	if p.scissorTest {
		ctx.Scissor(0, 0, int32(width), int32(height))
	}
}

func (p *GLESPipeline) Dispose() {
	if !p.Program.Init {
		return
	}
	p.ctx.DeleteProgram(p.Program)
	p.Program = gl.Program{}
}

func setCap(ctx gl.Context, capability gl.Enum, on bool) {
	if on {
		ctx.Enable(capability)
	} else {
		ctx.Disable(capability)
	}
}
