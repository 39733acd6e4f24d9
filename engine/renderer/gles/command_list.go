package gles

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/renderer"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/gl"
)

// drawState is the binding state while a recorded list executes.
type drawState struct {
	framebuffer   *GLESFramebuffer
	pipeline      *GLESPipeline
	vertexBuffers []*GLESBuffer
	indexBuffer   *GLESBuffer
	indexFormat   metadata.IndexFormat
	enabled       []gl.Attrib
}

type command func(ctx gl.Context, s *drawState) error

// GLESCommandList records commands as calls replayed on the context by
// SubmitCommands. Recording never touches the context.
type GLESCommandList struct {
	ctx       gl.Context
	commands  []command
	recording bool
	ready     bool
	err       error
}

func NewCommandList(ctx gl.Context) *GLESCommandList {
	return &GLESCommandList{ctx: ctx}
}

func (cl *GLESCommandList) Begin() {
	cl.commands = cl.commands[:0]
	cl.err = nil
	cl.recording = true
	cl.ready = false
}

func (cl *GLESCommandList) record(name string, c command) {
	if cl.err != nil {
		return
	}
	if !cl.recording {
		cl.err = errors.Errorf("%s outside Begin/End", name)
		return
	}
	cl.commands = append(cl.commands, c)
}

func (cl *GLESCommandList) fail(err error) {
	if cl.err == nil {
		cl.err = err
	}
}

func (cl *GLESCommandList) SetFramebuffer(fb renderer.Framebuffer) {
	target, ok := fb.(*GLESFramebuffer)
	if !ok {
		cl.fail(errors.Errorf("framebuffer %T was not created by an opengles device", fb))
		return
	}
	cl.record("SetFramebuffer", func(ctx gl.Context, s *drawState) error {
		s.framebuffer = target
		ctx.BindFramebuffer(gl.FRAMEBUFFER, gl.Framebuffer{})
		ctx.Viewport(0, 0, int(target.Width()), int(target.Height()))
		return nil
	})
}

func (cl *GLESCommandList) ClearColorTarget(index uint32, color metadata.RgbaFloat) {
	if index != 0 {
		cl.fail(errors.Errorf("color target %d does not exist, the default framebuffer has one", index))
		return
	}
	cl.record("ClearColorTarget", func(ctx gl.Context, s *drawState) error {
		if s.framebuffer == nil {
			return errors.New("clear without a framebuffer")
		}
		mask := gl.Enum(gl.COLOR_BUFFER_BIT)
		if s.framebuffer.OutputDescription().DepthFormat.IsDepth() {
			ctx.DepthMask(true)
			ctx.ClearDepthf(1)
			mask |= gl.DEPTH_BUFFER_BIT
		}
		ctx.Disable(gl.SCISSOR_TEST)
		ctx.ClearColor(color.R, color.G, color.B, color.A)
		ctx.Clear(mask)
		return nil
	})
}

func (cl *GLESCommandList) SetVertexBuffer(index uint32, buffer renderer.Buffer) {
	b, ok := buffer.(*GLESBuffer)
	if !ok {
		cl.fail(errors.Errorf("buffer %T was not created by an opengles device", buffer))
		return
	}
	if b.usage&metadata.BufferUsageVertexBuffer == 0 {
		cl.fail(errors.New("buffer is not a vertex buffer"))
		return
	}
	cl.record("SetVertexBuffer", func(ctx gl.Context, s *drawState) error {
		for uint32(len(s.vertexBuffers)) <= index {
			s.vertexBuffers = append(s.vertexBuffers, nil)
		}
		s.vertexBuffers[index] = b
		return nil
	})
}

func (cl *GLESCommandList) SetIndexBuffer(buffer renderer.Buffer, format metadata.IndexFormat) {
	b, ok := buffer.(*GLESBuffer)
	if !ok {
		cl.fail(errors.Errorf("buffer %T was not created by an opengles device", buffer))
		return
	}
	if b.usage&metadata.BufferUsageIndexBuffer == 0 {
		cl.fail(errors.New("buffer is not an index buffer"))
		return
	}
	cl.record("SetIndexBuffer", func(ctx gl.Context, s *drawState) error {
		s.indexBuffer = b
		s.indexFormat = format
		return nil
	})
}

func (cl *GLESCommandList) SetPipeline(pipeline renderer.Pipeline) {
	p, ok := pipeline.(*GLESPipeline)
	if !ok {
		cl.fail(errors.Errorf("pipeline %T was not created by an opengles device", pipeline))
		return
	}
	cl.record("SetPipeline", func(ctx gl.Context, s *drawState) error {
		if s.framebuffer == nil {
			return errors.New("pipeline bound without a framebuffer")
		}
		s.pipeline = p
		p.apply(s.framebuffer.Width(), s.framebuffer.Height())
		return nil
	})
}

// DrawIndexed draws from the bound buffers. OpenGL ES 2.0 has no instancing,
// so instanceCount must be 1 and instanceStart 0.
func (cl *GLESCommandList) DrawIndexed(indexCount, instanceCount, indexStart uint32, vertexOffset int32, instanceStart uint32) {
	if instanceCount != 1 || instanceStart != 0 {
		cl.fail(errors.Errorf("instanced draws are not supported (count %d, start %d)", instanceCount, instanceStart))
		return
	}
	cl.record("DrawIndexed", func(ctx gl.Context, s *drawState) error {
		if s.pipeline == nil {
			return errors.New("draw without a pipeline")
		}
		if s.indexBuffer == nil {
			return errors.New("draw without an index buffer")
		}
		for i, binding := range s.pipeline.bindings {
			if i >= len(s.vertexBuffers) || s.vertexBuffers[i] == nil {
				return errors.Errorf("draw without a vertex buffer in slot %d", i)
			}
			ctx.BindBuffer(gl.ARRAY_BUFFER, s.vertexBuffers[i].Handle)
			base := int(vertexOffset) * binding.stride
			for _, a := range binding.attribs {
				ctx.EnableVertexAttribArray(a.location)
				ctx.VertexAttribPointer(a.location, a.components, gl.FLOAT, false, binding.stride, base+a.offset)
				s.enabled = append(s.enabled, a.location)
			}
		}
		ctx.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, s.indexBuffer.Handle)
		ctx.DrawElements(s.pipeline.topology, int(indexCount), glIndexType(s.indexFormat), int(indexStart*s.indexFormat.Size()))
		return nil
	})
}

func (cl *GLESCommandList) End() error {
	if !cl.recording && cl.err == nil {
		cl.err = errors.New("End without Begin")
	}
	cl.recording = false
	cl.ready = cl.err == nil
	return cl.err
}

// execute replays the list on the context and reports the first GL error.
func (cl *GLESCommandList) execute() error {
	if !cl.ready {
		return errors.New("command list submitted before a successful End")
	}
	s := &drawState{}
	defer cl.unbind(s)
	for _, c := range cl.commands {
		if err := c(cl.ctx, s); err != nil {
			return err
		}
	}
	if e := cl.ctx.GetError(); e != gl.NO_ERROR {
		return errors.Errorf("executing command list: %s", glErrorString(e))
	}
	return nil
}

func (cl *GLESCommandList) unbind(s *drawState) {
	for _, a := range s.enabled {
		cl.ctx.DisableVertexAttribArray(a)
	}
	if len(cl.commands) == 0 {
		return
	}
	cl.ctx.BindBuffer(gl.ARRAY_BUFFER, gl.Buffer{})
	cl.ctx.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gl.Buffer{})
}

func (cl *GLESCommandList) Dispose() {
	cl.commands = nil
	cl.ready = false
}
