package gles

import (
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/gl"
)

func glBufferTarget(u metadata.BufferUsage) gl.Enum {
	if u&metadata.BufferUsageIndexBuffer != 0 {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func glBufferUsage(u metadata.BufferUsage) gl.Enum {
	if u&metadata.BufferUsageDynamic != 0 {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

func glShaderType(s metadata.ShaderStage) gl.Enum {
	if s == metadata.ShaderStageFragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func glIndexType(f metadata.IndexFormat) gl.Enum {
	if f == metadata.IndexFormatUInt32 {
		return gl.UNSIGNED_INT
	}
	return gl.UNSIGNED_SHORT
}

func glTopology(t metadata.PrimitiveTopology) gl.Enum {
	switch t {
	case metadata.PrimitiveTopologyTriangleStrip:
		return gl.TRIANGLE_STRIP
	case metadata.PrimitiveTopologyLineList:
		return gl.LINES
	case metadata.PrimitiveTopologyLineStrip:
		return gl.LINE_STRIP
	case metadata.PrimitiveTopologyPointList:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

func glCompare(c metadata.ComparisonKind) gl.Enum {
	switch c {
	case metadata.ComparisonNever:
		return gl.NEVER
	case metadata.ComparisonLess:
		return gl.LESS
	case metadata.ComparisonEqual:
		return gl.EQUAL
	case metadata.ComparisonLessEqual:
		return gl.LEQUAL
	case metadata.ComparisonGreater:
		return gl.GREATER
	case metadata.ComparisonNotEqual:
		return gl.NOTEQUAL
	case metadata.ComparisonGreaterEqual:
		return gl.GEQUAL
	default:
		return gl.ALWAYS
	}
}

// glCullFace returns the face to cull, or false when culling is off.
func glCullFace(m metadata.FaceCullMode) (gl.Enum, bool) {
	switch m {
	case metadata.FaceCullModeBack:
		return gl.BACK, true
	case metadata.FaceCullModeFront:
		return gl.FRONT, true
	case metadata.FaceCullModeFrontAndBack:
		return gl.FRONT_AND_BACK, true
	default:
		return 0, false
	}
}

func glFrontFace(f metadata.FrontFace) gl.Enum {
	if f == metadata.FrontFaceCounterClockwise {
		return gl.CCW
	}
	return gl.CW
}

func glErrorString(e gl.Enum) string {
	switch e {
	case gl.NO_ERROR:
		return "GL_NO_ERROR"
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	}
	return "GL_UNKNOWN_ERROR"
}
