package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

func vkPixelFormat(f metadata.PixelFormat) vk.Format {
	switch f {
	case metadata.PixelFormatB8G8R8A8UNorm:
		return vk.FormatB8g8r8a8Unorm
	case metadata.PixelFormatR8G8B8A8UNorm:
		return vk.FormatR8g8b8a8Unorm
	case metadata.PixelFormatD32Float:
		return vk.FormatD32Sfloat
	case metadata.PixelFormatD32FloatS8UInt:
		return vk.FormatD32SfloatS8Uint
	case metadata.PixelFormatD24UNormS8UInt:
		return vk.FormatD24UnormS8Uint
	}
	return vk.FormatUndefined
}

func pixelFormat(f vk.Format) metadata.PixelFormat {
	switch f {
	case vk.FormatB8g8r8a8Unorm:
		return metadata.PixelFormatB8G8R8A8UNorm
	case vk.FormatR8g8b8a8Unorm:
		return metadata.PixelFormatR8G8B8A8UNorm
	case vk.FormatD32Sfloat:
		return metadata.PixelFormatD32Float
	case vk.FormatD32SfloatS8Uint:
		return metadata.PixelFormatD32FloatS8UInt
	case vk.FormatD24UnormS8Uint:
		return metadata.PixelFormatD24UNormS8UInt
	}
	return metadata.PixelFormatUndefined
}

func vkVertexFormat(f metadata.VertexElementFormat) vk.Format {
	switch f {
	case metadata.VertexElementFormatFloat1:
		return vk.FormatR32Sfloat
	case metadata.VertexElementFormatFloat2:
		return vk.FormatR32g32Sfloat
	case metadata.VertexElementFormatFloat3:
		return vk.FormatR32g32b32Sfloat
	default:
		return vk.FormatR32g32b32a32Sfloat
	}
}

func vkIndexType(f metadata.IndexFormat) vk.IndexType {
	if f == metadata.IndexFormatUInt32 {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}

func vkCompareOp(c metadata.ComparisonKind) vk.CompareOp {
	switch c {
	case metadata.ComparisonNever:
		return vk.CompareOpNever
	case metadata.ComparisonLess:
		return vk.CompareOpLess
	case metadata.ComparisonEqual:
		return vk.CompareOpEqual
	case metadata.ComparisonLessEqual:
		return vk.CompareOpLessOrEqual
	case metadata.ComparisonGreater:
		return vk.CompareOpGreater
	case metadata.ComparisonNotEqual:
		return vk.CompareOpNotEqual
	case metadata.ComparisonGreaterEqual:
		return vk.CompareOpGreaterOrEqual
	}
	return vk.CompareOpAlways
}

func vkCullMode(m metadata.FaceCullMode) vk.CullModeFlags {
	switch m {
	case metadata.FaceCullModeBack:
		return vk.CullModeFlags(vk.CullModeBackBit)
	case metadata.FaceCullModeFront:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	case metadata.FaceCullModeFrontAndBack:
		return vk.CullModeFlags(vk.CullModeFrontAndBack)
	}
	return vk.CullModeFlags(vk.CullModeNone)
}

func vkPolygonMode(m metadata.PolygonFillMode) vk.PolygonMode {
	if m == metadata.PolygonFillModeWireframe {
		return vk.PolygonModeLine
	}
	return vk.PolygonModeFill
}

func vkFrontFace(f metadata.FrontFace) vk.FrontFace {
	if f == metadata.FrontFaceCounterClockwise {
		return vk.FrontFaceCounterClockwise
	}
	return vk.FrontFaceClockwise
}

func vkTopology(t metadata.PrimitiveTopology) vk.PrimitiveTopology {
	switch t {
	case metadata.PrimitiveTopologyTriangleStrip:
		return vk.PrimitiveTopologyTriangleStrip
	case metadata.PrimitiveTopologyLineList:
		return vk.PrimitiveTopologyLineList
	case metadata.PrimitiveTopologyLineStrip:
		return vk.PrimitiveTopologyLineStrip
	case metadata.PrimitiveTopologyPointList:
		return vk.PrimitiveTopologyPointList
	}
	return vk.PrimitiveTopologyTriangleList
}

func vkShaderStage(s metadata.ShaderStage) vk.ShaderStageFlagBits {
	if s == metadata.ShaderStageFragment {
		return vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageVertexBit
}

func vkBufferUsage(u metadata.BufferUsage) vk.BufferUsageFlags {
	flags := vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	if u&metadata.BufferUsageVertexBuffer != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if u&metadata.BufferUsageIndexBuffer != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	}
	if u&metadata.BufferUsageUniformBuffer != 0 {
		flags |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	return flags
}

func depthAspect(f vk.Format) vk.ImageAspectFlags {
	aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if f == vk.FormatD32SfloatS8Uint || f == vk.FormatD24UnormS8Uint {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return aspect
}

// choosePresentMode returns FIFO with vsync. Without it the first of
// mailbox and immediate the surface offers wins, FIFO otherwise.
func choosePresentMode(available []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, want := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, mode := range available {
			if mode == want {
				return mode
			}
		}
	}
	return vk.PresentModeFifo
}

// chooseSurfaceFormat prefers 8 bit UNORM BGRA, then RGBA, then whatever
// the surface lists first.
func chooseSurfaceFormat(available []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(available) == 1 && available[0].Format == vk.FormatUndefined {
		return vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	}
	for _, want := range []vk.Format{vk.FormatB8g8r8a8Unorm, vk.FormatR8g8b8a8Unorm} {
		for _, f := range available {
			if f.Format == want {
				return f
			}
		}
	}
	return available[0]
}
