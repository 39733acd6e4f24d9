package metadata

type BlendStateDescription struct {
	BlendEnabled bool
}

// BlendStateSingleOverride writes the source color over the target.
var BlendStateSingleOverride = BlendStateDescription{BlendEnabled: false}

type ComparisonKind uint8

const (
	ComparisonNever ComparisonKind = iota
	ComparisonLess
	ComparisonEqual
	ComparisonLessEqual
	ComparisonGreater
	ComparisonNotEqual
	ComparisonGreaterEqual
	ComparisonAlways
)

type DepthStencilStateDescription struct {
	DepthTestEnabled  bool
	DepthWriteEnabled bool
	DepthComparison   ComparisonKind
}

type FaceCullMode uint8

const (
	FaceCullModeBack FaceCullMode = iota
	FaceCullModeFront
	FaceCullModeNone
	FaceCullModeFrontAndBack
)

func (m FaceCullMode) String() string {
	switch m {
	case FaceCullModeBack:
		return "back"
	case FaceCullModeFront:
		return "front"
	case FaceCullModeNone:
		return "none"
	case FaceCullModeFrontAndBack:
		return "front-and-back"
	}
	return "unknown"
}

type PolygonFillMode uint8

const (
	PolygonFillModeSolid PolygonFillMode = iota
	PolygonFillModeWireframe
)

type FrontFace uint8

const (
	FrontFaceClockwise FrontFace = iota
	FrontFaceCounterClockwise
)

type RasterizerStateDescription struct {
	CullMode           FaceCullMode
	FillMode           PolygonFillMode
	FrontFace          FrontFace
	DepthClipEnabled   bool
	ScissorTestEnabled bool
}

type PrimitiveTopology uint8

const (
	PrimitiveTopologyTriangleList PrimitiveTopology = iota
	PrimitiveTopologyTriangleStrip
	PrimitiveTopologyLineList
	PrimitiveTopologyLineStrip
	PrimitiveTopologyPointList
)

type VertexElementFormat uint8

const (
	VertexElementFormatFloat1 VertexElementFormat = iota
	VertexElementFormatFloat2
	VertexElementFormatFloat3
	VertexElementFormatFloat4
)

// Components returns the number of float components of the format.
func (f VertexElementFormat) Components() uint32 {
	return uint32(f) + 1
}

// Size returns the size of the element in bytes.
func (f VertexElementFormat) Size() uint32 {
	return f.Components() * 4
}

type VertexElementSemantic uint8

const (
	VertexElementSemanticTextureCoordinate VertexElementSemantic = iota
	VertexElementSemanticPosition
	VertexElementSemanticNormal
	VertexElementSemanticColor
)

type VertexElementDescription struct {
	// Name matches the shader input name. OpenGL ES binds attributes by it.
	Name     string
	Semantic VertexElementSemantic
	Format   VertexElementFormat
	// Offset is filled in by NewVertexLayoutDescription.
	Offset uint32
}

type VertexLayoutDescription struct {
	Stride   uint32
	Elements []VertexElementDescription
}

// NewVertexLayoutDescription packs the elements tightly in declaration order.
func NewVertexLayoutDescription(elements ...VertexElementDescription) VertexLayoutDescription {
	layout := VertexLayoutDescription{Elements: make([]VertexElementDescription, len(elements))}
	for i, e := range elements {
		e.Offset = layout.Stride
		layout.Elements[i] = e
		layout.Stride += e.Format.Size()
	}
	return layout
}

// OutputDescription describes the attachments a pipeline renders into.
type OutputDescription struct {
	ColorFormat PixelFormat
	DepthFormat PixelFormat
}
