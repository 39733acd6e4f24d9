package metadata

type BufferUsage uint8

const (
	BufferUsageVertexBuffer BufferUsage = 1 << iota
	BufferUsageIndexBuffer
	BufferUsageUniformBuffer
	BufferUsageDynamic
)

type BufferDescription struct {
	SizeInBytes uint32
	Usage       BufferUsage
}
