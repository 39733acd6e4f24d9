package gles

import (
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
	"golang.org/x/mobile/gl"
)

type GLESBuffer struct {
	ctx    gl.Context
	Handle gl.Buffer
	target gl.Enum
	size   uint32
	usage  metadata.BufferUsage
}

// BufferCreate allocates an uninitialized buffer of desc.SizeInBytes.
func BufferCreate(ctx gl.Context, desc metadata.BufferDescription) (*GLESBuffer, error) {
	if desc.SizeInBytes == 0 {
		return nil, errors.New("cannot create a zero sized buffer")
	}
	b := &GLESBuffer{
		ctx:    ctx,
		Handle: ctx.CreateBuffer(),
		target: glBufferTarget(desc.Usage),
		size:   desc.SizeInBytes,
		usage:  desc.Usage,
	}
	ctx.BindBuffer(b.target, b.Handle)
	ctx.BufferInit(b.target, int(desc.SizeInBytes), glBufferUsage(desc.Usage))
	ctx.BindBuffer(b.target, gl.Buffer{})
	return b, nil
}

func (b *GLESBuffer) SizeInBytes() uint32         { return b.size }
func (b *GLESBuffer) Usage() metadata.BufferUsage { return b.usage }

// Update copies data into the buffer at offset.
func (b *GLESBuffer) Update(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(b.size) {
		return errors.Errorf("update of %d bytes at offset %d overflows buffer of %d bytes", len(data), offset, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	b.ctx.BindBuffer(b.target, b.Handle)
	b.ctx.BufferSubData(b.target, int(offset), data)
	b.ctx.BindBuffer(b.target, gl.Buffer{})
	return nil
}

func (b *GLESBuffer) Dispose() {
	if b.Handle.Value == 0 {
		return
	}
	b.ctx.DeleteBuffer(b.Handle)
	b.Handle = gl.Buffer{}
}
