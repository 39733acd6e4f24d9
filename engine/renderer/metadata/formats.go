package metadata

import (
	"strings"

	"github.com/pkg/errors"
)

type PixelFormat uint8

const (
	PixelFormatUndefined PixelFormat = iota
	PixelFormatB8G8R8A8UNorm
	PixelFormatR8G8B8A8UNorm
	PixelFormatD32Float
	PixelFormatD32FloatS8UInt
	PixelFormatD24UNormS8UInt
)

func (f PixelFormat) IsDepth() bool {
	switch f {
	case PixelFormatD32Float, PixelFormatD32FloatS8UInt, PixelFormatD24UNormS8UInt:
		return true
	}
	return false
}

func (f PixelFormat) HasStencil() bool {
	return f == PixelFormatD32FloatS8UInt || f == PixelFormatD24UNormS8UInt
}

// ParseDepthFormat maps a configuration value to a depth format. An empty
// string or "none" means no depth target.
func ParseDepthFormat(s string) (PixelFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PixelFormatUndefined, nil
	case "d32_float":
		return PixelFormatD32Float, nil
	case "d32_float_s8_uint":
		return PixelFormatD32FloatS8UInt, nil
	case "d24_unorm_s8_uint":
		return PixelFormatD24UNormS8UInt, nil
	}
	return PixelFormatUndefined, errors.Errorf("unknown depth format %q", s)
}

type IndexFormat uint8

const (
	IndexFormatUInt16 IndexFormat = iota
	IndexFormatUInt32
)

// Size returns the size of one index in bytes.
func (f IndexFormat) Size() uint32 {
	if f == IndexFormatUInt32 {
		return 4
	}
	return 2
}
