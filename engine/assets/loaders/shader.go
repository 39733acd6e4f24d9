package loaders

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// SPIR-V magic number, first word of every module.
const spirvMagic = 0x07230203

type Resource struct {
	Name     string
	FullPath string
	Data     []byte
}

// ShaderLoader reads shader source text.
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.Errorf("shader %s is empty", path)
	}
	return &Resource{FullPath: path, Data: data}, nil
}

// SpirvLoader reads a SPIR-V binary and checks its header.
type SpirvLoader struct{}

func (sl *SpirvLoader) Load(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateSpirv(data); err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return &Resource{FullPath: path, Data: data}, nil
}

// ValidateSpirv checks that b holds whole little endian words and starts
// with the SPIR-V magic number.
func ValidateSpirv(b []byte) error {
	if len(b) < 4 || len(b)%4 != 0 {
		return errors.Errorf("spir-v size %d is not a positive multiple of 4", len(b))
	}
	if magic := binary.LittleEndian.Uint32(b); magic != spirvMagic {
		return errors.Errorf("bad spir-v magic %#08x", magic)
	}
	return nil
}
