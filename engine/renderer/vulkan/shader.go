package vulkan

import (
	"encoding/binary"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/helloquad/engine/renderer/metadata"
)

type VulkanShader struct {
	context    *VulkanContext
	Module     vk.ShaderModule
	stage      metadata.ShaderStage
	entryPoint string
}

// spirvWords reinterprets little endian SPIR-V bytes as 32 bit words.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Errorf("SPIR-V code size %d is not a positive multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

func ShaderCreate(context *VulkanContext, desc metadata.ShaderDescription) (*VulkanShader, error) {
	words, err := spirvWords(desc.Code)
	if err != nil {
		return nil, errors.Wrapf(err, "%s shader", desc.Stage)
	}
	entryPoint := desc.EntryPoint
	if entryPoint == "" {
		entryPoint = "main"
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(desc.Code)),
		PCode:    words,
	}
	shader := &VulkanShader{context: context, stage: desc.Stage, entryPoint: entryPoint}
	if err := checkResult(vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &shader.Module), "vkCreateShaderModule"); err != nil {
		return nil, errors.Wrapf(err, "%s shader", desc.Stage)
	}
	return shader, nil
}

func (s *VulkanShader) Stage() metadata.ShaderStage { return s.stage }
func (s *VulkanShader) EntryPoint() string          { return s.entryPoint }

func (s *VulkanShader) Dispose() {
	if s.context == nil {
		return
	}
	if s.Module != nil {
		vk.DestroyShaderModule(s.context.Device.LogicalDevice, s.Module, s.context.Allocator)
		s.Module = nil
	}
	s.context = nil
}
