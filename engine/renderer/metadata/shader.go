package metadata

type ShaderStage uint8

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	if s == ShaderStageFragment {
		return "fragment"
	}
	return "vertex"
}

/** @brief Describes one shader module. */
type ShaderDescription struct {
	Stage ShaderStage
	/** @brief Backend native code: SPIR-V for Vulkan, GLSL ES source for OpenGL ES. */
	Code       []byte
	EntryPoint string
}
