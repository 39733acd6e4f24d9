package metadata

// RgbaFloat is a color with float channels, normally in [0, 1].
type RgbaFloat struct {
	R, G, B, A float32
}

var (
	RgbaFloatBlack  = RgbaFloat{0, 0, 0, 1}
	RgbaFloatRed    = RgbaFloat{1, 0, 0, 1}
	RgbaFloatGreen  = RgbaFloat{0, 1, 0, 1}
	RgbaFloatBlue   = RgbaFloat{0, 0, 1, 1}
	RgbaFloatYellow = RgbaFloat{1, 1, 0, 1}
)
