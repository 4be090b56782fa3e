package texture

type Format uint32

const (
	Luminance8 Format = iota
	Luminance32F
	Rgba8
	Rgba32F
)

// Return the number of bytes used by a single texel.
func (f Format) BytesPerTexel() int {
	switch f {
	case Luminance8:
		return 1
	case Luminance32F, Rgba8:
		return 4
	default:
		return 16
	}
}

func (f Format) String() string {
	switch f {
	case Luminance8:
		return "luminance8"
	case Luminance32F:
		return "luminance32f"
	case Rgba8:
		return "rgba8"
	default:
		return "rgba32f"
	}
}
