package renderer

import (
	"fmt"

	"github.com/achilleasa/prism/tracer"
)

// The pipeline state after the last draw call.
type State uint8

const (
	StateFirstFrame State = iota
	StatePreview
	StateSweep
	StateFull
)

func (s State) String() string {
	switch s {
	case StatePreview:
		return "preview"
	case StateSweep:
		return "sweep"
	case StateFull:
		return "full"
	default:
		return "first-frame"
	}
}

// What a single draw call did.
type FrameMode uint8

const (
	// Nothing was drawn; the pipeline was not ready or not sized.
	ModeSkipped FrameMode = iota

	// The camera was recorded but nothing was drawn.
	ModeFirstFrame

	ModePreview
	ModeTile
	ModeFull
)

func (m FrameMode) String() string {
	switch m {
	case ModeFirstFrame:
		return "first-frame"
	case ModePreview:
		return "preview"
	case ModeTile:
		return "tile"
	case ModeFull:
		return "full"
	default:
		return "skipped"
	}
}

type FrameStats struct {
	Mode FrameMode

	// The rendered tile (ModeTile only).
	Tile tracer.Tile

	// Sample count after the draw.
	SampleCount int

	// Blend amount used for reprojection; valid when Reprojected is set.
	BlendAmount float32

	// Resolution the light pass rendered at.
	Width  int
	Height int

	// Set if the reprojection pass was invoked.
	Reprojected bool

	// Set if the frame was tone-mapped to the display.
	Displayed bool
}

func (fs FrameStats) String() string {
	switch fs.Mode {
	case ModeTile:
		return fmt.Sprintf("%s %v samples=%d reprojected=%t displayed=%t", fs.Mode, fs.Tile, fs.SampleCount, fs.Reprojected, fs.Displayed)
	case ModePreview, ModeFull:
		return fmt.Sprintf("%s %dx%d samples=%d", fs.Mode, fs.Width, fs.Height, fs.SampleCount)
	default:
		return fs.Mode.String()
	}
}
