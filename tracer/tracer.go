package tracer

import (
	"fmt"
	"image"
	"math"
	"time"
)

// A rectangular region of the output frame processed in a single frame, plus
// markers for the boundaries of the sweep it belongs to.
type Tile struct {
	X      int
	Y      int
	Width  int
	Height int

	// Set for the first tile of a sweep.
	IsFirstTile bool

	// Set for the tile that completes a sweep.
	IsLastTile bool
}

// Return the tile bounds as an image.Rectangle.
func (t Tile) Rect() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
}

func (t Tile) String() string {
	return fmt.Sprintf("tile(%d,%d %dx%d first=%t last=%t)", t.X, t.Y, t.Width, t.Height, t.IsFirstTile, t.IsLastTile)
}

// Initial pixel budgets are derived from the max renderbuffer size reported
// by the device which correlates with overall GPU throughput.
func pixelsPerTileEstimate(maxRenderbufferSize int) float64 {
	switch {
	case maxRenderbufferSize <= 8192:
		return 200000
	case maxRenderbufferSize < 32768:
		return 400000
	default:
		return 600000
	}
}

func pixelsPerFrameEstimate(maxRenderbufferSize int) float64 {
	switch {
	case maxRenderbufferSize <= 8192:
		return 80000
	case maxRenderbufferSize < 32768:
		return 150000
	default:
		return 400000
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
