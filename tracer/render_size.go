package tracer

import (
	"math"
	"time"

	"github.com/achilleasa/prism/types"
)

const (
	// Target duration for a preview frame.
	desiredPreviewTime = 20 * time.Millisecond

	// Controller gain for pixels-per-frame adjustments.
	previewAdjustStrength = 600.0

	// Lower bound for the preview pixel budget.
	minPixelsPerFrame = 8192
)

// RenderSize tracks the working resolution used for preview frames. It grows
// the resolution when frames finish under budget and shrinks it when they
// run over, never exceeding the full resolution.
type RenderSize struct {
	fullW int
	fullH int

	width  int
	height int
	scale  types.Vec2

	pixelsPerFrame float64
}

// Create a new render size tracker. The initial pixel budget is estimated
// from the device's max renderbuffer size.
func NewRenderSize(maxRenderbufferSize int) *RenderSize {
	return &RenderSize{
		scale:          types.XY(1, 1),
		pixelsPerFrame: pixelsPerFrameEstimate(maxRenderbufferSize),
	}
}

// Set the full resolution which caps the working resolution.
func (rs *RenderSize) SetSize(w, h int) {
	rs.fullW, rs.fullH = w, h
	rs.calcDimensions()
}

// Adjust the working resolution given the duration of the last frame.
// Non-positive durations are ignored.
func (rs *RenderSize) AdjustSize(elapsed time.Duration) {
	if elapsed <= 0 || rs.fullW <= 0 || rs.fullH <= 0 {
		return
	}

	err := toMillis(desiredPreviewTime) - toMillis(elapsed)
	rs.pixelsPerFrame += previewAdjustStrength * err

	fullArea := float64(rs.fullW * rs.fullH)
	rs.pixelsPerFrame = clamp(rs.pixelsPerFrame, math.Min(minPixelsPerFrame, fullArea), fullArea)
	rs.calcDimensions()
}

// Working width.
func (rs *RenderSize) Width() int { return rs.width }

// Working height.
func (rs *RenderSize) Height() int { return rs.height }

// Ratio between the working and the full resolution.
func (rs *RenderSize) Scale() types.Vec2 { return rs.scale }

// Current pixel budget.
func (rs *RenderSize) PixelsPerFrame() float64 { return rs.pixelsPerFrame }

func (rs *RenderSize) calcDimensions() {
	if rs.fullW <= 0 || rs.fullH <= 0 {
		rs.width, rs.height, rs.scale = 0, 0, types.XY(1, 1)
		return
	}

	aspect := float64(rs.fullW) / float64(rs.fullH)
	w := math.Round(clamp(math.Sqrt(rs.pixelsPerFrame*aspect), 1, float64(rs.fullW)))
	h := math.Round(clamp(w/aspect, 1, float64(rs.fullH)))

	rs.width, rs.height = int(w), int(h)
	rs.scale = types.XY(float32(w)/float32(rs.fullW), float32(h)/float32(rs.fullH))
}
