package renderer

import (
	"image"

	"github.com/achilleasa/prism/asset/texture"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/types"
)

// Texture is an opaque handle to a GPU texture.
type Texture interface {
	Width() int
	Height() int
}

// The storage format of a framebuffer attachment.
type TextureFormat uint8

const (
	FormatRGBA8 TextureFormat = iota
	FormatRGBA16F
	FormatRGBA32F
)

// A color attachment bound to an output slot.
type Attachment struct {
	Slot   int
	Format TextureFormat
}

// Describes a framebuffer to be allocated by a Device.
type FramebufferSpec struct {
	Width  int
	Height int
	Color  []Attachment
	Depth  bool
}

// A render target with color textures bound to output slots.
type Framebuffer interface {
	// Get the texture bound to the given output slot or nil.
	Color(slot int) Texture

	Width() int
	Height() int

	// Free the GPU resources held by this framebuffer.
	Release()
}

// Device exposes the GPU state operations needed to sequence the passes.
// Passes draw into whatever target is currently bound.
type Device interface {
	// Max supported renderbuffer size; used for estimating throughput.
	MaxRenderbufferSize() int

	// Allocate a framebuffer.
	NewFramebuffer(spec FramebufferSpec) (Framebuffer, error)

	// Bind a framebuffer as the draw target. A nil framebuffer selects the
	// display.
	Bind(fb Framebuffer)

	// Set the viewport for the bound target.
	Viewport(rect image.Rectangle)

	// Restrict draws to rect. An empty rect disables scissoring.
	Scissor(rect image.Rectangle)

	// Toggle additive (one, one) blending.
	SetAdditiveBlend(enabled bool)

	// Clear the bound target's color attachments and optionally its depth.
	Clear(depth bool)
}

// The output slot assignment of the G-buffer pass.
type GBufferSlots struct {
	Position   int
	Normal     int
	FaceNormal int
	Color      int
	MatProps   int
}

// The G-buffer textures consumed by the light transport pass.
type GBuffers struct {
	Position   Texture
	Normal     Texture
	FaceNormal Texture
	Color      Texture
	MatProps   Texture
}

// Rasterizes per-pixel geometry and material attributes.
type GBufferPass interface {
	SetCamera(cam scene.CameraSnapshot)
	SetJitter(x, y float32)
	Draw()
	OutputSlots() GBufferSlots
}

// Computes one light sample per pixel.
type LightPass interface {
	SetSize(w, h int)
	SetJitter(x, y float32)
	SetStrataCount(n int)
	NextSeed()
	SetGBuffers(gb GBuffers)
	SetCamera(cam scene.CameraSnapshot)
	SetNoise(noise *texture.Texture)
	BindTextures()
	Draw()
	OutputSlot() int
}

// The inputs of a reprojection draw.
type ReprojectParams struct {
	// Mix factor between the new sample and the reprojected history.
	BlendAmount float32

	Light      Texture
	LightScale types.Vec2
	Position   Texture

	PreviousLight      Texture
	PreviousLightScale types.Vec2
	PreviousPosition   Texture
}

// Blends a new sample with the motion compensated history.
type ReprojectPass interface {
	SetJitter(x, y float32)
	SetPreviousCamera(cam scene.CameraSnapshot)
	Draw(params ReprojectParams)
	OutputSlot() int
}

// The inputs of a tone-map draw.
type TonemapParams struct {
	Light      Texture
	LightScale types.Vec2
	Position   Texture
}

// Maps HDR light to the display.
type TonemapPass interface {
	Draw(params TonemapParams)
}

// The set of passes driven by a Pipeline.
type Passes struct {
	GBuffer   GBufferPass
	Light     LightPass
	Reproject ReprojectPass
	Tonemap   TonemapPass
}
