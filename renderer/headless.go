package renderer

import (
	"fmt"
	"image"
	"time"

	"github.com/achilleasa/prism/asset/texture"
	"github.com/achilleasa/prism/scene"
)

// Identifies the pass that issued a draw on a HeadlessDevice.
type PassKind uint8

const (
	PassGBuffer PassKind = iota
	PassLight
	PassReproject
	PassTonemap
)

func (k PassKind) String() string {
	switch k {
	case PassGBuffer:
		return "gbuffer"
	case PassLight:
		return "light"
	case PassReproject:
		return "reproject"
	default:
		return "tonemap"
	}
}

// The simulated per-pixel cost of each pass.
type CostModel struct {
	GBuffer   time.Duration
	Light     time.Duration
	Reproject time.Duration
	Tonemap   time.Duration
}

// Return a cost model where a full 800x600 light sample takes roughly 48ms.
func DefaultCostModel() CostModel {
	return CostModel{
		GBuffer:   2 * time.Nanosecond,
		Light:     100 * time.Nanosecond,
		Reproject: 5 * time.Nanosecond,
		Tonemap:   time.Nanosecond,
	}
}

func (c CostModel) perPixel(kind PassKind) time.Duration {
	switch kind {
	case PassGBuffer:
		return c.GBuffer
	case PassLight:
		return c.Light
	case PassReproject:
		return c.Reproject
	default:
		return c.Tonemap
	}
}

// A draw call captured by a HeadlessDevice.
type DrawCall struct {
	Pass PassKind

	// The framebuffer bound at draw time; zero for the display.
	Target int

	Viewport image.Rectangle
	Scissor  image.Rectangle
	Additive bool

	// Number of pixels touched by the draw.
	Pixels int
}

func (dc DrawCall) String() string {
	target := "display"
	if dc.Target != 0 {
		target = fmt.Sprintf("fb#%d", dc.Target)
	}
	return fmt.Sprintf("%s -> %s viewport=%v scissor=%v additive=%t", dc.Pass, target, dc.Viewport, dc.Scissor, dc.Additive)
}

// A clear captured by a HeadlessDevice.
type ClearCall struct {
	// The framebuffer bound at clear time; zero for the display.
	Target int
	Depth  bool
}

type headlessTexture struct {
	id     int
	width  int
	height int
	format TextureFormat
}

func (t *headlessTexture) Width() int  { return t.width }
func (t *headlessTexture) Height() int { return t.height }
func (t *headlessTexture) ID() int     { return t.id }

func (t *headlessTexture) String() string {
	return fmt.Sprintf("tex#%d(%dx%d)", t.id, t.width, t.height)
}

type headlessFramebuffer struct {
	dev      *HeadlessDevice
	id       int
	width    int
	height   int
	color    map[int]*headlessTexture
	released bool
}

func (fb *headlessFramebuffer) Color(slot int) Texture {
	if tex, exists := fb.color[slot]; exists {
		return tex
	}
	return nil
}

func (fb *headlessFramebuffer) Width() int  { return fb.width }
func (fb *headlessFramebuffer) Height() int { return fb.height }
func (fb *headlessFramebuffer) ID() int     { return fb.id }

func (fb *headlessFramebuffer) Release() {
	if fb.released {
		return
	}
	fb.released = true
	fb.dev.live--
}

// HeadlessDevice is a Device that performs no rendering. It tracks the
// bound state, records every draw issued through passes created with
// NewHeadlessPasses and accumulates a simulated GPU time derived from the
// number of pixels each draw touches.
type HeadlessDevice struct {
	maxRenderbufferSize int
	cost                CostModel

	nextID int
	live   int

	bound    *headlessFramebuffer
	viewport image.Rectangle
	scissor  image.Rectangle
	additive bool

	elapsed time.Duration
	draws   []DrawCall
	clears  []ClearCall

	// If set, NewFramebuffer fails after this many successful allocations.
	FailAfter int
}

// Create a headless device reporting the given max renderbuffer size.
func NewHeadlessDevice(maxRenderbufferSize int, cost CostModel) *HeadlessDevice {
	return &HeadlessDevice{
		maxRenderbufferSize: maxRenderbufferSize,
		cost:                cost,
		FailAfter:           -1,
	}
}

func (d *HeadlessDevice) MaxRenderbufferSize() int { return d.maxRenderbufferSize }

func (d *HeadlessDevice) NewFramebuffer(spec FramebufferSpec) (Framebuffer, error) {
	if d.FailAfter == 0 {
		return nil, fmt.Errorf("headless: out of memory allocating %dx%d framebuffer", spec.Width, spec.Height)
	}
	if d.FailAfter > 0 {
		d.FailAfter--
	}

	d.nextID++
	fb := &headlessFramebuffer{
		dev:    d,
		id:     d.nextID,
		width:  spec.Width,
		height: spec.Height,
		color:  make(map[int]*headlessTexture, len(spec.Color)),
	}
	for _, att := range spec.Color {
		d.nextID++
		fb.color[att.Slot] = &headlessTexture{id: d.nextID, width: spec.Width, height: spec.Height, format: att.Format}
	}
	d.live++
	return fb, nil
}

func (d *HeadlessDevice) Bind(fb Framebuffer) {
	if fb == nil {
		d.bound = nil
		return
	}
	d.bound = fb.(*headlessFramebuffer)
}

func (d *HeadlessDevice) Viewport(rect image.Rectangle) { d.viewport = rect }
func (d *HeadlessDevice) Scissor(rect image.Rectangle)  { d.scissor = rect }
func (d *HeadlessDevice) SetAdditiveBlend(enabled bool) { d.additive = enabled }

func (d *HeadlessDevice) Clear(depth bool) {
	d.clears = append(d.clears, ClearCall{Target: d.boundID(), Depth: depth})
}

// Return the simulated GPU time accumulated since the last call and reset it.
func (d *HeadlessDevice) TakeElapsed() time.Duration {
	elapsed := d.elapsed
	d.elapsed = 0
	return elapsed
}

// Return the draws recorded since the last call and reset the log.
func (d *HeadlessDevice) TakeDraws() []DrawCall {
	draws := d.draws
	d.draws = nil
	return draws
}

// Return the clears recorded since the last call and reset the log.
func (d *HeadlessDevice) TakeClears() []ClearCall {
	clears := d.clears
	d.clears = nil
	return clears
}

// Return the number of allocated framebuffers that have not been released.
func (d *HeadlessDevice) LiveFramebuffers() int { return d.live }

// Return the id of the bound framebuffer or zero for the display.
func (d *HeadlessDevice) boundID() int {
	if d.bound == nil {
		return 0
	}
	return d.bound.id
}

func (d *HeadlessDevice) draw(kind PassKind) {
	area := d.viewport
	if !d.scissor.Empty() {
		area = area.Intersect(d.scissor)
	}
	pixels := area.Dx() * area.Dy()

	d.elapsed += time.Duration(pixels) * d.cost.perPixel(kind)
	d.draws = append(d.draws, DrawCall{
		Pass:     kind,
		Target:   d.boundID(),
		Viewport: d.viewport,
		Scissor:  d.scissor,
		Additive: d.additive,
		Pixels:   pixels,
	})
}

// A G-buffer pass that records its configuration.
type HeadlessGBufferPass struct {
	dev   *HeadlessDevice
	slots GBufferSlots

	Camera  scene.CameraSnapshot
	JitterX float32
	JitterY float32
	Draws   int
}

func (p *HeadlessGBufferPass) SetCamera(cam scene.CameraSnapshot) { p.Camera = cam }
func (p *HeadlessGBufferPass) SetJitter(x, y float32)             { p.JitterX, p.JitterY = x, y }
func (p *HeadlessGBufferPass) OutputSlots() GBufferSlots          { return p.slots }

func (p *HeadlessGBufferPass) Draw() {
	p.Draws++
	p.dev.draw(PassGBuffer)
}

// A light pass that records its configuration.
type HeadlessLightPass struct {
	dev  *HeadlessDevice
	slot int

	Width       int
	Height      int
	JitterX     float32
	JitterY     float32
	StrataCount int
	Seed        int
	GBuffers    GBuffers
	Camera      scene.CameraSnapshot
	Noise       *texture.Texture
	TextureBind int
	Draws       int
}

func (p *HeadlessLightPass) SetSize(w, h int)                   { p.Width, p.Height = w, h }
func (p *HeadlessLightPass) SetJitter(x, y float32)             { p.JitterX, p.JitterY = x, y }
func (p *HeadlessLightPass) SetGBuffers(gb GBuffers)            { p.GBuffers = gb }
func (p *HeadlessLightPass) SetCamera(cam scene.CameraSnapshot) { p.Camera = cam }
func (p *HeadlessLightPass) SetNoise(noise *texture.Texture)    { p.Noise = noise }
func (p *HeadlessLightPass) BindTextures()                      { p.TextureBind++ }
func (p *HeadlessLightPass) OutputSlot() int                    { return p.slot }

// Switching the strata count restarts the seed sequence.
func (p *HeadlessLightPass) SetStrataCount(n int) {
	p.StrataCount = n
	p.Seed = 0
}

func (p *HeadlessLightPass) NextSeed() { p.Seed++ }

func (p *HeadlessLightPass) Draw() {
	p.Draws++
	p.dev.draw(PassLight)
}

// A reprojection pass that records its inputs.
type HeadlessReprojectPass struct {
	dev  *HeadlessDevice
	slot int

	JitterX        float32
	JitterY        float32
	PreviousCamera scene.CameraSnapshot
	LastParams     ReprojectParams
	Draws          int
}

func (p *HeadlessReprojectPass) SetJitter(x, y float32)                     { p.JitterX, p.JitterY = x, y }
func (p *HeadlessReprojectPass) SetPreviousCamera(cam scene.CameraSnapshot) { p.PreviousCamera = cam }
func (p *HeadlessReprojectPass) OutputSlot() int                            { return p.slot }

func (p *HeadlessReprojectPass) Draw(params ReprojectParams) {
	p.LastParams = params
	p.Draws++
	p.dev.draw(PassReproject)
}

// A tone-map pass that records its inputs.
type HeadlessTonemapPass struct {
	dev *HeadlessDevice

	LastParams TonemapParams

	// The framebuffer id bound during the last draw; zero for the display.
	LastTarget int
	Draws      int
}

func (p *HeadlessTonemapPass) Draw(params TonemapParams) {
	p.LastParams = params
	p.LastTarget = p.dev.boundID()
	p.Draws++
	p.dev.draw(PassTonemap)
}

// The full set of headless passes.
type HeadlessPasses struct {
	GBuffer   *HeadlessGBufferPass
	Light     *HeadlessLightPass
	Reproject *HeadlessReprojectPass
	Tonemap   *HeadlessTonemapPass
}

// Create headless passes that report their draws to dev. G-buffer outputs
// use slots 0-4 and the light and reprojection passes write to slot 0.
func NewHeadlessPasses(dev *HeadlessDevice) *HeadlessPasses {
	return &HeadlessPasses{
		GBuffer: &HeadlessGBufferPass{
			dev: dev,
			slots: GBufferSlots{
				Position:   0,
				Normal:     1,
				FaceNormal: 2,
				Color:      3,
				MatProps:   4,
			},
		},
		Light:     &HeadlessLightPass{dev: dev},
		Reproject: &HeadlessReprojectPass{dev: dev},
		Tonemap:   &HeadlessTonemapPass{dev: dev},
	}
}

// Get the passes as a Passes value for NewPipeline.
func (hp *HeadlessPasses) Passes() Passes {
	return Passes{
		GBuffer:   hp.GBuffer,
		Light:     hp.Light,
		Reproject: hp.Reproject,
		Tonemap:   hp.Tonemap,
	}
}
