package renderer

import (
	"fmt"
	"image"
	"math"
	"math/rand"
	"time"

	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/types"
)

var fullscreenScale = types.XY(1, 1)

// Invoked once per completed sweep with the sample index and the time since
// the previous notification (zero for the first one).
type SampleRenderedFunc func(sample int, sinceLast time.Duration)

// Pipeline sequences the draw passes across frames. While the camera moves
// it renders low resolution previews; once the camera settles it accumulates
// full resolution samples one tile per frame and blends them with the
// reprojected history.
//
// A Pipeline is not safe for concurrent use; all methods must be invoked
// from the thread that drives the frame loop.
type Pipeline struct {
	logger log.Logger

	dev    Device
	passes Passes
	opts   Options
	rng    *rand.Rand

	gbSlots       GBufferSlots
	lightSlot     int
	reprojectSlot int

	tiles   *tracer.TileScheduler
	preview *tracer.RenderSize

	buffers *bufferSet
	screenW int
	screenH int

	lastCamera scene.CameraSnapshot
	hasCamera  bool
	firstFrame bool

	sampleCount         int
	numPreviewsRendered int

	frameTime    time.Duration
	elapsed      time.Duration
	hasFrameTime bool

	lastNotified time.Duration
	hasNotified  bool

	displayed displayRecord

	readiness Readiness
	noiseCh   chan noiseResult
	noiseErr  error

	onSampleRendered SampleRenderedFunc

	state State
	last  FrameStats
}

// Create a new pipeline. The G-buffer, light and reprojection output slots
// are validated; slot collisions are reported as ErrOutputSlotCollision.
func NewPipeline(dev Device, passes Passes, opts Options) (*Pipeline, error) {
	if dev == nil {
		return nil, ErrNoDevice
	}
	if passes.GBuffer == nil || passes.Light == nil || passes.Reproject == nil || passes.Tonemap == nil {
		return nil, ErrMissingPass
	}

	gbSlots := passes.GBuffer.OutputSlots()
	if err := validateSlots(gbSlots); err != nil {
		return nil, err
	}
	lightSlot, reprojectSlot := passes.Light.OutputSlot(), passes.Reproject.OutputSlot()
	if lightSlot < 0 || reprojectSlot < 0 {
		return nil, fmt.Errorf("%w: light slot %d, reprojection slot %d", ErrOutputSlotCollision, lightSlot, reprojectSlot)
	}

	opts = opts.withDefaults()
	return &Pipeline{
		logger:        log.New("pipeline"),
		dev:           dev,
		passes:        passes,
		opts:          opts,
		rng:           rand.New(rand.NewSource(opts.Seed)),
		gbSlots:       gbSlots,
		lightSlot:     lightSlot,
		reprojectSlot: reprojectSlot,
		tiles:         tracer.NewTileScheduler(dev.MaxRenderbufferSize()),
		preview:       tracer.NewRenderSize(dev.MaxRenderbufferSize()),
		firstFrame:    true,
	}, nil
}

// Resize the output, reallocating all buffer pairs. The next Draw call
// behaves as the first frame.
func (p *Pipeline) SetSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}

	if p.buffers != nil {
		p.buffers.release()
		p.buffers = nil
	}

	buffers, err := allocBufferSet(p.dev, w, h, p.gbSlots, p.lightSlot, p.reprojectSlot)
	if err != nil {
		return err
	}

	p.buffers = buffers
	p.screenW, p.screenH = w, h
	p.tiles.SetSize(w, h)
	p.preview.SetSize(w, h)
	p.firstFrame = true
	p.sampleCount = 0
	p.numPreviewsRendered = 0
	p.state = StateFirstFrame
	p.displayed = displayRecord{pair: lightPair, slot: buffers.light.CurrentIndex(), scale: fullscreenScale}

	p.logger.Debugf("resized to %dx%d", w, h)
	return nil
}

// Update the frame clock. It should be called once per frame before drawing.
func (p *Pipeline) Time(now time.Duration) {
	if p.hasFrameTime {
		p.elapsed = now - p.frameTime
	} else {
		p.elapsed = 0
	}
	p.frameTime = now
	p.hasFrameTime = true
}

// Get the number of samples accumulated since the last reset.
func (p *Pipeline) SamplesRendered() int { return p.sampleCount }

// Register a callback for completed sweeps.
func (p *Pipeline) OnSampleRendered(fn SampleRenderedFunc) { p.onSampleRendered = fn }

// Get the pipeline state.
func (p *Pipeline) State() State { return p.state }

// Get statistics for the last draw call.
func (p *Pipeline) LastFrame() FrameStats { return p.last }

// Release all buffers.
func (p *Pipeline) Close() {
	if p.buffers != nil {
		p.buffers.release()
		p.buffers = nil
	}
}

// Draw the next frame. A changed camera resets accumulation and renders a
// preview; an unchanged camera advances the progressive sweep by one tile.
func (p *Pipeline) Draw(cam scene.CameraSnapshot) {
	if !p.canDraw() {
		p.last = FrameStats{Mode: ModeSkipped}
		return
	}

	if p.firstFrame || !p.hasCamera || !cam.Equal(p.lastCamera) {
		p.setCameras(cam)
		if p.firstFrame {
			// No previous frame to reproject from.
			p.firstFrame = false
			p.state = StateFirstFrame
			p.last = FrameStats{Mode: ModeFirstFrame}
		} else {
			p.drawPreview()
			p.numPreviewsRendered++
		}
		p.tiles.Reset()
		p.sampleCount = 0
		p.last.SampleCount = 0
		return
	}

	p.drawTile()
	p.numPreviewsRendered = 0
}

// Render a full resolution sample every call and reproject it with a blend
// amount of 1. Frame cost is independent of the adaptive sizing and tiling
// logic which makes this path suitable for benchmarking.
func (p *Pipeline) DrawFull(cam scene.CameraSnapshot) {
	if !p.canDraw() {
		p.last = FrameStats{Mode: ModeSkipped}
		return
	}

	p.buffers.gbuffer.Swap()
	p.buffers.reproject.Swap()

	if !p.hasCamera || !cam.Equal(p.lastCamera) {
		p.sampleCount = 0
		p.clearBuffer(p.buffers.light.Current())
	} else {
		p.sampleCount++
	}

	p.setCameras(cam)
	p.updateSeed(p.screenW, p.screenH, true)
	p.renderGBuffer()
	p.passes.Light.BindTextures()
	p.addSampleToBuffer(p.buffers.light.Current(), p.screenW, p.screenH)

	p.reproject(1.0, p.buffers.lightTexture(), fullscreenScale, p.screenW, p.screenH, p.displayed)
	p.toneMapToScreen(displayRecord{pair: reprojectPair, slot: p.buffers.reproject.CurrentIndex(), scale: fullscreenScale})

	p.state = StateFull
	p.last = FrameStats{
		Mode:        ModeFull,
		SampleCount: p.sampleCount,
		BlendAmount: 1.0,
		Width:       p.screenW,
		Height:      p.screenH,
		Reprojected: true,
		Displayed:   true,
	}
}

// Render a reduced resolution single sample frame and reproject it against
// the last displayed image.
func (p *Pipeline) drawPreview() {
	if p.sampleCount > 0 {
		p.buffers.swap()
	}

	if p.numPreviewsRendered >= p.opts.PreviewFramesBeforeBenchmark {
		p.preview.AdjustSize(p.elapsed)
	}

	w, h, scale := p.preview.Width(), p.preview.Height(), p.preview.Scale()

	p.updateSeed(w, h, false)
	p.renderGBuffer()
	p.passes.Light.BindTextures()
	p.newSampleToBuffer(p.buffers.light.Current(), w, h)

	p.reproject(1.0, p.buffers.lightTexture(), scale, w, h, p.displayed)
	p.toneMapToScreen(displayRecord{pair: reprojectPair, slot: p.buffers.reproject.CurrentIndex(), scale: scale})

	p.buffers.swap()

	p.state = StatePreview
	p.last = FrameStats{
		Mode:        ModePreview,
		BlendAmount: 1.0,
		Width:       w,
		Height:      h,
		Reprojected: true,
		Displayed:   true,
	}
}

// Advance the progressive sweep by a single tile.
func (p *Pipeline) drawTile() {
	tile := p.tiles.NextTile(p.elapsed)

	if tile.IsFirstTile {
		if p.sampleCount == 0 {
			// The previous image was a preview; discard it.
			p.clearBuffer(p.buffers.light.Current())
			p.passes.Reproject.SetPreviousCamera(p.lastCamera)
		} else {
			p.notifySampleRendered()
		}

		// Jitter and seed stay fixed for all tiles of a sample so that
		// they match the G-buffer rendered here.
		p.updateSeed(p.screenW, p.screenH, true)
		p.renderGBuffer()
		p.passes.Light.BindTextures()
	}

	p.renderTile(p.buffers.light.Current(), tile)

	p.state = StateSweep
	p.last = FrameStats{
		Mode:   ModeTile,
		Tile:   tile,
		Width:  p.screenW,
		Height: p.screenH,
	}

	if tile.IsLastTile {
		p.sampleCount++
		blendAmount := BlendAmount(p.sampleCount, p.opts.MaxReprojectedSamples)

		if blendAmount > 0 {
			p.reproject(
				blendAmount,
				p.buffers.lightTexture(),
				fullscreenScale,
				p.screenW, p.screenH,
				displayRecord{pair: reprojectPair, slot: 1 - p.buffers.reproject.CurrentIndex(), scale: p.preview.Scale()},
			)
			p.toneMapToScreen(displayRecord{pair: reprojectPair, slot: p.buffers.reproject.CurrentIndex(), scale: fullscreenScale})
			p.last.Reprojected = true
			p.last.BlendAmount = blendAmount
		} else {
			p.toneMapToScreen(displayRecord{pair: lightPair, slot: p.buffers.light.CurrentIndex(), scale: fullscreenScale})
		}
		p.last.Displayed = true

		p.logger.Debugf("sample %d complete (blend amount %.3f)", p.sampleCount, blendAmount)
	}
	p.last.SampleCount = p.sampleCount
}

// Compute the reprojection blend amount for the given sample count. It
// decays quadratically and reaches zero at maxReprojected samples.
func BlendAmount(sampleCount, maxReprojected int) float32 {
	if maxReprojected <= 0 {
		return 0
	}
	amount := math.Max(0, math.Min(1, 1-float64(sampleCount)/float64(maxReprojected)))
	return float32(amount * amount)
}

func (p *Pipeline) canDraw() bool {
	p.pollNoise()
	return p.readiness == Ready && p.buffers != nil
}

func (p *Pipeline) setCameras(cam scene.CameraSnapshot) {
	prev := cam
	if p.hasCamera {
		prev = p.lastCamera
	}

	p.passes.Light.SetCamera(cam)
	p.passes.GBuffer.SetCamera(cam)
	p.passes.Reproject.SetPreviousCamera(prev)

	p.lastCamera = cam
	p.hasCamera = true
}

// Configure jitter and sampling for the next sample rendered at w x h.
func (p *Pipeline) updateSeed(w, h int, useJitter bool) {
	p.passes.Light.SetSize(w, h)

	var jitterX, jitterY float32
	if useJitter {
		jitterX = (p.rng.Float32() - 0.5) / float32(w)
		jitterY = (p.rng.Float32() - 0.5) / float32(h)
	}
	p.passes.GBuffer.SetJitter(jitterX, jitterY)
	p.passes.Light.SetJitter(jitterX, jitterY)
	p.passes.Reproject.SetJitter(jitterX, jitterY)

	p.applySeedSchedule()
}

func (p *Pipeline) notifySampleRendered() {
	var since time.Duration
	if p.hasNotified {
		since = p.frameTime - p.lastNotified
	}
	p.lastNotified = p.frameTime
	p.hasNotified = true

	if p.onSampleRendered != nil {
		p.onSampleRendered(p.sampleCount, since)
	}
}

func (p *Pipeline) clearBuffer(fb Framebuffer) {
	p.dev.Bind(fb)
	p.dev.Clear(false)
	p.dev.Bind(nil)
}

func (p *Pipeline) renderGBuffer() {
	p.dev.Bind(p.buffers.gbuffer.Current())
	p.dev.Clear(true)
	p.dev.Viewport(image.Rect(0, 0, p.screenW, p.screenH))
	p.passes.GBuffer.Draw()
	p.dev.Bind(nil)

	p.passes.Light.SetGBuffers(p.buffers.gbuffers())
}

// Overwrite fb with a single light sample rendered at w x h.
func (p *Pipeline) newSampleToBuffer(fb Framebuffer, w, h int) {
	p.dev.Bind(fb)
	p.dev.Viewport(image.Rect(0, 0, w, h))
	p.passes.Light.Draw()
	p.dev.Bind(nil)
}

// Additively blend a light sample rendered at w x h into fb.
func (p *Pipeline) addSampleToBuffer(fb Framebuffer, w, h int) {
	p.dev.Bind(fb)
	p.dev.SetAdditiveBlend(true)
	p.dev.Viewport(image.Rect(0, 0, w, h))
	p.passes.Light.Draw()
	p.dev.SetAdditiveBlend(false)
	p.dev.Bind(nil)
}

func (p *Pipeline) renderTile(fb Framebuffer, tile tracer.Tile) {
	p.dev.Scissor(tile.Rect())
	p.addSampleToBuffer(fb, p.screenW, p.screenH)
	p.dev.Scissor(image.Rectangle{})
}

// Blend light with the history referenced by prev into the current
// reprojection buffer.
func (p *Pipeline) reproject(blendAmount float32, light Texture, lightScale types.Vec2, w, h int, prev displayRecord) {
	params := ReprojectParams{
		BlendAmount:        blendAmount,
		Light:              light,
		LightScale:         lightScale,
		Position:           p.buffers.position(),
		PreviousLight:      p.buffers.resolve(prev),
		PreviousLightScale: prev.scale,
		PreviousPosition:   p.buffers.previousPosition(),
	}

	p.dev.Bind(p.buffers.reproject.Current())
	p.dev.Viewport(image.Rect(0, 0, w, h))
	p.passes.Reproject.Draw(params)
	p.dev.Bind(nil)
}

func (p *Pipeline) toneMapToScreen(rec displayRecord) {
	p.dev.Bind(nil)
	p.dev.Viewport(image.Rect(0, 0, p.screenW, p.screenH))
	p.passes.Tonemap.Draw(TonemapParams{
		Light:      p.buffers.resolve(rec),
		LightScale: rec.scale,
		Position:   p.buffers.position(),
	})
	p.displayed = rec
}
