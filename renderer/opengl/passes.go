package opengl

import (
	"fmt"
	"math/rand"

	"github.com/achilleasa/prism/asset/texture"
	"github.com/achilleasa/prism/renderer"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/types"
	"github.com/go-gl/gl/v3.3-core/gl"
)

// GBufferPass rasterizes the scene geometry.
type GBufferPass struct {
	dev  *Device
	prog *program

	camera scene.CameraSnapshot
	jitter types.Vec2
}

func (p *GBufferPass) SetCamera(cam scene.CameraSnapshot) { p.camera = cam }
func (p *GBufferPass) SetJitter(x, y float32)             { p.jitter = types.XY(x, y) }

func (p *GBufferPass) OutputSlots() renderer.GBufferSlots {
	return renderer.GBufferSlots{
		Position:   gbufferPositionSlot,
		Normal:     gbufferNormalSlot,
		FaceNormal: gbufferFaceNormalSlot,
		Color:      gbufferColorSlot,
		MatProps:   gbufferMatPropsSlot,
	}
}

func (p *GBufferPass) Draw() {
	p.prog.use()
	setCameraUniforms(p.prog, p.camera)
	p.prog.setVec2("uJitter", p.jitter)

	// The depth test resolves overlapping geometry
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	p.dev.drawFullscreen()
	gl.Disable(gl.DEPTH_TEST)
}

// LightPass computes one light sample per pixel.
type LightPass struct {
	dev  *Device
	prog *program
	rng  *rand.Rand

	width  int
	height int
	jitter types.Vec2
	camera scene.CameraSnapshot

	strataCount int
	strataIndex int
	seedOffset  types.Vec2

	gbuffers renderer.GBuffers
	noise    *Texture
}

func (p *LightPass) SetSize(w, h int)                   { p.width, p.height = w, h }
func (p *LightPass) SetJitter(x, y float32)             { p.jitter = types.XY(x, y) }
func (p *LightPass) SetGBuffers(gb renderer.GBuffers)   { p.gbuffers = gb }
func (p *LightPass) SetCamera(cam scene.CameraSnapshot) { p.camera = cam }
func (p *LightPass) OutputSlot() int                    { return lightOutputSlot }

// Restart the seed sequence using n strata.
func (p *LightPass) SetStrataCount(n int) {
	p.strataCount = max(1, n)
	p.strataIndex = 0
	p.randomizeSeed()
}

// Advance to the next stratum and shift the noise lookup.
func (p *LightPass) NextSeed() {
	p.strataIndex = (p.strataIndex + 1) % max(1, p.strataCount)
	p.randomizeSeed()
}

func (p *LightPass) randomizeSeed() {
	if p.noise == nil {
		return
	}
	p.seedOffset = types.XY(
		float32(p.rng.Intn(p.noise.width)),
		float32(p.rng.Intn(p.noise.height)),
	)
}

// Upload the noise texture, replacing any previous one.
func (p *LightPass) SetNoise(noise *texture.Texture) {
	if p.noise != nil {
		p.noise.release()
	}
	p.noise = uploadTexture(noise)
	p.randomizeSeed()
}

func (p *LightPass) BindTextures() {
	p.prog.use()
	p.prog.setTexture("uPosition", 0, p.gbuffers.Position)
	p.prog.setTexture("uNormal", 1, p.gbuffers.Normal)
	p.prog.setTexture("uColor", 2, p.gbuffers.Color)
	p.prog.setTexture("uNoise", 3, p.noise)
}

func (p *LightPass) Draw() {
	p.prog.use()
	p.prog.setVec2("uSize", types.XY(float32(p.width), float32(p.height)))
	p.prog.setVec2("uJitter", p.jitter)
	p.prog.setVec2("uSeedOffset", p.seedOffset)
	p.prog.setFloat("uStrataCount", float32(max(1, p.strataCount)))
	p.prog.setFloat("uStrataIndex", float32(p.strataIndex))
	if p.noise != nil {
		p.prog.setVec2("uNoiseSize", types.XY(float32(p.noise.width), float32(p.noise.height)))
	}
	p.dev.drawFullscreen()
}

// ReprojectPass blends new samples with the motion compensated history.
type ReprojectPass struct {
	dev  *Device
	prog *program

	jitter    types.Vec2
	previous  scene.CameraSnapshot
	near, far float32
}

func (p *ReprojectPass) SetJitter(x, y float32)                     { p.jitter = types.XY(x, y) }
func (p *ReprojectPass) SetPreviousCamera(cam scene.CameraSnapshot) { p.previous = cam }
func (p *ReprojectPass) OutputSlot() int                            { return reprojectOutputSlot }

func (p *ReprojectPass) Draw(params renderer.ReprojectParams) {
	viewProj := types.Perspective4(p.previous.FOV, p.previous.Aspect, p.near, p.far).Mul4(p.previous.Transform.Inv())

	p.prog.use()
	p.prog.setFloat("uBlendAmount", params.BlendAmount)
	p.prog.setVec2("uLightScale", params.LightScale)
	p.prog.setVec2("uPreviousLightScale", params.PreviousLightScale)
	p.prog.setVec2("uJitter", p.jitter)
	p.prog.setMat4("uPreviousViewProj", viewProj)
	p.prog.setTexture("uLight", 0, params.Light)
	p.prog.setTexture("uPosition", 1, params.Position)
	p.prog.setTexture("uPreviousLight", 2, params.PreviousLight)
	p.prog.setTexture("uPreviousPosition", 3, params.PreviousPosition)
	p.dev.drawFullscreen()
}

// TonemapPass maps HDR light to the display.
type TonemapPass struct {
	dev  *Device
	prog *program

	Exposure float32
}

func (p *TonemapPass) Draw(params renderer.TonemapParams) {
	p.prog.use()
	p.prog.setFloat("uExposure", p.Exposure)
	p.prog.setVec2("uLightScale", params.LightScale)
	p.prog.setTexture("uLight", 0, params.Light)
	p.prog.setTexture("uPosition", 1, params.Position)
	p.dev.drawFullscreen()
}

// The GL implementations of all passes.
type Passes struct {
	GBuffer   *GBufferPass
	Light     *LightPass
	Reproject *ReprojectPass
	Tonemap   *TonemapPass
}

// Compile the pass programs.
func NewPasses(dev *Device, exposure float32, seed int64) (*Passes, error) {
	sources := []struct {
		name string
		src  string
	}{
		{"gbuffer", gbufferFragmentShader},
		{"light", lightFragmentShader},
		{"reproject", reprojectFragmentShader},
		{"tonemap", tonemapFragmentShader},
	}

	progs := make([]*program, 0, len(sources))
	for _, s := range sources {
		prog, err := newProgram(s.name, s.src)
		if err != nil {
			for _, p := range progs {
				p.release()
			}
			return nil, fmt.Errorf("opengl: could not build %s pass: %w", s.name, err)
		}
		progs = append(progs, prog)
	}

	return &Passes{
		GBuffer:   &GBufferPass{dev: dev, prog: progs[0]},
		Light:     &LightPass{dev: dev, prog: progs[1], rng: rand.New(rand.NewSource(seed)), strataCount: 1},
		Reproject: &ReprojectPass{dev: dev, prog: progs[2], near: 1, far: 1000},
		Tonemap:   &TonemapPass{dev: dev, prog: progs[3], Exposure: exposure},
	}, nil
}

// Get the passes as a renderer.Passes value.
func (ps *Passes) Passes() renderer.Passes {
	return renderer.Passes{
		GBuffer:   ps.GBuffer,
		Light:     ps.Light,
		Reproject: ps.Reproject,
		Tonemap:   ps.Tonemap,
	}
}

// Release the pass programs and textures.
func (ps *Passes) Release() {
	ps.GBuffer.prog.release()
	ps.Light.prog.release()
	ps.Reproject.prog.release()
	ps.Tonemap.prog.release()
	if ps.Light.noise != nil {
		ps.Light.noise.release()
	}
}

func setCameraUniforms(prog *program, cam scene.CameraSnapshot) {
	prog.setMat4("uCamera", cam.Transform)
	prog.setFloat("uFOV", cam.FOV)
	prog.setFloat("uAspect", cam.Aspect)
}

// Return the internal format, pixel format and pixel type for uploading
// a texture asset.
func assetFormat(format texture.Format) (internal int32, pixelFmt, pixelType uint32) {
	switch format {
	case texture.Luminance8:
		return gl.R8, gl.RED, gl.UNSIGNED_BYTE
	case texture.Luminance32F:
		return gl.R32F, gl.RED, gl.FLOAT
	case texture.Rgba8:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	default:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT
	}
}

func uploadTexture(src *texture.Texture) *Texture {
	tex := &Texture{width: int(src.Width), height: int(src.Height)}
	internal, pixelFmt, pixelType := assetFormat(src.Format)

	gl.GenTextures(1, &tex.id)
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(src.Width), int32(src.Height), 0, pixelFmt, pixelType, gl.Ptr(src.Data))
	setSampling(gl.NEAREST, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}
