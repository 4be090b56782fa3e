// Package opengl implements the renderer Device and draw passes on top of an
// OpenGL 3.3 core context. All functions must be called from the thread that
// owns the current GL context.
package opengl

import (
	"errors"
	"fmt"
	"image"

	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/renderer"
	"github.com/go-gl/gl/v3.3-core/gl"
)

var ErrIncompleteFramebuffer = errors.New("opengl: incomplete framebuffer")

// A GL texture owned by a framebuffer or a pass.
type Texture struct {
	id     uint32
	width  int
	height int
}

func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }

// The GL texture name.
func (t *Texture) ID() uint32 { return t.id }

func (t *Texture) release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

type framebuffer struct {
	fbo    uint32
	depth  uint32
	width  int
	height int
	color  map[int]*Texture
}

func (fb *framebuffer) Color(slot int) renderer.Texture {
	if tex, exists := fb.color[slot]; exists {
		return tex
	}
	return nil
}

func (fb *framebuffer) Width() int  { return fb.width }
func (fb *framebuffer) Height() int { return fb.height }

func (fb *framebuffer) Release() {
	for _, tex := range fb.color {
		tex.release()
	}
	if fb.depth != 0 {
		gl.DeleteRenderbuffers(1, &fb.depth)
		fb.depth = 0
	}
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
}

// Device is a renderer.Device backed by the current GL context.
type Device struct {
	logger log.Logger

	maxRenderbufferSize int

	// An empty vertex array for drawing attribute-less full screen triangles.
	vao uint32
}

// Initialize the GL bindings for the current context and create a device.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl: could not init opengl: %s", err.Error())
	}

	dev := &Device{logger: log.New("opengl")}

	var maxSize int32
	gl.GetIntegerv(gl.MAX_RENDERBUFFER_SIZE, &maxSize)
	dev.maxRenderbufferSize = int(maxSize)

	gl.GenVertexArrays(1, &dev.vao)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.BLEND)
	gl.Disable(gl.SCISSOR_TEST)

	dev.logger.Infof("GL %s on %s (max renderbuffer size %d)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)), dev.maxRenderbufferSize)
	return dev, nil
}

func (d *Device) MaxRenderbufferSize() int { return d.maxRenderbufferSize }

func (d *Device) NewFramebuffer(spec renderer.FramebufferSpec) (renderer.Framebuffer, error) {
	fb := &framebuffer{
		width:  spec.Width,
		height: spec.Height,
		color:  make(map[int]*Texture, len(spec.Color)),
	}

	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	for _, att := range spec.Color {
		tex := newTexture(spec.Width, spec.Height, att.Format)
		fb.color[att.Slot] = tex
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(att.Slot), gl.TEXTURE_2D, tex.id, 0)
	}

	if buffers := drawBuffers(spec.Color); len(buffers) > 0 {
		gl.DrawBuffers(int32(len(buffers)), &buffers[0])
	}

	if spec.Depth {
		gl.GenRenderbuffers(1, &fb.depth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depth)
		gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(spec.Width), int32(spec.Height))
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	}

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		fb.Release()
		return nil, fmt.Errorf("%w: status 0x%x", ErrIncompleteFramebuffer, status)
	}

	return fb, nil
}

func (d *Device) Bind(fb renderer.Framebuffer) {
	if fb == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.(*framebuffer).fbo)
}

func (d *Device) Viewport(rect image.Rectangle) {
	gl.Viewport(int32(rect.Min.X), int32(rect.Min.Y), int32(rect.Dx()), int32(rect.Dy()))
}

func (d *Device) Scissor(rect image.Rectangle) {
	if rect.Empty() {
		gl.Disable(gl.SCISSOR_TEST)
		return
	}
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(rect.Min.X), int32(rect.Min.Y), int32(rect.Dx()), int32(rect.Dy()))
}

func (d *Device) SetAdditiveBlend(enabled bool) {
	if !enabled {
		gl.Disable(gl.BLEND)
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE)
}

func (d *Device) Clear(depth bool) {
	mask := uint32(gl.COLOR_BUFFER_BIT)
	if depth {
		gl.DepthMask(true)
		gl.ClearDepth(1)
		mask |= gl.DEPTH_BUFFER_BIT
	}
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(mask)
}

// Release the device resources.
func (d *Device) Close() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}

// Issue a full screen triangle.
func (d *Device) drawFullscreen() {
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)
}

// Map attachments to a draw buffer list indexed by slot; unused slots are
// set to NONE.
func drawBuffers(attachments []renderer.Attachment) []uint32 {
	maxSlot := -1
	for _, att := range attachments {
		maxSlot = max(maxSlot, att.Slot)
	}
	if maxSlot < 0 {
		return nil
	}

	buffers := make([]uint32, maxSlot+1)
	for i := range buffers {
		buffers[i] = gl.NONE
	}
	for _, att := range attachments {
		buffers[att.Slot] = gl.COLOR_ATTACHMENT0 + uint32(att.Slot)
	}
	return buffers
}

// Return the internal format, pixel format and pixel type for a
// framebuffer attachment format.
func glFormat(format renderer.TextureFormat) (internal int32, pixelFmt, pixelType uint32) {
	switch format {
	case renderer.FormatRGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT
	case renderer.FormatRGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func newTexture(w, h int, format renderer.TextureFormat) *Texture {
	tex := &Texture{width: w, height: h}
	internal, pixelFmt, pixelType := glFormat(format)

	gl.GenTextures(1, &tex.id)
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(w), int32(h), 0, pixelFmt, pixelType, nil)
	setSampling(gl.LINEAR, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

func setSampling(filter, wrap int32) {
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
}
