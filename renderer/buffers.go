package renderer

import (
	"fmt"

	"github.com/achilleasa/prism/types"
)

// A pair of framebuffers with swappable roles. The current buffer receives
// this frame's data while the previous one holds last frame's data. Roles
// are tracked with a parity index so callers never hold a reference that
// could be swapped underneath them.
type BufferPair struct {
	slots   [2]Framebuffer
	current int
}

// Create a pair where front is initially the current buffer.
func NewBufferPair(front, back Framebuffer) BufferPair {
	return BufferPair{slots: [2]Framebuffer{front, back}}
}

// The buffer holding this frame's data.
func (p *BufferPair) Current() Framebuffer { return p.slots[p.current] }

// The buffer holding last frame's data.
func (p *BufferPair) Previous() Framebuffer { return p.slots[1-p.current] }

// The physical slot index of the current buffer.
func (p *BufferPair) CurrentIndex() int { return p.current }

// Access a buffer by physical slot index.
func (p *BufferPair) Slot(index int) Framebuffer { return p.slots[index&1] }

// Exchange the current and previous roles.
func (p *BufferPair) Swap() { p.current = 1 - p.current }

// Release both buffers.
func (p *BufferPair) Release() {
	for i, fb := range p.slots {
		if fb != nil {
			fb.Release()
			p.slots[i] = nil
		}
	}
}

// Identifies one of the pairs in a bufferSet.
type pairID uint8

const (
	lightPair pairID = iota
	reprojectPair
)

// A record of which physical texture was last shown on the display and
// how it maps to it.
type displayRecord struct {
	pair  pairID
	slot  int
	scale types.Vec2
}

// The double-buffered resources owned by a Pipeline.
type bufferSet struct {
	light     BufferPair
	reproject BufferPair
	gbuffer   BufferPair

	lightSlot     int
	reprojectSlot int
	gbufferSlots  GBufferSlots
}

func allocBufferSet(dev Device, w, h int, gbSlots GBufferSlots, lightSlot, reprojectSlot int) (*bufferSet, error) {
	set := &bufferSet{
		lightSlot:     lightSlot,
		reprojectSlot: reprojectSlot,
		gbufferSlots:  gbSlots,
	}

	hdrSpec := func(slot int) FramebufferSpec {
		return FramebufferSpec{
			Width:  w,
			Height: h,
			Color:  []Attachment{{Slot: slot, Format: FormatRGBA32F}},
		}
	}
	gbSpec := FramebufferSpec{
		Width:  w,
		Height: h,
		Color: []Attachment{
			{Slot: gbSlots.Position, Format: FormatRGBA32F},
			{Slot: gbSlots.Normal, Format: FormatRGBA16F},
			{Slot: gbSlots.FaceNormal, Format: FormatRGBA16F},
			{Slot: gbSlots.Color, Format: FormatRGBA8},
			{Slot: gbSlots.MatProps, Format: FormatRGBA8},
		},
		Depth: true,
	}

	pairs := []struct {
		dst  *BufferPair
		spec FramebufferSpec
		name string
	}{
		{&set.light, hdrSpec(lightSlot), "light"},
		{&set.reproject, hdrSpec(reprojectSlot), "reprojection"},
		{&set.gbuffer, gbSpec, "g-buffer"},
	}

	for _, p := range pairs {
		front, err := dev.NewFramebuffer(p.spec)
		if err != nil {
			set.release()
			return nil, fmt.Errorf("renderer: could not allocate %s buffer: %w", p.name, err)
		}
		back, err := dev.NewFramebuffer(p.spec)
		if err != nil {
			front.Release()
			set.release()
			return nil, fmt.Errorf("renderer: could not allocate %s back buffer: %w", p.name, err)
		}
		*p.dst = NewBufferPair(front, back)
	}

	// New framebuffers have undefined contents and reprojection can read a
	// previous buffer before anything was rendered into it.
	for _, p := range pairs {
		for slot := 0; slot < 2; slot++ {
			dev.Bind(p.dst.Slot(slot))
			dev.Clear(p.spec.Depth)
		}
	}
	dev.Bind(nil)

	return set, nil
}

// Swap all pairs.
func (s *bufferSet) swap() {
	s.light.Swap()
	s.reproject.Swap()
	s.gbuffer.Swap()
}

func (s *bufferSet) release() {
	s.light.Release()
	s.reproject.Release()
	s.gbuffer.Release()
}

// Resolve a display record to the texture it refers to.
func (s *bufferSet) resolve(rec displayRecord) Texture {
	switch rec.pair {
	case reprojectPair:
		return s.reproject.Slot(rec.slot).Color(s.reprojectSlot)
	default:
		return s.light.Slot(rec.slot).Color(s.lightSlot)
	}
}

func (s *bufferSet) lightTexture() Texture {
	return s.light.Current().Color(s.lightSlot)
}

func (s *bufferSet) position() Texture {
	return s.gbuffer.Current().Color(s.gbufferSlots.Position)
}

func (s *bufferSet) previousPosition() Texture {
	return s.gbuffer.Previous().Color(s.gbufferSlots.Position)
}

func (s *bufferSet) gbuffers() GBuffers {
	fb := s.gbuffer.Current()
	return GBuffers{
		Position:   fb.Color(s.gbufferSlots.Position),
		Normal:     fb.Color(s.gbufferSlots.Normal),
		FaceNormal: fb.Color(s.gbufferSlots.FaceNormal),
		Color:      fb.Color(s.gbufferSlots.Color),
		MatProps:   fb.Color(s.gbufferSlots.MatProps),
	}
}

// Ensure that the G-buffer outputs map to distinct, non-negative slots.
func validateSlots(slots GBufferSlots) error {
	named := []struct {
		name string
		slot int
	}{
		{"position", slots.Position},
		{"normal", slots.Normal},
		{"face normal", slots.FaceNormal},
		{"color", slots.Color},
		{"material properties", slots.MatProps},
	}

	seen := make(map[int]string, len(named))
	for _, n := range named {
		if n.slot < 0 {
			return fmt.Errorf("%w: %s output has negative slot %d", ErrOutputSlotCollision, n.name, n.slot)
		}
		if other, exists := seen[n.slot]; exists {
			return fmt.Errorf("%w: %s and %s outputs both use slot %d", ErrOutputSlotCollision, other, n.name, n.slot)
		}
		seen[n.slot] = n.name
	}
	return nil
}
