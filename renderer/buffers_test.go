package renderer

import (
	"testing"

	"github.com/achilleasa/prism/types"
)

func TestBufferPairSwap(t *testing.T) {
	dev := NewHeadlessDevice(8192, DefaultCostModel())
	spec := FramebufferSpec{Width: 4, Height: 4, Color: []Attachment{{Slot: 0, Format: FormatRGBA32F}}}
	front, _ := dev.NewFramebuffer(spec)
	back, _ := dev.NewFramebuffer(spec)

	pair := NewBufferPair(front, back)
	if pair.Current() != front || pair.Previous() != back {
		t.Fatal("expected front to be the current buffer")
	}

	pair.Swap()
	if pair.Current() != back || pair.Previous() != front {
		t.Fatal("expected swap to exchange roles")
	}
	if pair.CurrentIndex() != 1 || pair.Slot(1) != back {
		t.Fatalf("expected current index 1; got %d", pair.CurrentIndex())
	}

	pair.Swap()
	if pair.Current() != front || pair.Previous() != back {
		t.Fatal("expected a double swap to restore the original roles")
	}

	pair.Release()
	if dev.LiveFramebuffers() != 0 {
		t.Fatalf("expected both buffers to be released; got %d live", dev.LiveFramebuffers())
	}
	if pair.Current() != nil {
		t.Fatal("expected released slots to be cleared")
	}
}

func TestBufferSetResolve(t *testing.T) {
	dev := NewHeadlessDevice(8192, DefaultCostModel())
	slots := GBufferSlots{Position: 4, Normal: 3, FaceNormal: 2, Color: 1, MatProps: 0}
	set, err := allocBufferSet(dev, 16, 8, slots, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	defer set.release()

	if dev.LiveFramebuffers() != 6 {
		t.Fatalf("expected 6 framebuffers; got %d", dev.LiveFramebuffers())
	}

	rec := displayRecord{pair: reprojectPair, slot: set.reproject.CurrentIndex(), scale: types.XY(1, 1)}
	exp := set.resolve(rec)
	if exp == nil {
		t.Fatal("expected reprojection texture at slot 5")
	}

	set.swap()
	if got := set.resolve(rec); got != exp {
		t.Fatal("expected record to resolve to the same texture after a swap")
	}
	if set.reproject.Previous().Color(5) != exp {
		t.Fatal("expected recorded texture to be the previous buffer after a swap")
	}

	if set.position() == set.previousPosition() {
		t.Fatal("expected current and previous positions to differ")
	}
	gb := set.gbuffers()
	if gb.Position != set.position() || gb.MatProps == nil {
		t.Fatal("expected g-buffer textures to follow the declared slots")
	}

	if set.resolve(displayRecord{pair: lightPair, slot: set.light.CurrentIndex()}) != set.lightTexture() {
		t.Fatal("expected light record to resolve to the current light texture")
	}
}

func TestBufferSetClearsNewFramebuffers(t *testing.T) {
	dev := NewHeadlessDevice(8192, DefaultCostModel())
	slots := GBufferSlots{Position: 0, Normal: 1, FaceNormal: 2, Color: 3, MatProps: 4}
	set, err := allocBufferSet(dev, 16, 8, slots, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer set.release()

	cleared := make(map[int]bool)
	for _, c := range dev.TakeClears() {
		cleared[c.Target] = c.Depth
	}

	specs := []struct {
		pair  *BufferPair
		depth bool
	}{
		{&set.light, false},
		{&set.reproject, false},
		{&set.gbuffer, true},
	}
	for specIndex, spec := range specs {
		for slot := 0; slot < 2; slot++ {
			id := spec.pair.Slot(slot).(*headlessFramebuffer).id
			depth, exists := cleared[id]
			if !exists {
				t.Errorf("[spec %d] expected framebuffer in slot %d to be cleared", specIndex, slot)
				continue
			}
			if depth != spec.depth {
				t.Errorf("[spec %d] expected depth clear to be %t; got %t", specIndex, spec.depth, depth)
			}
		}
	}

	if dev.boundID() != 0 {
		t.Fatalf("expected the display to be bound after allocation; got fb#%d", dev.boundID())
	}
}
