package tracer

import (
	"testing"
	"time"
)

func TestRenderSizeInitialDims(t *testing.T) {
	rs := NewRenderSize(8192)
	rs.SetSize(800, 600)

	// sqrt(80000 * 4/3) = 326.6
	if rs.Width() != 327 || rs.Height() != 245 {
		t.Fatalf("expected working size 327x245; got %dx%d", rs.Width(), rs.Height())
	}

	scale := rs.Scale()
	if scale[0] != float32(327)/800 || scale[1] != float32(245)/600 {
		t.Fatalf("expected scale to match working/full ratio; got %v", scale)
	}
}

func TestRenderSizeCappedByFullResolution(t *testing.T) {
	rs := NewRenderSize(32768)
	rs.SetSize(100, 50)

	if rs.Width() != 100 || rs.Height() != 50 {
		t.Fatalf("expected working size 100x50; got %dx%d", rs.Width(), rs.Height())
	}
	if s := rs.Scale(); s[0] != 1 || s[1] != 1 {
		t.Fatalf("expected unit scale; got %v", s)
	}
}

func TestRenderSizeAdjust(t *testing.T) {
	type spec struct {
		elapsed time.Duration
		grow    bool
	}
	specs := []spec{
		{5 * time.Millisecond, true},
		{80 * time.Millisecond, false},
	}

	for index, s := range specs {
		rs := NewRenderSize(8192)
		rs.SetSize(1920, 1080)
		w := rs.Width()

		rs.AdjustSize(s.elapsed)
		if s.grow && rs.Width() <= w {
			t.Fatalf("[spec %d] expected width to grow above %d; got %d", index, w, rs.Width())
		}
		if !s.grow && rs.Width() >= w {
			t.Fatalf("[spec %d] expected width to shrink below %d; got %d", index, w, rs.Width())
		}
	}
}

func TestRenderSizeIgnoresNonPositiveElapsed(t *testing.T) {
	rs := NewRenderSize(8192)
	rs.SetSize(1920, 1080)
	budget := rs.PixelsPerFrame()

	rs.AdjustSize(0)
	rs.AdjustSize(-time.Second)
	if rs.PixelsPerFrame() != budget {
		t.Fatalf("expected budget %f; got %f", budget, rs.PixelsPerFrame())
	}
}

func TestRenderSizeClamp(t *testing.T) {
	rs := NewRenderSize(8192)
	rs.SetSize(640, 480)

	for i := 0; i < 100; i++ {
		rs.AdjustSize(time.Second)
	}
	if rs.PixelsPerFrame() != minPixelsPerFrame {
		t.Fatalf("expected budget to bottom out at %d; got %f", minPixelsPerFrame, rs.PixelsPerFrame())
	}

	for i := 0; i < 1000; i++ {
		rs.AdjustSize(time.Microsecond)
	}
	if rs.Width() != 640 || rs.Height() != 480 {
		t.Fatalf("expected working size to grow to 640x480; got %dx%d", rs.Width(), rs.Height())
	}
}
