package renderer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/achilleasa/prism/asset/texture"
)

func newUnreadyPipeline(t *testing.T) (*Pipeline, *HeadlessDevice, *HeadlessPasses) {
	dev := NewHeadlessDevice(8192, DefaultCostModel())
	hp := NewHeadlessPasses(dev)
	p, err := NewPipeline(dev, hp.Passes(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err = p.SetSize(64, 64); err != nil {
		t.Fatal(err)
	}
	return p, dev, hp
}

func TestDrawBeforeReady(t *testing.T) {
	p, dev, _ := newUnreadyPipeline(t)

	if p.Readiness() != NotReady {
		t.Fatalf("expected readiness %s; got %s", NotReady, p.Readiness())
	}

	p.Draw(snapshot(45))
	p.DrawFull(snapshot(45))
	if p.LastFrame().Mode != ModeSkipped {
		t.Fatalf("expected draw to be skipped; got %s", p.LastFrame().Mode)
	}
	if draws := dev.TakeDraws(); len(draws) != 0 {
		t.Fatalf("expected no draws; got %d", len(draws))
	}
}

func TestLoadNoise(t *testing.T) {
	p, _, hp := newUnreadyPipeline(t)

	release := make(chan struct{})
	noise := mockNoise()
	p.LoadNoise(func() (*texture.Texture, error) {
		<-release
		return noise, nil
	})

	if p.Readiness() != NotReady {
		t.Fatalf("expected readiness %s while loading; got %s", NotReady, p.Readiness())
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.WaitReady(ctx); err != nil {
		t.Fatal(err)
	}

	if p.Readiness() != Ready {
		t.Fatalf("expected readiness %s; got %s", Ready, p.Readiness())
	}
	if hp.Light.Noise != noise {
		t.Fatal("expected noise texture to be passed to the light pass")
	}

	p.Draw(snapshot(45))
	if p.LastFrame().Mode != ModeFirstFrame {
		t.Fatalf("expected a first frame once ready; got %s", p.LastFrame().Mode)
	}
}

func TestLoadNoiseFailure(t *testing.T) {
	specs := []struct {
		loader NoiseLoader
		expErr error
	}{
		{
			loader: func() (*texture.Texture, error) { return nil, errors.New("404") },
			expErr: errors.New("404"),
		},
		{
			loader: func() (*texture.Texture, error) { return nil, nil },
			expErr: errors.New("renderer: noise loader returned no texture"),
		},
	}

	for specIndex, spec := range specs {
		p, dev, _ := newUnreadyPipeline(t)
		p.LoadNoise(spec.loader)

		err := p.WaitReady(context.Background())
		if err == nil || err.Error() != spec.expErr.Error() {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
			continue
		}
		if p.Readiness() != Failed {
			t.Errorf("[spec %d] expected readiness %s; got %s", specIndex, Failed, p.Readiness())
		}
		if p.NoiseError() == nil {
			t.Errorf("[spec %d] expected noise error to be retained", specIndex)
		}

		p.Draw(snapshot(45))
		p.Draw(snapshot(45))
		if draws := dev.TakeDraws(); len(draws) != 0 {
			t.Errorf("[spec %d] expected a failed pipeline not to draw; got %d draws", specIndex, len(draws))
		}
	}
}

func TestWaitReadyTimeout(t *testing.T) {
	p, _, _ := newUnreadyPipeline(t)

	release := make(chan struct{})
	defer close(release)
	p.LoadNoise(func() (*texture.Texture, error) {
		<-release
		return mockNoise(), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.WaitReady(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected error %v; got %v", context.DeadlineExceeded, err)
	}
}
