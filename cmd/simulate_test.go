package cmd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/achilleasa/prism/asset/texture"
	"github.com/achilleasa/prism/renderer"
)

func testSimConfig() simConfig {
	return simConfig{
		Width:               320,
		Height:              240,
		MaxRenderbufferSize: 8192,
		Frames:              300,
		MoveFrames:          10,
		FrameOverhead:       time.Millisecond,
		Options:             renderer.DefaultOptions(),
		Noise:               texture.NoiseLoader(8, 8, 1),
		Cost:                renderer.DefaultCostModel(),
	}
}

func TestSimulateProgressive(t *testing.T) {
	report, err := runSimulation(context.Background(), testSimConfig())
	if err != nil {
		t.Fatal(err)
	}

	if report.FirstFrames != 1 || report.Skipped != 0 {
		t.Fatalf("expected a single first frame and no skipped frames; got %d and %d", report.FirstFrames, report.Skipped)
	}
	if report.Previews != 9 {
		t.Fatalf("expected 9 preview frames; got %d", report.Previews)
	}
	if report.FirstFrames+report.Previews+report.Tiles != report.Frames {
		t.Fatalf("expected all frames to be accounted for; got %+v", report)
	}
	if len(report.Sweeps) == 0 {
		t.Fatal("expected at least one completed sweep")
	}

	for i, sweep := range report.Sweeps {
		if sweep.Sample != i+1 {
			t.Fatalf("expected sweep %d to complete sample %d; got %d", i, i+1, sweep.Sample)
		}
		if sweep.Reprojected != (sweep.Sample < 20) {
			t.Fatalf("expected sweep for sample %d reprojected=%t", sweep.Sample, sweep.Sample < 20)
		}
		if sweep.Elapsed <= 0 {
			t.Fatalf("expected sweep %d to take time; got %v", i, sweep.Elapsed)
		}
	}

	if report.Samples != len(report.Sweeps) {
		t.Fatalf("expected %d samples; got %d", len(report.Sweeps), report.Samples)
	}
	if report.VirtualTime <= time.Duration(report.Frames)*time.Millisecond {
		t.Fatalf("expected virtual time to include draw costs; got %v", report.VirtualTime)
	}
}

func TestSimulateFull(t *testing.T) {
	cfg := testSimConfig()
	cfg.Full = true
	cfg.MoveFrames = 0
	cfg.Frames = 25

	report, err := runSimulation(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if report.Full != 25 {
		t.Fatalf("expected 25 full frames; got %d", report.Full)
	}
	if report.Samples != 24 {
		t.Fatalf("expected 24 samples; got %d", report.Samples)
	}
}

func TestSimulateNoiseFailure(t *testing.T) {
	cfg := testSimConfig()
	cfg.Noise = func() (*texture.Texture, error) { return nil, errors.New("no noise") }

	if _, err := runSimulation(context.Background(), cfg); err == nil || err.Error() != "no noise" {
		t.Fatalf("expected noise error; got %v", err)
	}
}
