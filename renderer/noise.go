package renderer

import (
	"context"
	"fmt"

	"github.com/achilleasa/prism/asset/texture"
)

// Readiness tracks the asynchronous noise texture load that gates drawing.
type Readiness uint8

const (
	NotReady Readiness = iota
	Ready
	Failed
)

func (r Readiness) String() string {
	switch r {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "not ready"
	}
}

// A function that produces the noise texture. It runs on its own goroutine.
type NoiseLoader func() (*texture.Texture, error)

type noiseResult struct {
	tex *texture.Texture
	err error
}

// Start loading the noise texture. The result is picked up by the next
// Draw/DrawFull/Readiness call on the control thread.
func (p *Pipeline) LoadNoise(load NoiseLoader) {
	ch := make(chan noiseResult, 1)
	p.noiseCh = ch
	p.readiness = NotReady
	p.noiseErr = nil

	go func() {
		tex, err := load()
		ch <- noiseResult{tex: tex, err: err}
	}()
}

// Install a noise texture and mark the pipeline as ready.
func (p *Pipeline) SetNoise(noise *texture.Texture) {
	p.noiseCh = nil
	p.noiseErr = nil
	p.passes.Light.SetNoise(noise)
	p.readiness = Ready
	p.logger.Infof("noise texture installed (%dx%d)", noise.Width, noise.Height)
}

// Get the pipeline readiness.
func (p *Pipeline) Readiness() Readiness {
	p.pollNoise()
	return p.readiness
}

// Get the error that caused the noise load to fail.
func (p *Pipeline) NoiseError() error {
	return p.noiseErr
}

// Block until the pending noise load completes or ctx is done.
func (p *Pipeline) WaitReady(ctx context.Context) error {
	if p.noiseCh != nil {
		select {
		case res := <-p.noiseCh:
			p.applyNoise(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if p.readiness != Ready {
		if p.noiseErr != nil {
			return p.noiseErr
		}
		return fmt.Errorf("renderer: pipeline is %s", p.readiness)
	}
	return nil
}

func (p *Pipeline) pollNoise() {
	if p.noiseCh == nil {
		return
	}
	select {
	case res := <-p.noiseCh:
		p.applyNoise(res)
	default:
	}
}

func (p *Pipeline) applyNoise(res noiseResult) {
	p.noiseCh = nil
	if res.err == nil && res.tex == nil {
		res.err = fmt.Errorf("renderer: noise loader returned no texture")
	}
	if res.err != nil {
		p.readiness = Failed
		p.noiseErr = res.err
		p.logger.Errorf("noise texture load failed; drawing disabled: %v", res.err)
		return
	}
	p.SetNoise(res.tex)
}

// Select the sampling configuration for the next sample. The first sample
// uses a single stratum; once enough uniform samples have been accumulated
// the light pass switches to stratified sampling, otherwise it advances to
// the next seed.
func (p *Pipeline) applySeedSchedule() {
	switch p.sampleCount {
	case 0:
		p.passes.Light.SetStrataCount(1)
	case p.opts.NumUniformSamples:
		p.passes.Light.SetStrataCount(p.opts.StrataCount)
	default:
		p.passes.Light.NextSeed()
	}
}
