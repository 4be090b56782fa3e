package renderer

import (
	"encoding/json"
	"fmt"
	"io"
)

type Options struct {
	// Number of accumulated samples after which the reprojected history
	// no longer contributes to the displayed image.
	MaxReprojectedSamples int `json:"max_reprojected_samples"`

	// Number of uniformly sampled passes before switching to stratified noise.
	NumUniformSamples int `json:"num_uniform_samples"`

	// Number of strata used once stratified sampling kicks in.
	StrataCount int `json:"strata_count"`

	// Number of consecutive preview frames rendered before the preview
	// resolution starts adapting to the frame time.
	PreviewFramesBeforeBenchmark int `json:"preview_frames_before_benchmark"`

	// Seed for the jitter generator.
	Seed int64 `json:"seed"`
}

// Return the default pipeline options.
func DefaultOptions() Options {
	return Options{
		MaxReprojectedSamples:        20,
		NumUniformSamples:            4,
		StrataCount:                  6,
		PreviewFramesBeforeBenchmark: 2,
		Seed:                         1,
	}
}

// Decode options from a JSON stream. Fields missing from the stream keep
// their default values.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	if err := json.NewDecoder(r).Decode(&opts); err != nil {
		return Options{}, fmt.Errorf("renderer: could not parse options: %w", err)
	}
	return opts.withDefaults(), nil
}

// Replace unset or invalid values with their defaults.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxReprojectedSamples <= 0 {
		o.MaxReprojectedSamples = def.MaxReprojectedSamples
	}
	if o.NumUniformSamples <= 0 {
		o.NumUniformSamples = def.NumUniformSamples
	}
	if o.StrataCount <= 0 {
		o.StrataCount = def.StrataCount
	}
	if o.PreviewFramesBeforeBenchmark < 0 {
		o.PreviewFramesBeforeBenchmark = def.PreviewFramesBeforeBenchmark
	}
	return o
}
