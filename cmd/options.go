package cmd

import (
	"context"

	"github.com/achilleasa/prism/asset"
	"github.com/achilleasa/prism/asset/texture"
	"github.com/achilleasa/prism/renderer"
	"github.com/urfave/cli"
)

// Size of the generated noise texture when no noise image is supplied.
const defaultNoiseSize = 64

// Flags shared by all commands that drive a pipeline.
var PipelineFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "load pipeline options from a JSON file",
	},
	cli.IntFlag{
		Name:  "max-reprojected",
		Value: renderer.DefaultOptions().MaxReprojectedSamples,
		Usage: "samples after which reprojection is skipped",
	},
	cli.IntFlag{
		Name:  "uniform-samples",
		Value: renderer.DefaultOptions().NumUniformSamples,
		Usage: "uniform samples before switching to stratified sampling",
	},
	cli.IntFlag{
		Name:  "strata",
		Value: renderer.DefaultOptions().StrataCount,
		Usage: "number of strata for stratified sampling",
	},
	cli.IntFlag{
		Name:  "preview-warmup",
		Value: renderer.DefaultOptions().PreviewFramesBeforeBenchmark,
		Usage: "preview frames rendered before adapting the preview size",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: renderer.DefaultOptions().Seed,
		Usage: "seed for jitter and generated noise",
	},
	cli.StringFlag{
		Name:  "noise",
		Usage: "noise texture file or URL; a noise texture is generated if omitted",
	},
}

// Build the pipeline options. Values from the config file override the
// defaults and explicitly set flags override both.
func pipelineOptions(ctx *cli.Context) (renderer.Options, error) {
	opts := renderer.DefaultOptions()

	if path := ctx.String("config"); path != "" {
		res, err := asset.NewResource(path, nil)
		if err != nil {
			return opts, err
		}
		defer res.Close()

		if opts, err = renderer.LoadOptions(res); err != nil {
			return opts, err
		}
		logger.Infof("loaded pipeline options from %s", res.Path())
	}

	if ctx.IsSet("max-reprojected") {
		opts.MaxReprojectedSamples = ctx.Int("max-reprojected")
	}
	if ctx.IsSet("uniform-samples") {
		opts.NumUniformSamples = ctx.Int("uniform-samples")
	}
	if ctx.IsSet("strata") {
		opts.StrataCount = ctx.Int("strata")
	}
	if ctx.IsSet("preview-warmup") {
		opts.PreviewFramesBeforeBenchmark = ctx.Int("preview-warmup")
	}
	if ctx.IsSet("seed") {
		opts.Seed = ctx.Int64("seed")
	}

	return opts, nil
}

// Select the noise texture source.
func noiseLoader(ctx *cli.Context, seed int64) renderer.NoiseLoader {
	if path := ctx.String("noise"); path != "" {
		return texture.Loader(context.Background(), path)
	}
	return texture.NoiseLoader(defaultNoiseSize, defaultNoiseSize, seed)
}
