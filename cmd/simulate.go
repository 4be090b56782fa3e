package cmd

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/prism/renderer"
	"github.com/achilleasa/prism/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Yaw applied per frame while the simulated camera is moving.
const simulatedYawPerFrame float32 = 0.01

type simConfig struct {
	Width  int
	Height int

	// Max renderbuffer size reported by the simulated device.
	MaxRenderbufferSize int

	Frames int

	// Number of initial frames during which the camera keeps moving.
	MoveFrames int

	// Fixed CPU cost added to every frame.
	FrameOverhead time.Duration

	// Use the full resolution path instead of the progressive one.
	Full bool

	Options renderer.Options
	Noise   renderer.NoiseLoader
	Cost    renderer.CostModel
}

type sweepStat struct {
	Sample      int
	Tiles       int
	TileW       int
	TileH       int
	Elapsed     time.Duration
	Reprojected bool
}

type simReport struct {
	Frames      int
	Skipped     int
	FirstFrames int
	Previews    int
	Tiles       int
	Full        int

	// Last preview resolution.
	PreviewW int
	PreviewH int

	Sweeps      []sweepStat
	Samples     int
	VirtualTime time.Duration
}

// Drive a pipeline backed by a headless device using a virtual clock that
// advances by the simulated cost of each frame.
func runSimulation(ctx context.Context, cfg simConfig) (*simReport, error) {
	dev := renderer.NewHeadlessDevice(cfg.MaxRenderbufferSize, cfg.Cost)
	hp := renderer.NewHeadlessPasses(dev)

	p, err := renderer.NewPipeline(dev, hp.Passes(), cfg.Options)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	p.LoadNoise(cfg.Noise)
	if err = p.WaitReady(ctx); err != nil {
		return nil, err
	}
	if err = p.SetSize(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	p.OnSampleRendered(func(sample int, since time.Duration) {
		logger.Debugf("sample %d rendered (%s since previous sample)", sample, since)
	})

	cam := scene.NewCamera(45)
	cam.SetupProjection(float32(cfg.Width) / float32(cfg.Height))

	report := &simReport{Frames: cfg.Frames}
	var now, sweepStart time.Duration
	var cur sweepStat
	for frame := 0; frame < cfg.Frames; frame++ {
		if frame < cfg.MoveFrames {
			cam.Yaw = simulatedYawPerFrame
			cam.Update()
		}

		p.Time(now)
		if cfg.Full {
			p.DrawFull(cam.Snapshot())
		} else {
			p.Draw(cam.Snapshot())
		}

		fs := p.LastFrame()
		frameTime := cfg.FrameOverhead + dev.TakeElapsed()
		dev.TakeDraws()
		dev.TakeClears()

		switch fs.Mode {
		case renderer.ModePreview:
			report.Previews++
			report.PreviewW, report.PreviewH = fs.Width, fs.Height
		case renderer.ModeTile:
			report.Tiles++
			if fs.Tile.IsFirstTile {
				sweepStart = now
				cur = sweepStat{TileW: fs.Tile.Width, TileH: fs.Tile.Height}
			}
			cur.Tiles++
			if fs.Tile.IsLastTile {
				cur.Sample = fs.SampleCount
				cur.Reprojected = fs.Reprojected
				cur.Elapsed = now + frameTime - sweepStart
				report.Sweeps = append(report.Sweeps, cur)
			}
		case renderer.ModeFull:
			report.Full++
		case renderer.ModeFirstFrame:
			report.FirstFrames++
		default:
			report.Skipped++
		}

		now += frameTime
	}

	report.Samples = p.SamplesRendered()
	report.VirtualTime = now
	return report, nil
}

// Simulate the progressive schedule on a headless device and report the
// sweep statistics.
func Simulate(ctx *cli.Context) error {
	setupLogging(ctx)

	opts, err := pipelineOptions(ctx)
	if err != nil {
		return err
	}

	cost := renderer.DefaultCostModel()
	if ctx.IsSet("light-cost") {
		cost.Light = ctx.Duration("light-cost")
	}

	cfg := simConfig{
		Width:               ctx.Int("width"),
		Height:              ctx.Int("height"),
		MaxRenderbufferSize: ctx.Int("max-renderbuffer"),
		Frames:              ctx.Int("frames"),
		MoveFrames:          ctx.Int("move-frames"),
		FrameOverhead:       ctx.Duration("overhead"),
		Full:                ctx.Bool("full"),
		Options:             opts,
		Noise:               noiseLoader(ctx, opts.Seed),
		Cost:                cost,
	}

	logger.Noticef("simulating %d frames at %dx%d", cfg.Frames, cfg.Width, cfg.Height)
	report, err := runSimulation(context.Background(), cfg)
	if err != nil {
		return err
	}

	displaySimulationStats(report)
	return nil
}

func displaySimulationStats(report *simReport) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Sample", "Tiles", "Tile size", "Reprojected", "Sweep time"})
	for _, stat := range report.Sweeps {
		table.Append([]string{
			fmt.Sprintf("%d", stat.Sample),
			fmt.Sprintf("%d", stat.Tiles),
			fmt.Sprintf("%dx%d", stat.TileW, stat.TileH),
			fmt.Sprintf("%t", stat.Reprojected),
			stat.Elapsed.String(),
		})
	}
	table.SetFooter([]string{"", "", "", "TOTAL", report.VirtualTime.String()})
	table.Render()

	logger.Noticef(
		"simulation statistics (frames: %d, skipped: %d, first: %d, previews: %d, tiles: %d, full: %d, samples: %d, last preview: %dx%d)\n%s",
		report.Frames, report.Skipped, report.FirstFrames, report.Previews, report.Tiles, report.Full, report.Samples, report.PreviewW, report.PreviewH, buf.String(),
	)
}
