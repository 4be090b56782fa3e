package main

import (
	"fmt"
	"os"
	"time"

	"github.com/achilleasa/prism/cmd"
	"github.com/achilleasa/prism/renderer"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "prism"
	app.Usage = "progressive path traced rendering with adaptive tiling"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "simulate",
			Usage: "run the progressive pipeline on a simulated device",
			Description: `
Drive the pipeline with a headless device whose draw cost is proportional to
the number of shaded pixels. A virtual clock advances by the simulated cost of
each frame so the adaptive tile and preview sizes can be observed without a
GPU.

The camera moves for the first --move-frames frames and then stays still so
that the pipeline switches from previews to full resolution tile sweeps.`,
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 1280,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 720,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "max-renderbuffer",
					Value: 16384,
					Usage: "max renderbuffer size reported by the simulated device",
				},
				cli.IntFlag{
					Name:  "frames",
					Value: 600,
					Usage: "number of frames to simulate",
				},
				cli.IntFlag{
					Name:  "move-frames",
					Value: 30,
					Usage: "number of initial frames with a moving camera",
				},
				cli.DurationFlag{
					Name:  "overhead",
					Value: time.Millisecond,
					Usage: "fixed cost added to every frame",
				},
				cli.DurationFlag{
					Name:  "light-cost",
					Value: renderer.DefaultCostModel().Light,
					Usage: "simulated light pass cost per pixel",
				},
				cli.BoolFlag{
					Name:  "full",
					Usage: "render every frame at full resolution",
				},
			}, cmd.PipelineFlags...),
			Action: cmd.Simulate,
		},
		{
			Name:  "interactive",
			Usage: "render an interactive view of the built-in scene",
			Description: `
Open a window and progressively render the built-in scene. Use the arrow or
WASD keys to move, drag with the left mouse button to look around and press F
to toggle full resolution rendering.`,
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 1024,
					Usage: "window width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 768,
					Usage: "window height",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Value: 1.0,
					Usage: "camera exposure for tone-mapping",
				},
				cli.BoolFlag{
					Name:  "full",
					Usage: "render every frame at full resolution",
				},
			}, cmd.PipelineFlags...),
			Action: cmd.RenderInteractive,
		},
		{
			Name:   "list-devices",
			Usage:  "print opengl device information and initial schedule estimates",
			Action: cmd.ListDevices,
		},
		{
			Name:  "tilemap",
			Usage: "export the tile layout of a sweep as an image",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 1920,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 1080,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "max-renderbuffer",
					Value: 16384,
					Usage: "max renderbuffer size used for the initial estimate",
				},
				cli.IntFlag{
					Name:  "sweeps",
					Value: 10,
					Usage: "number of sweeps to run before capturing the layout",
				},
				cli.DurationFlag{
					Name:  "pixel-cost",
					Value: renderer.DefaultCostModel().Light,
					Usage: "simulated cost per tile pixel",
				},
				cli.DurationFlag{
					Name:  "overhead",
					Value: time.Millisecond,
					Usage: "fixed cost added to every frame",
				},
				cli.Float64Flag{
					Name:  "scale",
					Value: 0.5,
					Usage: "output image scale",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "tilemap.webp",
					Usage: "output image (.webp or .png)",
				},
			},
			Action: cmd.ExportTileMap,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
