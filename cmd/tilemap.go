package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/achilleasa/prism/tracer"
	"github.com/urfave/cli"
	xdraw "golang.org/x/image/draw"
)

// Colors cycled through when filling tiles.
var tilePalette = []color.RGBA{
	{0x4e, 0x79, 0xa7, 0xff},
	{0xf2, 0x8e, 0x2b, 0xff},
	{0xe1, 0x57, 0x59, 0xff},
	{0x76, 0xb7, 0xb2, 0xff},
	{0x59, 0xa1, 0x4f, 0xff},
	{0xed, 0xc9, 0x48, 0xff},
	{0xb0, 0x7a, 0xa1, 0xff},
}

var tileBorder = color.RGBA{0x20, 0x20, 0x20, 0xff}

type tileMapConfig struct {
	Width  int
	Height int

	MaxRenderbufferSize int

	// Number of sweeps to run before capturing the layout.
	Sweeps int

	// Simulated cost per tile pixel and per frame.
	PixelCost     time.Duration
	FrameOverhead time.Duration
}

// Run the tile scheduler for the configured number of sweeps and return the
// tiles of the last one.
func simulateSweeps(cfg tileMapConfig) []tracer.Tile {
	sched := tracer.NewTileScheduler(cfg.MaxRenderbufferSize)
	sched.SetSize(cfg.Width, cfg.Height)

	var (
		tiles   []tracer.Tile
		elapsed time.Duration
	)
	for sweep := 0; sweep < max(1, cfg.Sweeps); {
		tile := sched.NextTile(elapsed)
		if tile.IsFirstTile {
			tiles = tiles[:0]
		}
		tiles = append(tiles, tile)
		elapsed = cfg.FrameOverhead + time.Duration(tile.Width*tile.Height)*cfg.PixelCost

		if tile.IsLastTile {
			sweep++
		}
	}
	return tiles
}

// Render the tiles of a sweep as filled rectangles with a border.
func renderTileMap(w, h int, tiles []tracer.Tile) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, tile := range tiles {
		rect := tile.Rect()
		xdraw.Draw(img, rect, &image.Uniform{tileBorder}, image.Point{}, xdraw.Src)
		xdraw.Draw(img, rect.Inset(1), &image.Uniform{tilePalette[i%len(tilePalette)]}, image.Point{}, xdraw.Src)
	}
	return img
}

func scaleImage(src image.Image, scale float64) image.Image {
	if scale == 1 || scale <= 0 {
		return src
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, max(1, int(float64(b.Dx())*scale)), max(1, int(float64(b.Dy())*scale))))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// Encode img using the format implied by the file extension.
func encodeImage(w io.Writer, path string, img image.Image) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return nativewebp.Encode(w, img, nil)
	case ".png":
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unsupported image format %q", filepath.Ext(path))
	}
}

// Export the tile layout that the scheduler converges to for a frame size.
func ExportTileMap(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg := tileMapConfig{
		Width:               ctx.Int("width"),
		Height:              ctx.Int("height"),
		MaxRenderbufferSize: ctx.Int("max-renderbuffer"),
		Sweeps:              ctx.Int("sweeps"),
		PixelCost:           ctx.Duration("pixel-cost"),
		FrameOverhead:       ctx.Duration("overhead"),
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", cfg.Width, cfg.Height)
	}

	tiles := simulateSweeps(cfg)
	img := scaleImage(renderTileMap(cfg.Width, cfg.Height, tiles), ctx.Float64("scale"))

	out := ctx.String("out")
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = encodeImage(f, out, img); err != nil {
		return err
	}

	logger.Noticef("wrote layout of %d tiles (%dx%d) to %s", len(tiles), tiles[0].Width, tiles[0].Height, out)
	return nil
}
