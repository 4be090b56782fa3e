package cmd

import (
	"bytes"
	"image/png"
	"testing"
	"time"
)

func TestSimulateSweepsCoversFrame(t *testing.T) {
	specs := []tileMapConfig{
		{Width: 800, Height: 600, MaxRenderbufferSize: 8192, Sweeps: 1},
		{Width: 1920, Height: 1080, MaxRenderbufferSize: 16384, Sweeps: 5, PixelCost: 50 * time.Nanosecond, FrameOverhead: time.Millisecond},
		{Width: 333, Height: 97, MaxRenderbufferSize: 8192, Sweeps: 3, PixelCost: time.Microsecond},
	}

	for specIndex, spec := range specs {
		tiles := simulateSweeps(spec)
		if len(tiles) == 0 {
			t.Errorf("[spec %d] expected tiles", specIndex)
			continue
		}
		if !tiles[0].IsFirstTile || !tiles[len(tiles)-1].IsLastTile {
			t.Errorf("[spec %d] expected a complete sweep; got first=%v last=%v", specIndex, tiles[0], tiles[len(tiles)-1])
		}

		area := 0
		for _, tile := range tiles {
			area += tile.Width * tile.Height
		}
		if exp := spec.Width * spec.Height; area != exp {
			t.Errorf("[spec %d] expected tiles to cover %d pixels; got %d", specIndex, exp, area)
		}
	}
}

func TestSimulateSweepsAdapts(t *testing.T) {
	cfg := tileMapConfig{Width: 1920, Height: 1080, MaxRenderbufferSize: 8192, Sweeps: 1, PixelCost: time.Microsecond}
	initial := len(simulateSweeps(cfg))

	// Tiles run far over budget so the scheduler shrinks them
	cfg.Sweeps = 10
	adapted := len(simulateSweeps(cfg))
	if adapted <= initial {
		t.Fatalf("expected more than %d tiles after adapting; got %d", initial, adapted)
	}
}

func TestRenderTileMap(t *testing.T) {
	cfg := tileMapConfig{Width: 800, Height: 600, MaxRenderbufferSize: 8192, Sweeps: 1}
	tiles := simulateSweeps(cfg)
	img := renderTileMap(cfg.Width, cfg.Height, tiles)

	for i, tile := range tiles {
		if got := img.RGBAAt(tile.X, tile.Y); got != tileBorder {
			t.Errorf("expected border at tile %d origin; got %v", i, got)
		}
		exp := tilePalette[i%len(tilePalette)]
		if got := img.RGBAAt(tile.X+tile.Width/2, tile.Y+tile.Height/2); got != exp {
			t.Errorf("expected tile %d center to be %v; got %v", i, exp, got)
		}
	}

	scaled := scaleImage(img, 0.25)
	if b := scaled.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Fatalf("expected scaled image to be 200x150; got %dx%d", b.Dx(), b.Dy())
	}
	if scaleImage(img, 1) != img {
		t.Fatal("expected unscaled image to be returned as is")
	}
}

func TestEncodeImage(t *testing.T) {
	img := renderTileMap(64, 48, simulateSweeps(tileMapConfig{Width: 64, Height: 48, MaxRenderbufferSize: 8192, Sweeps: 1}))

	var buf bytes.Buffer
	if err := encodeImage(&buf, "layout.webp", img); err != nil {
		t.Fatal(err)
	}
	if data := buf.Bytes(); len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Fatal("expected a RIFF/WEBP stream")
	}

	buf.Reset()
	if err := encodeImage(&buf, "layout.PNG", img); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := decoded.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Fatalf("expected decoded image to be 64x48; got %dx%d", b.Dx(), b.Dy())
	}

	if err := encodeImage(&buf, "layout.gif", img); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestEstimateSchedule(t *testing.T) {
	est := estimateSchedule(8192, 800, 600)
	if est.TileW != 400 || est.TileH != 300 || est.NumTiles != 4 {
		t.Fatalf("expected 4 tiles of 400x300; got %d tiles of %dx%d", est.NumTiles, est.TileW, est.TileH)
	}
	if est.PreviewW != 327 || est.PreviewH != 245 {
		t.Fatalf("expected preview size 327x245; got %dx%d", est.PreviewW, est.PreviewH)
	}

	var buf bytes.Buffer
	writeEstimates(&buf, 8192)
	if !bytes.Contains(buf.Bytes(), []byte("1920x1080")) {
		t.Fatalf("expected estimate table to list 1920x1080; got\n%s", buf.String())
	}
}
