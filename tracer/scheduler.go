package tracer

import (
	"math"
	"time"
)

const (
	// Target time for rendering a single tile.
	desiredTileTime = 21 * time.Millisecond

	// Controller gain for pixels-per-tile adjustments. Higher values converge
	// faster but react more to stutters.
	tileAdjustStrength = 5000.0

	// Lower bound for the per tile pixel budget.
	minPixelsPerTile = 8192
)

// The TileScheduler partitions the output frame into a grid of equally sized
// tiles and hands out one tile per call. The tile size is adjusted at the
// start of each sweep using the time spent on the previous sweep.
type TileScheduler struct {
	width  int
	height int

	tileW   int
	tileH   int
	columns int
	rows    int

	numTiles    int
	currentTile int

	pixelsPerTile float64

	// Time accumulated over the tiles of the current sweep.
	sweepElapsed time.Duration
}

// Create a new tile scheduler. The initial pixels per tile budget is
// estimated from the device's max renderbuffer size.
func NewTileScheduler(maxRenderbufferSize int) *TileScheduler {
	s := &TileScheduler{
		currentTile:   -1,
		pixelsPerTile: pixelsPerTileEstimate(maxRenderbufferSize),
	}
	s.calcTileDimensions()
	return s
}

// Set the frame dimensions and restart the sweep.
func (s *TileScheduler) SetSize(w, h int) {
	s.width, s.height = w, h
	s.Reset()
	s.calcTileDimensions()
}

// Restart the sweep; the next tile will be the first tile.
func (s *TileScheduler) Reset() {
	s.currentTile = -1
	s.sweepElapsed = 0
}

// Return the current tile dimensions and grid layout.
func (s *TileScheduler) TileSize() (w, h int) { return s.tileW, s.tileH }

// Return the number of tiles in a sweep.
func (s *TileScheduler) NumTiles() int { return s.numTiles }

// Return the current pixels per tile budget.
func (s *TileScheduler) PixelsPerTile() float64 { return s.pixelsPerTile }

// Yield the next tile. The elapsed argument is the duration of the previous
// frame. Durations reported while a sweep is in progress are accumulated and
// used for adapting the tile size once the sweep completes; the duration
// reported for the first tile after a reset belongs to a frame outside of the
// sweep and is ignored.
func (s *TileScheduler) NextTile(elapsed time.Duration) Tile {
	s.currentTile++
	if s.currentTile > 0 && elapsed > 0 {
		s.sweepElapsed += elapsed
	}

	if s.currentTile >= s.numTiles {
		if s.sweepElapsed > 0 {
			s.updatePixelsPerTile()
			s.calcTileDimensions()
		}
		s.sweepElapsed = 0
		s.currentTile = 0
	}

	col := s.currentTile % s.columns
	row := (s.currentTile / s.columns) % s.rows
	x, y := col*s.tileW, row*s.tileH

	return Tile{
		X:           x,
		Y:           y,
		Width:       min(s.tileW, s.width-x),
		Height:      min(s.tileH, s.height-y),
		IsFirstTile: s.currentTile == 0,
		IsLastTile:  s.currentTile == s.numTiles-1,
	}
}

// Nudge the pixel budget towards the per tile time target. The sqrt keeps
// occasional stutters from causing large swings.
func (s *TileScheduler) updatePixelsPerTile() {
	msPerTile := toMillis(s.sweepElapsed) / float64(s.numTiles)
	err := toMillis(desiredTileTime) - msPerTile

	sign := 1.0
	if err < 0 {
		sign = -1.0
	}
	s.pixelsPerTile += tileAdjustStrength * sign * math.Sqrt(math.Abs(err))
	s.pixelsPerTile = math.Max(minPixelsPerTile, s.pixelsPerTile)
}

// Quantize the tile width so that the columns evenly divide the frame width.
func (s *TileScheduler) calcTileDimensions() {
	if s.width <= 0 || s.height <= 0 {
		s.tileW, s.tileH, s.columns, s.rows, s.numTiles = 0, 0, 1, 1, 1
		return
	}

	aspect := float64(s.width) / float64(s.height)
	columns := math.Max(1, math.Round(float64(s.width)/math.Sqrt(s.pixelsPerTile*aspect)))

	s.tileW = max(1, int(math.Ceil(float64(s.width)/columns)))
	s.tileH = max(1, int(math.Ceil(float64(s.tileW)/aspect)))
	s.columns = ceilDiv(s.width, s.tileW)
	s.rows = ceilDiv(s.height, s.tileH)
	s.numTiles = s.columns * s.rows
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
