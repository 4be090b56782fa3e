package texture

import (
	"fmt"
	"math/rand"
)

// Generate an Rgba8 white noise texture. Each channel holds an independent
// uniformly distributed value; the same seed always yields the same texture.
func NewNoise(width, height int, seed int64) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("texture: invalid noise dimensions %dx%d", width, height)
	}

	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, 4*width*height)
	rng.Read(data)

	return &Texture{
		Format: Rgba8,
		Width:  uint32(width),
		Height: uint32(height),
		Data:   data,
	}, nil
}

// Return a loader that generates a noise texture.
func NoiseLoader(width, height int, seed int64) func() (*Texture, error) {
	return func() (*Texture, error) {
		return NewNoise(width, height, seed)
	}
}
