package texture

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/achilleasa/prism/asset"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// The tga package registers an empty magic that matches any input, so the
// format is sniffed here instead of through image.Decode. TGA has no
// signature and is the fallback.
var imageDecoders = []struct {
	name   string
	magic  []string
	decode func(io.Reader) (image.Image, error)
}{
	{"png", []string{"\x89PNG\r\n\x1a\n"}, png.Decode},
	{"jpeg", []string{"\xff\xd8"}, jpeg.Decode},
	{"bmp", []string{"BM"}, bmp.Decode},
	{"tiff", []string{"II*\x00", "MM\x00*"}, tiff.Decode},
}

func decodeImage(r io.Reader) (image.Image, string, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(8)
	for _, dec := range imageDecoders {
		for _, magic := range dec.magic {
			if bytes.HasPrefix(head, []byte(magic)) {
				img, err := dec.decode(br)
				return img, dec.name, err
			}
		}
	}

	img, err := tga.Decode(br)
	return img, "tga", err
}

// A texture image and its metadata.
type Texture struct {
	Format Format

	Width  uint32
	Height uint32

	Data []byte
}

// Create a new texture from a Resource. 8-bit images are stored as Luminance8
// or Rgba8 and 16-bit images are converted to Luminance32F or Rgba32F.
func New(res *asset.Resource) (*Texture, error) {
	img, imgFmt, err := decodeImage(res)
	if err != nil {
		return nil, fmt.Errorf("texture: could not decode %s: %s", res.Path(), err.Error())
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("texture: %s image %s has no pixels", imgFmt, res.Path())
	}

	tex := &Texture{
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
	}

	switch src := img.(type) {
	case *image.Gray:
		tex.Format = Luminance8
		tex.Data = make([]byte, 0, b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := src.PixOffset(b.Min.X, y)
			tex.Data = append(tex.Data, src.Pix[off:off+b.Dx()]...)
		}
	case *image.Gray16:
		tex.Format = Luminance32F
		tex.Data = make([]byte, 4*b.Dx()*b.Dy())
		wOffset := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				putFloat(tex.Data[wOffset:], float32(src.Gray16At(x, y).Y)/0xffff)
				wOffset += 4
			}
		}
	case *image.RGBA64, *image.NRGBA64:
		tex.Format = Rgba32F
		tex.Data = make([]byte, 16*b.Dx()*b.Dy())
		wOffset := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				cr, cg, cb, ca := img.At(x, y).RGBA()
				for _, c := range [4]uint32{cr, cg, cb, ca} {
					putFloat(tex.Data[wOffset:], float32(c)/0xffff)
					wOffset += 4
				}
			}
		}
	default:
		// Convert everything else (paletted, ycbcr, nrgba, ...) to rgba
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		tex.Format = Rgba8
		tex.Data = dst.Pix
	}

	return tex, nil
}

// Return a function that opens and decodes the texture at path. The
// returned function is suitable for running on a background goroutine.
func Loader(ctx context.Context, path string) func() (*Texture, error) {
	return func() (*Texture, error) {
		res, err := asset.NewResourceContext(ctx, path, nil)
		if err != nil {
			return nil, err
		}
		defer res.Close()
		return New(res)
	}
}

func putFloat(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}
