package texture

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/achilleasa/prism/asset"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func TestRgba8Texture(t *testing.T) {
	imgRes, err := mockImage(t, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if err != nil {
		t.Fatal(err)
	}
	defer imgRes.Close()

	tex, err := New(imgRes)
	if err != nil {
		t.Fatal(err)
	}

	if tex.Width != 1 || tex.Height != 1 {
		t.Fatalf("expected tex dims to be 1x1; got %dx%d", tex.Width, tex.Height)
	}

	if tex.Format != Rgba8 {
		t.Fatalf("expected tex format to be %d; got %d", Rgba8, tex.Format)
	}

	expLen := 4
	if len(tex.Data) != expLen {
		t.Fatalf("expected tex data len to be %d; got %d", expLen, len(tex.Data))
	}
}

func TestRgb32Texture(t *testing.T) {
	src := image.NewRGBA64(image.Rect(0, 0, 1, 1))
	src.SetRGBA64(0, 0, color.RGBA64{R: 0xffff, A: 0xffff})
	imgRes, err := mockImage(t, src)
	if err != nil {
		t.Fatal(err)
	}
	defer imgRes.Close()

	tex, err := New(imgRes)
	if err != nil {
		t.Fatal(err)
	}

	if tex.Format != Rgba32F {
		t.Fatalf("expected tex format to be %d; got %d", Rgba32F, tex.Format)
	}

	expLen := 4 * 4
	if len(tex.Data) != expLen {
		t.Fatalf("expected tex data len to be %d; got %d", expLen, len(tex.Data))
	}

	red := math.Float32frombits(binary.LittleEndian.Uint32(tex.Data[0:]))
	green := math.Float32frombits(binary.LittleEndian.Uint32(tex.Data[4:]))
	if red != 1.0 || green != 0.0 {
		t.Fatalf("expected texel (r, g) to be (1, 0); got (%f, %f)", red, green)
	}
}

func TestLuminanceTexture(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	src.SetGray(2, 1, color.Gray{Y: 200})
	imgRes, err := mockImage(t, src)
	if err != nil {
		t.Fatal(err)
	}
	defer imgRes.Close()

	tex, err := New(imgRes)
	if err != nil {
		t.Fatal(err)
	}

	if tex.Format != Luminance8 {
		t.Fatalf("expected tex format to be %d; got %d", Luminance8, tex.Format)
	}
	if len(tex.Data) != 6 {
		t.Fatalf("expected tex data len to be 6; got %d", len(tex.Data))
	}
	if tex.Data[5] != 200 {
		t.Fatalf("expected last texel to be 200; got %d", tex.Data[5])
	}
}

func TestBmpTexture(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	tex, err := New(asset.NewResourceFromStream("noise.bmp", &buf))
	if err != nil {
		t.Fatal(err)
	}
	if tex.Format != Rgba8 || len(tex.Data) != 16 {
		t.Fatalf("expected a 2x2 rgba8 texture; got %s with %d bytes", tex.Format, len(tex.Data))
	}
}

func TestTgaTexture(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 0xff
	}
	src.SetNRGBA(0, 0, color.NRGBA{R: 0xff, A: 0xff})

	var buf bytes.Buffer
	if err := tga.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	tex, err := New(asset.NewResourceFromStream("noise.tga", &buf))
	if err != nil {
		t.Fatal(err)
	}
	if tex.Format != Rgba8 || len(tex.Data) != 16 {
		t.Fatalf("expected a 2x2 rgba8 texture; got %s with %d bytes", tex.Format, len(tex.Data))
	}
	if tex.Data[0] != 0xff || tex.Data[1] != 0 || tex.Data[4] != 0 {
		t.Fatalf("expected only the first texel to be red; got %v", tex.Data[:8])
	}
}

func TestDecodeImageFormats(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}

	specs := []struct {
		expFormat string
		encode    func(io.Writer, image.Image) error
	}{
		{"png", png.Encode},
		{"jpeg", func(w io.Writer, img image.Image) error { return jpeg.Encode(w, img, nil) }},
		{"bmp", bmp.Encode},
		{"tiff", func(w io.Writer, img image.Image) error { return tiff.Encode(w, img, nil) }},
		{"tga", tga.Encode},
	}

	for specIndex, spec := range specs {
		var buf bytes.Buffer
		if err := spec.encode(&buf, src); err != nil {
			t.Errorf("[spec %d] encode failed: %v", specIndex, err)
			continue
		}

		img, format, err := decodeImage(&buf)
		if err != nil {
			t.Errorf("[spec %d] expected %s image to decode; got %v", specIndex, spec.expFormat, err)
			continue
		}
		if format != spec.expFormat {
			t.Errorf("[spec %d] expected format %s; got %s", specIndex, spec.expFormat, format)
		}
		if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
			t.Errorf("[spec %d] expected a 4x4 image; got %dx%d", specIndex, b.Dx(), b.Dy())
		}
	}
}

func TestInvalidTexture(t *testing.T) {
	_, err := New(asset.NewResourceFromStream("garbage.png", bytes.NewReader([]byte("not an image"))))
	if err == nil {
		t.Fatal("expected an error decoding garbage data")
	}
}

func TestStreamHttpTexture(t *testing.T) {
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/texture.png" {
			png.Encode(w, image.NewRGBA64(image.Rect(0, 0, 1, 1)))
		} else {
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	tex, err := Loader(context.Background(), server.URL+"/texture.png")()
	if err != nil {
		t.Fatal(err)
	}

	if tex.Width != 1 || tex.Height != 1 {
		t.Fatalf("expected tex dims to be 1x1; got %dx%d", tex.Width, tex.Height)
	}

	if tex.Format != Rgba32F {
		t.Fatalf("expected tex format to be %d; got %d", Rgba32F, tex.Format)
	}

	if _, err = Loader(context.Background(), server.URL+"/missing.png")(); err == nil {
		t.Fatal("expected an error loading a missing texture")
	}
}

func TestNoise(t *testing.T) {
	a, err := NewNoise(8, 4, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NoiseLoader(8, 4, 42)()
	if err != nil {
		t.Fatal(err)
	}

	if a.Format != Rgba8 || len(a.Data) != 8*4*4 {
		t.Fatalf("expected an 8x4 rgba8 texture; got %s with %d bytes", a.Format, len(a.Data))
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Fatal("expected noise textures with the same seed to match")
	}

	if _, err = NewNoise(0, 4, 42); err == nil {
		t.Fatal("expected an error for zero width noise")
	}
}

func mockImage(t *testing.T, img image.Image) (*asset.Resource, error) {
	imgFile := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(imgFile)
	if err != nil {
		return nil, err
	}

	err = png.Encode(f, img)
	f.Close()
	if err != nil {
		return nil, err
	}

	return asset.NewResource(imgFile, nil)
}
