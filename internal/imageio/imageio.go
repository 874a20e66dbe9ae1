// Package imageio loads images from disk and converts them to and from
// float32 arrays and tensors.
//
// Decoding supports JPEG, PNG and GIF from the standard library plus BMP,
// TIFF and WebP from golang.org/x/image. Every image is converted to RGB
// (alpha dropped) and resized with nearest-neighbour interpolation, which
// matches how the dataset iterators and inspection tools see pixels.
package imageio

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Extensions lists the file extensions treated as images (lower case).
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// IsImage reports whether path has one of Extensions (case-insensitive).
func IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Size is a target image size. The zero Size keeps the original size.
type Size struct {
	Height int `yaml:"height" json:"height"`
	Width  int `yaml:"width"  json:"width"`
}

// IsZero reports whether s requests no resizing.
func (s Size) IsZero() bool {
	return s.Height == 0 && s.Width == 0
}

// Decode reads an image and returns it as *image.RGBA with opaque alpha.
func Decode(r io.Reader) (*image.RGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", errors.Wrap(err, "decode image")
	}
	return toRGB(img), format, nil
}

// Load decodes the image at path and resizes it to target unless target is
// zero. Resizing uses nearest-neighbour interpolation.
func Load(path string, target Size) (*image.RGBA, error) {
	//nolint:gosec // G304: path is provided by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return Resize(img, target), nil
}

// Resize scales img to target with nearest-neighbour interpolation.
func Resize(img *image.RGBA, target Size) *image.RGBA {
	b := img.Bounds()
	if target.IsZero() || (b.Dx() == target.Width && b.Dy() == target.Height) {
		return img
	}
	resized := resize.Resize(uint(target.Width), uint(target.Height), img, resize.NearestNeighbor) //nolint:gosec // sizes are positive
	return toRGB(resized)
}

func toRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
