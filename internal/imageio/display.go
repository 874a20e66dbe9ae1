package imageio

import (
	"image"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/plot"
)

// LoadAndDisplay loads every image in paths (resized to target unless it
// is zero) and renders them in one row to out, each under its title. The
// loaded arrays are returned in order.
func LoadAndDisplay(out string, paths, titles []string, target Size) ([]*Array, error) {
	if len(paths) != len(titles) {
		return nil, errors.Errorf("%d images for %d titles", len(paths), len(titles))
	}

	arrays := make([]*Array, len(paths))
	images := make([]image.Image, len(paths))
	for i, path := range paths {
		img, err := Load(path, target)
		if err != nil {
			return nil, err
		}
		arrays[i] = ToArray(img)
		images[i] = img

		slog.Info("Image loaded",
			"title", titles[i],
			"path", path,
			"shape", []int{arrays[i].Height, arrays[i].Width, arrays[i].Channels})
	}

	if err := plot.ImageGrid(out, images, titles); err != nil {
		return nil, err
	}
	return arrays, nil
}
