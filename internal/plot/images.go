package plot

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// ImageGrid draws images side by side in one row, each under its title,
// with axes hidden.
func ImageGrid(path string, images []image.Image, titles []string) error {
	if len(images) == 0 {
		return errors.New("no images to draw")
	}
	if len(images) != len(titles) {
		return errors.Errorf("%d images for %d titles", len(images), len(titles))
	}

	plots := make([]*plot.Plot, len(images))
	for i, img := range images {
		b := img.Bounds()
		p := plot.New()
		p.Title.Text = titles[i]
		p.Add(plotter.NewImage(img, 0, 0, float64(b.Dx()), float64(b.Dy())))
		p.HideAxes()
		plots[i] = p
	}
	return saveTiles(plots, GridWidth, GridHeight, path)
}
