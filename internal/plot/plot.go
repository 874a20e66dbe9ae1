// Package plot renders evaluation figures (confusion matrices, training
// curves and image grids) to image files with gonum/plot. The output
// format follows the file extension: png, jpg, svg, pdf, eps or tif.
package plot

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Figure sizes.
var (
	CurveWidth   = 10 * vg.Inch
	CurveHeight  = 6 * vg.Inch
	MatrixWidth  = 10 * vg.Inch
	MatrixHeight = 5 * vg.Inch
	GridWidth    = 15 * vg.Inch
	GridHeight   = 5 * vg.Inch
)

func format(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	return nil
}

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return errors.Wrapf(p.Save(w, h, path), "save %s", path)
}

// saveTiles draws one row of plots on a single canvas.
func saveTiles(plots []*plot.Plot, w, h vg.Length, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	c, err := draw.NewFormattedCanvas(w, h, format(path))
	if err != nil {
		return errors.Wrapf(err, "canvas for %s", path)
	}

	tiles := draw.Tiles{Rows: 1, Cols: len(plots), PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Millimeter, PadBottom: vg.Millimeter, PadLeft: vg.Millimeter, PadRight: vg.Millimeter}
	canvases := plot.Align([][]*plot.Plot{plots}, tiles, draw.New(c))
	for i, p := range plots {
		p.Draw(canvases[0][i])
	}

	//nolint:gosec // G304: path is provided by the user
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create figure")
	}
	if _, err := c.WriteTo(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrap(f.Close(), "close figure")
}
