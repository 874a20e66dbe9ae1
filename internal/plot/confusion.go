package plot

import (
	"fmt"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
)

// reds is a sequential white-to-dark-red palette.
type reds []color.Color

func (r reds) Colors() []color.Color { return r }

func newReds(n int) reds {
	p := make(reds, n)
	for i := range p {
		t := float64(i) / float64(max(n-1, 1))
		p[i] = color.RGBA{
			R: uint8(255 - 152*t),
			G: uint8(245 - 245*t),
			B: uint8(240 - 227*t),
			A: 255,
		}
	}
	return p
}

// matrixGrid adapts a square matrix to plotter.GridXYZ with row 0 drawn
// at the top.
type matrixGrid struct{ m mat.Matrix }

func (g matrixGrid) Dims() (c, r int) { r, c = g.m.Dims(); return c, r }

func (g matrixGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

// ConfusionMatrix draws cm as an annotated heatmap: rows are true labels,
// columns predicted labels.
func ConfusionMatrix(path string, cm mat.Matrix, classNames []string) error {
	rows, cols := cm.Dims()
	if rows != cols || rows != len(classNames) {
		return errors.Errorf("confusion matrix is %dx%d for %d class names", rows, cols, len(classNames))
	}
	if rows == 0 {
		return errors.New("empty confusion matrix")
	}

	p := plot.New()
	p.Title.Text = "Confusion Matrix"
	p.X.Label.Text = "Predicted labels"
	p.Y.Label.Text = "True labels"

	hm := plotter.NewHeatMap(matrixGrid{cm}, newReds(64))
	if hm.Min == hm.Max {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	labels := plotter.XYLabels{}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			labels.XYs = append(labels.XYs, plotter.XY{X: float64(c), Y: float64(rows - 1 - r)})
			labels.Labels = append(labels.Labels, formatCount(cm.At(r, c)))
		}
	}
	annotations, err := plotter.NewLabels(labels)
	if err != nil {
		return errors.Wrap(err, "annotate confusion matrix")
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = text.XCenter
		annotations.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(annotations)

	xTicks := make([]plot.Tick, cols)
	yTicks := make([]plot.Tick, rows)
	for i, name := range classNames {
		xTicks[i] = plot.Tick{Value: float64(i), Label: name}
		yTicks[i] = plot.Tick{Value: float64(rows - 1 - i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.Y.Tick.Label.Rotation = math.Pi / 4
	p.Y.Tick.Label.YAlign = text.YTop

	return save(p, MatrixWidth, MatrixHeight, path)
}

func formatCount(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
