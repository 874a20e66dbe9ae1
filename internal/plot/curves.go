package plot

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"

	"github.com/born-ml/vision/internal/history"
)

// LossCurves plots training and validation loss per epoch.
func LossCurves(path string, h history.History, modelName string) error {
	return curves(path, h, history.Loss, curveLabels{
		title:      "Training and Validation Loss - " + modelName,
		yLabel:     "Cross Entropy Loss",
		train:      fmt.Sprintf("Training loss (%s)", modelName),
		validation: fmt.Sprintf("Validation loss (%s)", modelName),
	})
}

// AccuracyCurves plots training and validation accuracy per epoch.
func AccuracyCurves(path string, h history.History, modelName string) error {
	return curves(path, h, history.Accuracy, curveLabels{
		title:      "Training and Validation Accuracy - " + modelName,
		yLabel:     "Accuracy",
		train:      fmt.Sprintf("Training Accuracy (%s)", modelName),
		validation: fmt.Sprintf("Validation Accuracy (%s)", modelName),
	})
}

type curveLabels struct {
	title, yLabel     string
	train, validation string
}

func curves(path string, h history.History, series string, l curveLabels) error {
	train, val, err := h.Pair(series)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = l.title
	p.X.Label.Text = "Epochs"
	p.Y.Label.Text = l.yLabel
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLines(p, l.train, points(train), l.validation, points(val)); err != nil {
		return errors.Wrap(err, "add curves")
	}
	p.Legend.Top = true
	return save(p, CurveWidth, CurveHeight, path)
}

// points maps a series to (epoch index, value) with epochs counted from 0.
func points(values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v}
	}
	return xys
}
