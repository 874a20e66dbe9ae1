// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package eval evaluates classifiers and renders their figures.
//
//	cm, err := eval.ConfusionMatrix(yTrue, yPred, len(classes))
//	err = eval.PlotConfusionMatrix("plots/cm.png", cm, classes)
//	report, err := eval.ClassificationReport(yTrue, yPred, classes)
//	err = report.WriteTable(os.Stdout)
//
// Training curves are read from a history file (JSON series or a CSV log)
// and drawn with PlotLossCurves / PlotAccuracyCurves. WatchHistory reloads
// the file while training is still writing it.
package eval

import (
	"context"
	"image"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/vision/internal/history"
	"github.com/born-ml/vision/internal/metrics"
	"github.com/born-ml/vision/internal/plot"
	"github.com/born-ml/vision/internal/tensor"
)

// Report is a per-class precision / recall / F1 report.
type Report = metrics.Report

// ReportRow is one line of a Report.
type ReportRow = metrics.Row

// History maps metric names to per-epoch values.
type History = history.History

// ErrMissingSeries is returned when a history lacks a series.
var ErrMissingSeries = history.ErrMissingSeries

// ConfusionMatrix counts (true, predicted) pairs.
func ConfusionMatrix(yTrue, yPred []int, numClasses int) (*mat.Dense, error) {
	return metrics.ConfusionMatrix(yTrue, yPred, numClasses)
}

// Predict returns the argmax class of every row of a [batch, classes]
// model output.
func Predict(probs *tensor.Tensor) ([]int, error) { return metrics.Predict(probs) }

// ClassificationReport computes per-class and averaged metrics.
func ClassificationReport(yTrue, yPred []int, classNames []string) (*Report, error) {
	return metrics.ClassificationReport(yTrue, yPred, classNames)
}

// ReadPredictions loads a y_true,y_pred CSV file.
func ReadPredictions(path string) (yTrue, yPred []int, err error) {
	return metrics.ReadPredictions(path)
}

// LoadHistory reads a JSON or CSV training history.
func LoadHistory(path string) (History, error) { return history.Load(path) }

// WatchHistory calls onChange with every reload of path until ctx ends.
func WatchHistory(ctx context.Context, path string, onChange func(History)) error {
	return history.Watch(ctx, path, onChange)
}

// PlotConfusionMatrix renders cm as an annotated heatmap.
func PlotConfusionMatrix(path string, cm mat.Matrix, classNames []string) error {
	return plot.ConfusionMatrix(path, cm, classNames)
}

// PlotLossCurves renders training and validation loss.
func PlotLossCurves(path string, h History, modelName string) error {
	return plot.LossCurves(path, h, modelName)
}

// PlotAccuracyCurves renders training and validation accuracy.
func PlotAccuracyCurves(path string, h History, modelName string) error {
	return plot.AccuracyCurves(path, h, modelName)
}

// PlotImages renders images side by side with titles.
func PlotImages(path string, images []image.Image, titles []string) error {
	return plot.ImageGrid(path, images, titles)
}
