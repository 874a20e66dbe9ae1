package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/config"
	"github.com/born-ml/vision/internal/dataset"
	"github.com/born-ml/vision/internal/history"
	"github.com/born-ml/vision/internal/metrics"
	"github.com/born-ml/vision/internal/plot"
)

// evalFlags are shared by the commands reading a predictions file.
type evalFlags struct {
	predictions *string
	classes     *string
	data        *string
}

func addEvalFlags(fs *flag.FlagSet, cfg *config.Config) evalFlags {
	return evalFlags{
		predictions: fs.String("predictions", "", "CSV file of y_true,y_pred rows (required)"),
		classes:     fs.String("classes", "", "Comma separated class names (default: sub-directories of -data)"),
		data:        fs.String("data", cfg.Data.Dir, "Data directory used to name the classes"),
	}
}

func (f evalFlags) load() (yTrue, yPred []int, classes []string, err error) {
	if *f.predictions == "" {
		return nil, nil, nil, errors.New("-predictions is required")
	}
	yTrue, yPred, err = metrics.ReadPredictions(*f.predictions)
	if err != nil {
		return nil, nil, nil, err
	}

	classes = splitList(*f.classes)
	if classes == nil {
		classes, err = dataset.ListClasses(*f.data)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "class names")
		}
	}
	return yTrue, yPred, classes, nil
}

func runConfusion(_ context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("confusion", flag.ExitOnError)
	ef := addEvalFlags(fs, cfg)
	out := fs.String("out", plotPath(cfg, "confusion_matrix"), "Output figure")
	if err := fs.Parse(args); err != nil {
		return err
	}

	yTrue, yPred, classes, err := ef.load()
	if err != nil {
		return err
	}
	cm, err := metrics.ConfusionMatrix(yTrue, yPred, len(classes))
	if err != nil {
		return err
	}
	if err := plot.ConfusionMatrix(*out, cm, classes); err != nil {
		return err
	}
	slog.Info("Confusion matrix written", "path", *out, "accuracy", metrics.Accuracy(cm))
	return nil
}

func runReport(_ context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	ef := addEvalFlags(fs, cfg)
	csvOut := fs.String("csv", "", "Also write the report as CSV to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	yTrue, yPred, classes, err := ef.load()
	if err != nil {
		return err
	}
	report, err := metrics.ClassificationReport(yTrue, yPred, classes)
	if err != nil {
		return err
	}
	if err := report.WriteTable(os.Stdout); err != nil {
		return err
	}

	if *csvOut == "" {
		return nil
	}
	f, err := os.Create(*csvOut)
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	if err := report.WriteCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "close report file")
}

func runCurves(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("curves", flag.ExitOnError)
	path := fs.String("history", "", "Training history, JSON or CSV log (required)")
	name := fs.String("name", cfg.Plots.ModelName, "Model name used in titles and legends")
	watch := fs.Bool("watch", false, "Redraw whenever the history file changes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("-history is required")
	}

	lossOut, accOut := plotPath(cfg, "loss_curves"), plotPath(cfg, "accuracy_curves")
	render := func(h history.History) error {
		if err := plot.LossCurves(lossOut, h, *name); err != nil {
			return err
		}
		if err := plot.AccuracyCurves(accOut, h, *name); err != nil {
			return err
		}
		slog.Info("Curves written", "loss", lossOut, "accuracy", accOut, "epochs", h.Epochs())
		return nil
	}

	if !*watch {
		h, err := history.Load(*path)
		if err != nil {
			return err
		}
		return render(h)
	}

	fmt.Printf("watching %s, press Ctrl+C to stop\n", *path)
	return history.Watch(ctx, *path, func(h history.History) {
		if err := render(h); err != nil {
			slog.Warn("Failed to render curves", "error", err)
		}
	})
}
