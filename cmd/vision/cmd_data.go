package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/augment"
	"github.com/born-ml/vision/internal/config"
	"github.com/born-ml/vision/internal/dataset"
	"github.com/born-ml/vision/internal/imageio"
	"github.com/born-ml/vision/internal/plot"
)

// plotPath places a figure in the configured plots directory.
func plotPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.Plots.Dir, name+"."+cfg.Plots.Format)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func runSplit(_ context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	dir := fs.String("data", cfg.Data.Dir, "Data directory with one sub-directory per class")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gen, err := augment.New(cfg.Augment)
	if err != nil {
		return err
	}
	train, val, err := dataset.NewSeededGenerators(gen, *dir, cfg.Data.TargetSize, cfg.Data.BatchSize, cfg.Data.Seed)
	if err != nil {
		return err
	}

	fmt.Printf("%-16s %8s %8s\n", "class", "train", "val")
	trainCounts, valCounts := countClasses(train), countClasses(val)
	for i, name := range train.ClassNames() {
		fmt.Printf("%-16s %8d %8d\n", name, trainCounts[i], valCounts[i])
	}
	fmt.Printf("%-16s %8d %8d\n", "total", train.Samples(), val.Samples())
	fmt.Printf("batches per epoch: %d train, %d val\n", train.Len(), val.Len())
	return nil
}

func countClasses(it *dataset.DirectoryIterator) []int {
	counts := make([]int, it.NumClasses())
	for _, c := range it.Classes() {
		counts[c]++
	}
	return counts
}

func runAugment(_ context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("augment", flag.ExitOnError)
	src := fs.String("image", "", "Image to augment (required)")
	n := fs.Int("n", 4, "Number of augmented copies")
	out := fs.String("out", plotPath(cfg, "augmented"), "Output figure")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *src == "" {
		return errors.New("-image is required")
	}

	gen, err := augment.New(cfg.Augment)
	if err != nil {
		return err
	}
	img, err := imageio.Load(*src, cfg.Data.TargetSize)
	if err != nil {
		return err
	}

	original := imageio.ToArray(img)
	images := []image.Image{img}
	titles := []string{"original"}
	for i := range *n {
		aug, err := imageio.FromArray(gen.RandomTransform(original), 1)
		if err != nil {
			return err
		}
		images = append(images, aug)
		titles = append(titles, fmt.Sprintf("augmented %d", i+1))
	}

	if err := plot.ImageGrid(*out, images, titles); err != nil {
		return err
	}
	slog.Info("Augmentations written", "path", *out, "count", *n)
	return nil
}

func runInspect(_ context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	titles := fs.String("titles", "", "Comma separated titles (default file names)")
	out := fs.String("out", plotPath(cfg, "images"), "Output figure")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("no images given")
	}

	names := splitList(*titles)
	if names == nil {
		for _, p := range paths {
			names = append(names, filepath.Base(p))
		}
	}

	_, err := imageio.LoadAndDisplay(*out, paths, names, cfg.Data.TargetSize)
	return err
}
