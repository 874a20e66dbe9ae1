// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data loads labelled image directories and augments images.
//
// A data directory holds one sub-directory per class. NewGenerators splits
// every class 80/20 into training and validation iterators which yield
// batches of [B, H, W, 3] images and one-hot labels:
//
//	gen := data.NewImageGenerator()
//	train, val, err := data.NewGenerators(gen, "flowers", data.DefaultTargetSize, data.DefaultBatchSize)
//	for batch, err := range train.Epoch(ctx) {
//	    ...
//	}
//
// LoadAndDisplay renders a row of images to a file for a quick look.
package data

import (
	"github.com/born-ml/vision/internal/augment"
	"github.com/born-ml/vision/internal/dataset"
	"github.com/born-ml/vision/internal/imageio"
	"github.com/born-ml/vision/internal/random"
	"github.com/born-ml/vision/internal/tensor"
)

// Augmentation.
type (
	AugmentConfig   = augment.Config
	ImageGenerator  = augment.ImageGenerator
	TransformParams = augment.TransformParams
	FillMode        = augment.FillMode
)

// Datasets.
type (
	DirectoryIterator = dataset.DirectoryIterator
	Batch             = dataset.Batch
	Options           = dataset.Options
	Subset            = dataset.Subset
)

// Images.
type (
	Size  = imageio.Size
	Array = imageio.Array
)

// Defaults.
const (
	DefaultBatchSize = dataset.DefaultBatchSize
	ValidationSplit  = augment.ValidationSplit
)

// DefaultTargetSize is 224×224.
var DefaultTargetSize = dataset.DefaultTargetSize

// ErrNoClasses is returned for a data directory without class folders.
var ErrNoClasses = dataset.ErrNoClasses

// SetSeed makes weight initialization, augmentation and dropout
// reproducible.
func SetSeed(seed int64) { random.Seed(seed) }

// DefaultAugmentConfig returns the experiment's augmentation ranges.
func DefaultAugmentConfig() AugmentConfig { return augment.DefaultConfig() }

// NewImageGenerator returns a generator with DefaultAugmentConfig.
func NewImageGenerator() *ImageGenerator { return augment.NewImageGenerator() }

// NewImageGeneratorWith validates cfg and returns a generator for it.
func NewImageGeneratorWith(cfg AugmentConfig) (*ImageGenerator, error) { return augment.New(cfg) }

// NewGenerators builds the training and validation iterators over dir.
func NewGenerators(gen *ImageGenerator, dir string, targetSize Size, batchSize int) (train, val *DirectoryIterator, err error) {
	return dataset.NewGenerators(gen, dir, targetSize, batchSize)
}

// NewSeededGenerators is NewGenerators with a custom training shuffle seed.
func NewSeededGenerators(gen *ImageGenerator, dir string, targetSize Size, batchSize int, seed int64) (train, val *DirectoryIterator, err error) {
	return dataset.NewSeededGenerators(gen, dir, targetSize, batchSize, seed)
}

// FlowFromDirectory builds one iterator over dir.
func FlowFromDirectory(gen *ImageGenerator, dir string, opts Options) (*DirectoryIterator, error) {
	return dataset.FlowFromDirectory(gen, dir, opts)
}

// LoadImage decodes and optionally resizes an image to an HWC array.
func LoadImage(path string, target Size) (*Array, error) {
	img, err := imageio.Load(path, target)
	if err != nil {
		return nil, err
	}
	return imageio.ToArray(img), nil
}

// ImageTensor loads an image as a [H, W, 3] tensor with values 0..255.
func ImageTensor(path string, target Size, backend tensor.Backend) (*tensor.Tensor, error) {
	img, err := imageio.Load(path, target)
	if err != nil {
		return nil, err
	}
	return imageio.ToTensor(img, backend), nil
}

// LoadAndDisplay loads every image and renders them in one row to out.
func LoadAndDisplay(out string, paths, titles []string, target Size) ([]*Array, error) {
	return imageio.LoadAndDisplay(out, paths, titles, target)
}
