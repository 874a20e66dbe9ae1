// Package dataset reads a directory of labelled images (one sub-directory
// per class) and serves augmented, one-hot labelled batches.
//
// Splitting follows the usual held-out convention: within every class the
// files are sorted, the first 20% go to validation and the rest to
// training. The training iterator shuffles with a fixed seed, the
// validation iterator keeps file order.
//
//	gen := augment.NewImageGenerator()
//	train, val, err := dataset.NewGenerators(gen, "data/flowers", dataset.DefaultTargetSize, dataset.DefaultBatchSize)
//	for batch, err := range train.Epoch(ctx) {
//	    ...
//	}
package dataset

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/augment"
	"github.com/born-ml/vision/internal/backend/cpu"
	"github.com/born-ml/vision/internal/imageio"
	"github.com/born-ml/vision/internal/tensor"
)

// Defaults of NewGenerators.
const (
	DefaultBatchSize = 16
	DefaultSeed      = 42
)

// DefaultTargetSize is 224×224.
var DefaultTargetSize = imageio.Size{Height: 224, Width: 224}

// ErrNoClasses is returned when the data directory has no class
// sub-directories.
var ErrNoClasses = errors.New("no class sub-directories found")

// Subset selects a part of the split.
type Subset string

// Subsets.
const (
	All        Subset = ""
	Training   Subset = "training"
	Validation Subset = "validation"
)

// Options configure FlowFromDirectory.
type Options struct {
	TargetSize imageio.Size
	BatchSize  int
	Shuffle    bool
	Seed       int64
	Subset     Subset
	// Split is the validation fraction; it is ignored for the All subset.
	Split   float64
	Backend tensor.Backend
}

// NewGenerators builds the training and validation iterators over dataDir.
// Both draw augmentation from gen; only training shuffles (seed 42).
func NewGenerators(gen *augment.ImageGenerator, dataDir string, targetSize imageio.Size, batchSize int) (train, val *DirectoryIterator, err error) {
	return NewSeededGenerators(gen, dataDir, targetSize, batchSize, DefaultSeed)
}

// NewSeededGenerators is NewGenerators with the training shuffle seeded by
// seed.
func NewSeededGenerators(gen *augment.ImageGenerator, dataDir string, targetSize imageio.Size, batchSize int, seed int64) (train, val *DirectoryIterator, err error) {
	opts := Options{
		TargetSize: targetSize,
		BatchSize:  batchSize,
		Seed:       seed,
		Split:      gen.ValidationSplit(),
	}

	opts.Shuffle, opts.Subset = true, Training
	train, err = FlowFromDirectory(gen, dataDir, opts)
	if err != nil {
		return nil, nil, err
	}

	opts.Shuffle, opts.Subset = false, Validation
	val, err = FlowFromDirectory(gen, dataDir, opts)
	if err != nil {
		return nil, nil, err
	}
	return train, val, nil
}

// FlowFromDirectory lists the images of dir and returns an iterator over
// the requested subset.
func FlowFromDirectory(gen *augment.ImageGenerator, dir string, opts Options) (*DirectoryIterator, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.TargetSize.IsZero() {
		opts.TargetSize = DefaultTargetSize
	}
	if opts.Backend == nil {
		opts.Backend = cpu.New()
	}

	classes, err := ListClasses(dir)
	if err != nil {
		return nil, err
	}

	it := &DirectoryIterator{
		gen:          gen,
		dir:          dir,
		opts:         opts,
		classNames:   classes,
		classIndices: make(map[string]int, len(classes)),
	}
	for i, name := range classes {
		it.classIndices[name] = i
		files, err := listImages(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, f := range splitFiles(files, opts.Subset, opts.Split) {
			rel, err := filepath.Rel(dir, f)
			if err != nil {
				return nil, errors.Wrap(err, "relative image path")
			}
			it.filenames = append(it.filenames, rel)
			it.classes = append(it.classes, i)
		}
	}

	slog.Info("Found images", "images", len(it.filenames), "classes", len(classes), "subset", string(opts.Subset), "dir", dir)
	return it, nil
}

// ListClasses returns the sorted names of the sub-directories of dir.
func ListClasses(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read data directory")
	}
	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			classes = append(classes, e.Name())
		}
	}
	if len(classes) == 0 {
		return nil, errors.Wrap(ErrNoClasses, dir)
	}
	sort.Strings(classes)
	return classes, nil
}

// listImages walks a class directory and returns image files in lexical order.
func listImages(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && imageio.IsImage(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list images in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// splitFiles keeps the validation head [0, ⌊split·n⌋) or the training tail.
func splitFiles(files []string, subset Subset, split float64) []string {
	cut := int(split * float64(len(files)))
	switch subset {
	case Validation:
		return files[:cut]
	case Training:
		return files[cut:]
	default:
		return files
	}
}
