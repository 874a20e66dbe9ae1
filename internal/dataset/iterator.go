package dataset

import (
	"context"
	"iter"
	"math/rand"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/augment"
	"github.com/born-ml/vision/internal/imageio"
	"github.com/born-ml/vision/internal/parallel"
	"github.com/born-ml/vision/internal/random"
	"github.com/born-ml/vision/internal/tensor"
)

// Batch is one step of images and labels.
type Batch struct {
	Images    *tensor.Tensor // [B, H, W, 3], rescaled by the generator
	Labels    *tensor.Tensor // [B, numClasses] one-hot
	Classes   []int
	Filenames []string
}

// DirectoryIterator serves batches of one subset of a class directory.
//
// An epoch is Len() batches; the last one may be short. With shuffling the
// order is reseeded at the start of each epoch with seed + batches seen.
type DirectoryIterator struct {
	gen  *augment.ImageGenerator
	dir  string
	opts Options

	classNames   []string
	classIndices map[string]int
	filenames    []string
	classes      []int

	indexArray       []int
	batchIndex       int
	totalBatchesSeen int
}

// Samples returns the number of images in the subset.
func (it *DirectoryIterator) Samples() int { return len(it.filenames) }

// NumClasses returns the number of classes (all subsets share them).
func (it *DirectoryIterator) NumClasses() int { return len(it.classNames) }

// ClassNames returns the class names in index order.
func (it *DirectoryIterator) ClassNames() []string { return it.classNames }

// ClassIndices maps class name to index.
func (it *DirectoryIterator) ClassIndices() map[string]int { return it.classIndices }

// Classes returns the class index of every sample in file order.
func (it *DirectoryIterator) Classes() []int { return it.classes }

// Filenames returns the sample paths relative to the data directory.
func (it *DirectoryIterator) Filenames() []string { return it.filenames }

// BatchSize returns the configured batch size.
func (it *DirectoryIterator) BatchSize() int { return it.opts.BatchSize }

// Len returns the number of batches per epoch.
func (it *DirectoryIterator) Len() int {
	return (len(it.filenames) + it.opts.BatchSize - 1) / it.opts.BatchSize
}

// Reset rewinds to the first batch of a new epoch.
func (it *DirectoryIterator) Reset() {
	it.batchIndex = 0
}

func (it *DirectoryIterator) setIndexArray() {
	n := len(it.filenames)
	if it.opts.Shuffle {
		it.indexArray = random.New(it.opts.Seed + int64(it.totalBatchesSeen)).Perm(n)
		return
	}
	it.indexArray = make([]int, n)
	for i := range it.indexArray {
		it.indexArray[i] = i
	}
}

// Next returns the next batch, wrapping around (and reshuffling) at the end
// of an epoch.
func (it *DirectoryIterator) Next() (*Batch, error) {
	if len(it.filenames) == 0 {
		return nil, errors.New("dataset: iterator has no images")
	}
	if it.batchIndex == 0 || it.indexArray == nil {
		it.setIndexArray()
	}
	n := len(it.filenames)
	start := (it.batchIndex * it.opts.BatchSize) % n
	end := min(start+it.opts.BatchSize, n)
	if end < n {
		it.batchIndex++
	} else {
		it.batchIndex = 0
	}
	it.totalBatchesSeen++
	return it.load(it.indexArray[start:end])
}

// Batch returns batch i of the current epoch order.
func (it *DirectoryIterator) Batch(i int) (*Batch, error) {
	if i < 0 || i >= it.Len() {
		return nil, errors.Errorf("dataset: batch %d out of range [0, %d)", i, it.Len())
	}
	if it.indexArray == nil {
		it.setIndexArray()
	}
	start := i * it.opts.BatchSize
	end := min(start+it.opts.BatchSize, len(it.filenames))
	return it.load(it.indexArray[start:end])
}

// Epoch iterates over one full epoch from the first batch. It stops early
// when ctx is done, yielding ctx.Err().
func (it *DirectoryIterator) Epoch(ctx context.Context) iter.Seq2[*Batch, error] {
	return func(yield func(*Batch, error) bool) {
		it.Reset()
		for range it.Len() {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			b, err := it.Next()
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}

// load decodes, augments and stacks the samples at indices. Transform
// parameters are drawn in sample order before the parallel decode so the
// result does not depend on scheduling.
func (it *DirectoryIterator) load(indices []int) (*Batch, error) {
	size := it.opts.TargetSize
	params := make([]augment.TransformParams, len(indices))
	random.With(func(r *rand.Rand) {
		for i := range params {
			params[i] = it.gen.RandomTransformParams(r, size.Height, size.Width)
		}
	})

	pixels := size.Height * size.Width * 3
	images := make([]float32, len(indices)*pixels)
	errs := make([]error, len(indices))

	cfg := parallel.Config{Workers: runtime.NumCPU(), MinChunk: 1}
	parallel.ForRangeWith(cfg, len(indices), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			path := filepath.Join(it.dir, it.filenames[indices[i]])
			img, err := imageio.Load(path, size)
			if err != nil {
				errs[i] = err
				continue
			}
			arr := it.gen.ApplyTransform(imageio.ToArray(img), params[i])
			it.gen.Standardize(arr)
			copy(images[i*pixels:(i+1)*pixels], arr.Pix)
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, errors.Wrap(err, "load batch")
		}
	}

	k := it.NumClasses()
	labels := make([]float32, len(indices)*k)
	b := &Batch{
		Classes:   make([]int, len(indices)),
		Filenames: make([]string, len(indices)),
	}
	for i, idx := range indices {
		b.Classes[i] = it.classes[idx]
		b.Filenames[i] = it.filenames[idx]
		labels[i*k+it.classes[idx]] = 1
	}
	b.Images = tensor.New(images, tensor.Shape{len(indices), size.Height, size.Width, 3}, it.opts.Backend)
	b.Labels = tensor.New(labels, tensor.Shape{len(indices), k}, it.opts.Backend)
	return b, nil
}
