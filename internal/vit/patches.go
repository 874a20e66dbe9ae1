// Package vit builds a vision transformer image classifier: images are cut
// into patches, projected and position-encoded, passed through a stack of
// pre-norm encoder blocks and classified by an MLP head.
package vit

import (
	"github.com/born-ml/vision/internal/nn"
	"github.com/born-ml/vision/internal/tensor"
)

// Patches cuts [B, H, W, C] images into non-overlapping square patches,
// producing [B, (H/p)·(W/p), p·p·C]. Rows and columns that do not fill a
// whole patch are dropped.
type Patches struct {
	nn.Base
	size int
}

// NewPatches creates a patch extraction layer.
func NewPatches(size int) *Patches {
	if size <= 0 {
		tensor.Panicf("NewPatches", "patch size must be positive, got %d", size)
	}
	return &Patches{Base: nn.NewBase("patches"), size: size}
}

// PatchSize returns the patch side length.
func (p *Patches) PatchSize() int { return p.size }

// Forward extracts the patches.
func (p *Patches) Forward(images *tensor.Tensor) *tensor.Tensor {
	return images.ExtractPatches(p.size)
}

// Parameters returns nil.
func (p *Patches) Parameters() []*nn.Parameter { return nil }

// ClassName returns "Patches".
func (p *Patches) ClassName() string { return "Patches" }

// Config exports the layer configuration.
func (p *Patches) Config() map[string]any {
	return p.BaseConfig(map[string]any{"patch_size": p.size})
}

// PatchEncoder projects each patch to ProjectionDim and adds a learned
// embedding of its position 0..NumPatches-1.
type PatchEncoder struct {
	nn.Base
	Projection        *nn.Linear
	PositionEmbedding *nn.Embedding
	numPatches        int
	positions         []int
}

// NewPatchEncoder creates an encoder for patch vectors of length patchDim.
func NewPatchEncoder(numPatches, patchDim, projectionDim int, backend tensor.Backend) *PatchEncoder {
	positions := make([]int, numPatches)
	for i := range positions {
		positions[i] = i
	}
	return &PatchEncoder{
		Base:              nn.NewBase("patch_encoder"),
		Projection:        nn.NewLinear(patchDim, projectionDim, backend),
		PositionEmbedding: nn.NewEmbedding(numPatches, projectionDim, backend),
		numPatches:        numPatches,
		positions:         positions,
	}
}

// NumPatches returns the expected sequence length.
func (e *PatchEncoder) NumPatches() int { return e.numPatches }

// Forward maps [B, N, patchDim] to [B, N, projectionDim]. N must equal
// NumPatches.
func (e *PatchEncoder) Forward(patches *tensor.Tensor) *tensor.Tensor {
	s := patches.Shape()
	if len(s) != 3 || s[1] != e.numPatches {
		tensor.Panicf("PatchEncoder.Forward", "expected [batch, %d, features] patches, got %v", e.numPatches, s)
	}
	projected := e.Projection.Forward(patches)
	return projected.Add(e.PositionEmbedding.Forward(e.positions))
}

// Parameters returns the projection and position embedding parameters.
func (e *PatchEncoder) Parameters() []*nn.Parameter {
	return append(e.Projection.Parameters(), e.PositionEmbedding.Parameters()...)
}

// SubLayers returns the projection and the position embedding.
func (e *PatchEncoder) SubLayers() []nn.Layer {
	return []nn.Layer{e.Projection, e.PositionEmbedding}
}

// ClassName returns "PatchEncoder".
func (e *PatchEncoder) ClassName() string { return "PatchEncoder" }

// Config exports the layer configuration.
func (e *PatchEncoder) Config() map[string]any {
	return e.BaseConfig(map[string]any{
		"num_patches":    e.numPatches,
		"projection_dim": e.Projection.OutFeatures(),
	})
}
