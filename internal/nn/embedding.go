package nn

import (
	"fmt"

	"github.com/born-ml/vision/internal/tensor"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// The vision transformer uses it for learned position embeddings: indices
// 0..numPatches-1 select one row per patch.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim]
//   - Forward: indices -> embeddings [len(indices), EmbedDim]
//
// Example:
//
//	pos := nn.NewEmbedding(196, 64, backend)
//	table := pos.Forward([]int{0, 1, 2}) // [3, 64]
type Embedding struct {
	Base
	Weight   *Parameter // [NumEmbed, EmbedDim]
	NumEmbed int
	EmbedDim int
}

// NewEmbedding creates a new Embedding layer.
//
// Weights are drawn from U(-0.05, 0.05), the Keras default for embeddings.
func NewEmbedding(numEmbeddings, embeddingDim int, backend tensor.Backend) *Embedding {
	if numEmbeddings <= 0 || embeddingDim <= 0 {
		panic(fmt.Sprintf("embedding: invalid size %dx%d", numEmbeddings, embeddingDim))
	}
	weight := RandomUniform(tensor.Shape{numEmbeddings, embeddingDim}, 0.05, backend)
	return &Embedding{
		Base:     newBase("embedding"),
		Weight:   NewParameter("embeddings", weight),
		NumEmbed: numEmbeddings,
		EmbedDim: embeddingDim,
	}
}

// Forward looks up the rows for indices. Out-of-range indices panic.
func (e *Embedding) Forward(indices []int) *tensor.Tensor {
	for _, idx := range indices {
		if idx < 0 || idx >= e.NumEmbed {
			tensor.Panicf("Embedding.Forward", "index %d out of range [0, %d)", idx, e.NumEmbed)
		}
	}
	return e.Weight.Tensor().Gather(indices)
}

// Parameters returns [embeddings].
func (e *Embedding) Parameters() []*Parameter {
	return []*Parameter{e.Weight}
}

// ClassName returns "Embedding".
func (e *Embedding) ClassName() string { return "Embedding" }

// Config exports the layer configuration.
func (e *Embedding) Config() map[string]any {
	return e.config(map[string]any{
		"input_dim":  e.NumEmbed,
		"output_dim": e.EmbedDim,
	})
}
