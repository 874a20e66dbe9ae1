package nn

import (
	"math"

	"github.com/born-ml/vision/internal/tensor"
)

// ScaledDotProductAttention computes attention weights and output.
//
// Formula:
//
//	Attention(Q, K, V) = softmax(Q @ K^T / sqrt(d_k)) @ V
//
// Parameters:
//   - query: [batch, heads, seq_q, head_dim]
//   - key: [batch, heads, seq_k, head_dim]
//   - value: [batch, heads, seq_k, head_dim]
//   - scale: Scale factor (0 means 1/sqrt(head_dim))
//   - onWeights: Optional transform of the softmax weights applied before
//     they multiply value (attention dropout); nil keeps them unchanged
//
// Returns:
//   - output: [batch, heads, seq_q, head_dim]
//   - weights: [batch, heads, seq_q, seq_k], after onWeights
func ScaledDotProductAttention(query, key, value *tensor.Tensor, scale float32, onWeights func(*tensor.Tensor) *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor) {
	qs, ks, vs := query.Shape(), key.Shape(), value.Shape()
	if len(qs) != 4 || len(ks) != 4 || len(vs) != 4 {
		tensor.Panicf("ScaledDotProductAttention", "expected 4D tensors, got %v %v %v", qs, ks, vs)
	}
	if qs[3] != ks[3] || !ks.Equal(vs) {
		tensor.Panicf("ScaledDotProductAttention", "incompatible shapes q=%v k=%v v=%v", qs, ks, vs)
	}

	if scale == 0 {
		scale = attentionScale(qs[3])
	}

	scores := query.BatchMatMul(key.Transpose()).MulScalar(scale)
	weights := scores.Softmax(-1)
	if onWeights != nil {
		weights = onWeights(weights)
	}
	return weights.BatchMatMul(value), weights
}

func attentionScale(headDim int) float32 {
	return float32(1.0 / math.Sqrt(float64(headDim)))
}
