package nn

import (
	"fmt"

	"github.com/born-ml/vision/internal/tensor"
)

// MultiHeadAttention implements Keras-style multi-head self/cross attention.
//
// Architecture:
//
//	MHA(Q, K, V) = Concat(head_1, ..., head_h) * W_O
//	head_i = SDPA(Q*W_Q_i, K*W_K_i, V*W_V_i)
//
// Unlike the classic formulation, the per-head size is an explicit keyDim
// rather than embedDim / numHeads: projections map embedDim -> numHeads*keyDim
// and the output projection maps back to embedDim. The vision transformer
// uses 4 heads with keyDim equal to the projection dimension.
//
// Example:
//
//	mha := nn.NewMultiHeadAttention(64, 4, 64, 0.1, backend)
//	output := mha.Forward(x, x) // self-attention, [B, 196, 64]
type MultiHeadAttention struct {
	Base
	WQ       *Linear
	WK       *Linear
	WV       *Linear
	WO       *Linear
	Dropout  *Dropout // on attention weights
	NumHeads int
	KeyDim   int
	EmbedDim int
}

// NewMultiHeadAttention creates a multi-head attention layer.
//
// Parameters:
//   - embedDim: Size of the query/value feature axis
//   - numHeads: Number of attention heads
//   - keyDim: Size of each head
//   - dropout: Dropout rate on attention weights (training only)
//   - backend: Computation backend
func NewMultiHeadAttention(embedDim, numHeads, keyDim int, dropout float32, backend tensor.Backend) *MultiHeadAttention {
	if embedDim <= 0 || numHeads <= 0 || keyDim <= 0 {
		panic(fmt.Sprintf("MultiHeadAttention: invalid dims embed=%d heads=%d key=%d", embedDim, numHeads, keyDim))
	}
	inner := numHeads * keyDim

	m := &MultiHeadAttention{
		Base:     newBase("multi_head_attention"),
		WQ:       NewLinear(embedDim, inner, backend),
		WK:       NewLinear(embedDim, inner, backend),
		WV:       NewLinear(embedDim, inner, backend),
		WO:       NewLinear(inner, embedDim, backend),
		Dropout:  NewDropout(dropout, backend),
		NumHeads: numHeads,
		KeyDim:   keyDim,
		EmbedDim: embedDim,
	}
	m.WQ.SetName("query")
	m.WK.SetName("key")
	m.WV.SetName("value")
	m.WO.SetName("attention_output")
	return m
}

// Forward computes attention of query over value (used as key too).
//
// Args:
//   - query: [batch, seq_q, embed_dim]
//   - value: [batch, seq_k, embed_dim]
//
// Returns [batch, seq_q, embed_dim].
func (m *MultiHeadAttention) Forward(query, value *tensor.Tensor) *tensor.Tensor {
	out, _ := m.ForwardWithWeights(query, value)
	return out
}

// ForwardWithWeights is Forward that also returns the attention weights
// [batch, heads, seq_q, seq_k].
func (m *MultiHeadAttention) ForwardWithWeights(query, value *tensor.Tensor) (*tensor.Tensor, *tensor.Tensor) {
	qs, vs := query.Shape(), value.Shape()
	if len(qs) != 3 || len(vs) != 3 || qs[0] != vs[0] || qs[2] != m.EmbedDim || vs[2] != m.EmbedDim {
		tensor.Panicf("MultiHeadAttention.Forward", "expected [batch, seq, %d] inputs, got %v and %v", m.EmbedDim, qs, vs)
	}
	batch, seqQ, seqK := qs[0], qs[1], vs[1]

	// [batch, seq, heads*key] -> [batch, heads, seq, key]
	q := m.WQ.Forward(query).Reshape(batch, seqQ, m.NumHeads, m.KeyDim).Transpose(0, 2, 1, 3)
	k := m.WK.Forward(value).Reshape(batch, seqK, m.NumHeads, m.KeyDim).Transpose(0, 2, 1, 3)
	v := m.WV.Forward(value).Reshape(batch, seqK, m.NumHeads, m.KeyDim).Transpose(0, 2, 1, 3)

	attn, weights := ScaledDotProductAttention(q, k, v, attentionScale(m.KeyDim), m.Dropout.Forward)

	attn = attn.Transpose(0, 2, 1, 3).Reshape(batch, seqQ, m.NumHeads*m.KeyDim)
	return m.WO.Forward(attn), weights
}

// SetTraining toggles attention dropout.
func (m *MultiHeadAttention) SetTraining(training bool) {
	m.Dropout.SetTraining(training)
}

// Parameters returns the query, key, value and output projections.
func (m *MultiHeadAttention) Parameters() []*Parameter {
	params := make([]*Parameter, 0, 8)
	params = append(params, m.WQ.Parameters()...)
	params = append(params, m.WK.Parameters()...)
	params = append(params, m.WV.Parameters()...)
	params = append(params, m.WO.Parameters()...)
	return params
}

// SubLayers returns the projection layers in weight-file order.
func (m *MultiHeadAttention) SubLayers() []Layer {
	return []Layer{m.WQ, m.WK, m.WV, m.WO}
}

// ClassName returns "MultiHeadAttention".
func (m *MultiHeadAttention) ClassName() string { return "MultiHeadAttention" }

// Config exports the layer configuration.
func (m *MultiHeadAttention) Config() map[string]any {
	return m.config(map[string]any{
		"num_heads": m.NumHeads,
		"key_dim":   m.KeyDim,
		"dropout":   m.Dropout.Rate,
	})
}
