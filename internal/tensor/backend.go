package tensor

// Padding selects how convolution and pooling windows treat borders.
type Padding string

// Supported paddings (Keras names).
const (
	// Valid keeps only windows that fit entirely inside the input.
	Valid Padding = "valid"
	// Same zero-pads so that output size is ceil(input / stride).
	Same Padding = "same"
)

// Backend defines the interface that compute backends implement.
// Backends handle the actual computation for tensor operations; Tensor
// methods validate nothing beyond what the backend checks.
//
// Image tensors use the NHWC layout ([batch, height, width, channels]).
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting.
	Add(a, b *Tensor) *Tensor
	Sub(a, b *Tensor) *Tensor
	Mul(a, b *Tensor) *Tensor
	Div(a, b *Tensor) *Tensor

	// Scalar operations.
	AddScalar(x *Tensor, s float32) *Tensor
	MulScalar(x *Tensor, s float32) *Tensor

	// Matrix operations.
	// MatMul: [M, K] @ [K, N] -> [M, N]
	MatMul(a, b *Tensor) *Tensor
	// BatchMatMul: [..., M, K] @ [..., K, N] -> [..., M, N] (equal leading dims)
	BatchMatMul(a, b *Tensor) *Tensor

	// Shape operations.
	Transpose(x *Tensor, axes ...int) *Tensor

	// Element-wise math and activations.
	Exp(x *Tensor) *Tensor
	Sqrt(x *Tensor) *Tensor
	Rsqrt(x *Tensor) *Tensor
	Tanh(x *Tensor) *Tensor
	ReLU(x *Tensor) *Tensor
	GELU(x *Tensor) *Tensor
	Softmax(x *Tensor, dim int) *Tensor

	// Reductions.
	SumDim(x *Tensor, dim int, keepDim bool) *Tensor
	MeanDim(x *Tensor, dim int, keepDim bool) *Tensor
	Argmax(x *Tensor) []int // along the last axis

	// Image operations (NHWC).
	// Conv2D kernel layout: [kh, kw, in, out].
	Conv2D(input, kernel *Tensor, stride int, padding Padding) *Tensor
	// DepthwiseConv2D kernel layout: [kh, kw, channels].
	DepthwiseConv2D(input, kernel *Tensor, stride int, padding Padding) *Tensor
	MaxPool2D(input *Tensor, size, stride int, padding Padding) *Tensor
	GlobalAvgPool2D(input *Tensor) *Tensor
	// ExtractPatches cuts non-overlapping size×size patches (VALID) and
	// flattens each one: [B, H, W, C] -> [B, (H/size)*(W/size), size*size*C].
	ExtractPatches(images *Tensor, size int) *Tensor

	// Gather selects rows of a 2D table: [N, D] x indices -> [len(indices), D].
	Gather(table *Tensor, indices []int) *Tensor

	// Metadata.
	Name() string
}
