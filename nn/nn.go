// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"io"

	"github.com/born-ml/vision/internal/nn"
	"github.com/born-ml/vision/internal/tensor"
)

// Module maps one tensor to another.
type Module = nn.Module

// Layer is a named, configurable unit of a model.
type Layer = nn.Layer

// Model is a named network with ordered top-level layers.
type Model = nn.Model

// Parameter is a named tensor of a layer.
type Parameter = nn.Parameter

// Base holds the name and trainable flag of custom layers.
type Base = nn.Base

// NewBase returns a trainable Base named name.
func NewBase(name string) Base { return nn.NewBase(name) }

// Layer types.
type (
	Linear                 = nn.Linear
	Conv2D                 = nn.Conv2D
	SeparableConv2D        = nn.SeparableConv2D
	MaxPool2D              = nn.MaxPool2D
	GlobalAveragePooling2D = nn.GlobalAveragePooling2D
	LayerNorm              = nn.LayerNorm
	BatchNorm              = nn.BatchNorm
	Dropout                = nn.Dropout
	Activation             = nn.Activation
	Input                  = nn.Input
	Flatten                = nn.Flatten
	Add                    = nn.Add
	Embedding              = nn.Embedding
	MultiHeadAttention     = nn.MultiHeadAttention
	Sequential             = nn.Sequential
	MLP                    = nn.MLP
	Network                = nn.Network
)

// NewLinear creates a Dense layer with a [in, out] Glorot-uniform kernel.
func NewLinear(inFeatures, outFeatures int, backend tensor.Backend) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewConv2D creates a square-kernel convolution.
func NewConv2D(inChannels, filters, kernelSize, stride int, padding tensor.Padding, useBias bool, backend tensor.Backend) *Conv2D {
	return nn.NewConv2D(inChannels, filters, kernelSize, stride, padding, useBias, backend)
}

// NewSeparableConv2D creates a depthwise-then-pointwise convolution.
func NewSeparableConv2D(inChannels, filters, kernelSize, stride int, padding tensor.Padding, useBias bool, backend tensor.Backend) *SeparableConv2D {
	return nn.NewSeparableConv2D(inChannels, filters, kernelSize, stride, padding, useBias, backend)
}

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D(poolSize, stride int, padding tensor.Padding) *MaxPool2D {
	return nn.NewMaxPool2D(poolSize, stride, padding)
}

// NewGlobalAveragePooling2D averages every channel over height and width.
func NewGlobalAveragePooling2D() *GlobalAveragePooling2D {
	return nn.NewGlobalAveragePooling2D()
}

// NewLayerNorm normalizes the last axis of size n.
func NewLayerNorm(n int, epsilon float32, backend tensor.Backend) *LayerNorm {
	return nn.NewLayerNorm(n, epsilon, backend)
}

// NewBatchNorm normalizes channels with moving statistics.
func NewBatchNorm(channels int, backend tensor.Backend) *BatchNorm {
	return nn.NewBatchNorm(channels, backend)
}

// NewDropout creates a Dropout layer with rate in [0, 1).
func NewDropout(rate float32, backend tensor.Backend) *Dropout {
	return nn.NewDropout(rate, backend)
}

// NewReLU returns a ReLU activation layer.
func NewReLU() *Activation { return nn.NewReLU() }

// NewGELU returns an exact GELU activation layer.
func NewGELU() *Activation { return nn.NewGELU() }

// NewSoftmax returns a softmax over the last axis.
func NewSoftmax() *Activation { return nn.NewSoftmax() }

// NewInput checks per-sample input shapes.
func NewInput(shape tensor.Shape) *Input { return nn.NewInput(shape) }

// NewFlatten collapses every axis but the first.
func NewFlatten() *Flatten { return nn.NewFlatten() }

// NewAdd sums two tensors.
func NewAdd() *Add { return nn.NewAdd() }

// NewEmbedding creates a lookup table.
func NewEmbedding(numEmbeddings, embeddingDim int, backend tensor.Backend) *Embedding {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, backend)
}

// NewMultiHeadAttention creates attention with keyDim per head.
func NewMultiHeadAttention(embedDim, numHeads, keyDim int, dropout float32, backend tensor.Backend) *MultiHeadAttention {
	return nn.NewMultiHeadAttention(embedDim, numHeads, keyDim, dropout, backend)
}

// NewSequential chains modules.
func NewSequential(layers ...Layer) *Sequential { return nn.NewSequential(layers...) }

// NewMLP stacks Dense + GELU + Dropout for every hidden size.
func NewMLP(inFeatures int, hiddenUnits []int, dropout float32, backend tensor.Backend) *MLP {
	return nn.NewMLP(inFeatures, hiddenUnits, dropout, backend)
}

// NewNetwork creates a model whose forward pass is an arbitrary function
// over its layers.
func NewNetwork(name string, layers []Layer, forward func(x *tensor.Tensor) *tensor.Tensor) *Network {
	return nn.NewNetwork(name, layers, forward)
}

// SafeForward runs m and converts a shape panic into an error.
func SafeForward(m Module, x *tensor.Tensor) (*tensor.Tensor, error) {
	return nn.SafeForward(m, x)
}

// SetTraining switches Dropout and BatchNorm layers of m.
func SetTraining(m Model, training bool) { nn.SetTraining(m, training) }

// CountParams returns total and trainable scalar parameter counts.
func CountParams(layers []Layer) (total, trainable int) { return nn.CountParams(layers) }

// Summary writes a table of layers and parameter counts.
func Summary(w io.Writer, m Model) error { return nn.Summary(w, m) }

// ModelConfig exports every layer configuration as YAML.
func ModelConfig(m Model) ([]byte, error) { return nn.ModelConfig(m) }

// SaveWeights writes the parameters of m to a SafeTensors file.
func SaveWeights(m Model, path string) error { return nn.SaveWeights(m, path) }

// LoadWeights fills the parameters of m from a SafeTensors file.
func LoadWeights(m Model, path string) error { return nn.LoadWeights(m, path) }
