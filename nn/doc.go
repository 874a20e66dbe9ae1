// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers and model utilities of the vision models.
//
// # Overview
//
// This package contains:
//   - Layers: Dense (Linear), Conv2D, SeparableConv2D, MaxPool2D,
//     GlobalAveragePooling2D, Flatten, Add
//   - Normalization and regularization: LayerNorm, BatchNorm, Dropout
//   - Activations: ReLU, GELU, Softmax
//   - Transformer parts: Embedding, MultiHeadAttention, MLP
//   - Models: Network, Sequential, Summary, weight files
//
// Layers follow Keras conventions (NHWC images, Dense on the last axis,
// unique layer names such as "dense_1"), so weight files keyed
// "<layer>/<param>" line up with Keras exports.
//
// # Basic Usage
//
//	backend := cpu.New()
//	model := nn.NewSequential(
//	    nn.NewLinear(768, 512, backend),
//	    nn.NewReLU(),
//	    nn.NewDropout(0.5, backend),
//	    nn.NewLinear(512, 5, backend),
//	    nn.NewSoftmax(),
//	)
//	probs := model.Forward(features)
//
// # Training mode
//
// Dropout and BatchNorm default to inference behaviour. SetTraining
// switches every such layer of a model at once.
//
// # Freezing
//
// SetTrainable(false) on a layer marks its parameters non-trainable;
// CountParams and Summary report the split.
package nn
