// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models builds the image classifiers of the experiment.
//
// Two families are provided:
//   - a Vision Transformer trained from scratch (BuildViT)
//   - transfer-learning classifiers over a pretrained backbone: Xception
//     with its first layers frozen (NewXception) and an ONNX ViT feature
//     extractor fetched on demand (NewHubViT)
//
// Example:
//
//	backend := cpu.New()
//	model, err := models.BuildViT(models.DefaultViTConfig(), backend)
//	if err != nil {
//	    return err
//	}
//	probs := model.Forward(images) // [batch, 5]
package models

import (
	"context"

	"github.com/born-ml/vision/internal/hub"
	"github.com/born-ml/vision/internal/nn"
	"github.com/born-ml/vision/internal/tensor"
	"github.com/born-ml/vision/internal/transfer"
	"github.com/born-ml/vision/internal/vit"
)

// ViTConfig describes a Vision Transformer classifier.
type ViTConfig = vit.Config

// XceptionConfig describes the Xception transfer classifier.
type XceptionConfig = transfer.XceptionConfig

// HubViTConfig describes the classifier over a hosted ViT extractor.
type HubViTConfig = transfer.HubViTConfig

// HubConfig controls artifact caching and downloads.
type HubConfig = hub.Config

// HubModel is a classifier owning an ONNX session; Close releases it.
type HubModel = transfer.HubModel

// FeatureExtractor is any layer mapping images to feature vectors.
type FeatureExtractor = transfer.FeatureExtractor

// Patches and PatchEncoder are the ViT input layers.
type (
	Patches      = vit.Patches
	PatchEncoder = vit.PatchEncoder
)

// DefaultViTConfig returns the 224×224, five-class ViT.
func DefaultViTConfig() ViTConfig { return vit.DefaultConfig() }

// DefaultXceptionConfig returns the 299×299 Xception fine-tuned from layer 100.
func DefaultXceptionConfig() XceptionConfig { return transfer.DefaultXceptionConfig() }

// DefaultHubViTConfig returns the ViT-B/16 transfer configuration.
func DefaultHubViTConfig() HubViTConfig { return transfer.DefaultHubViTConfig() }

// DefaultHubConfig returns the default cache and retry settings.
func DefaultHubConfig() HubConfig { return hub.DefaultConfig() }

// NewPatches creates a patch extraction layer.
func NewPatches(size int) *Patches { return vit.NewPatches(size) }

// NewPatchEncoder creates a projection plus position embedding layer.
func NewPatchEncoder(numPatches, patchDim, projectionDim int, backend tensor.Backend) *PatchEncoder {
	return vit.NewPatchEncoder(numPatches, patchDim, projectionDim, backend)
}

// BuildViT validates cfg and assembles the Vision Transformer.
func BuildViT(cfg ViTConfig, backend tensor.Backend) (*nn.Network, error) {
	return vit.Build(cfg, backend)
}

// NewXception builds the Xception transfer classifier. Weights named by
// cfg.Weights are loaded from a local file or fetched with the hub
// settings.
func NewXception(ctx context.Context, cfg XceptionConfig, hubCfg HubConfig, backend tensor.Backend) (*nn.Network, error) {
	return transfer.NewXception(ctx, cfg, hub.NewDownloader(hubCfg), backend)
}

// NewHubViT fetches the ONNX ViT extractor and adds a classifier head.
func NewHubViT(ctx context.Context, cfg HubViTConfig, hubCfg HubConfig, backend tensor.Backend) (*HubModel, error) {
	return transfer.NewHubViT(ctx, cfg, hubCfg, backend)
}

// NewHubClassifier adds the Dense(512, relu) -> Dropout -> softmax head to
// any feature extractor.
func NewHubClassifier(extractor FeatureExtractor, inputShape [3]int, numClasses int, dropout float32, backend tensor.Backend) *nn.Network {
	return transfer.NewHubClassifier(extractor, inputShape, numClasses, dropout, backend)
}
