package transfer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/hub"
	"github.com/born-ml/vision/internal/nn"
	"github.com/born-ml/vision/internal/tensor"
)

// FeatureExtractor is a layer mapping [B, H, W, C] images to [B, OutputDim]
// features.
type FeatureExtractor interface {
	nn.Layer
	Forward(images *tensor.Tensor) *tensor.Tensor
	OutputDim() int
}

// HubViTConfig describes the classifier over a hosted ViT extractor.
type HubViTConfig struct {
	InputShape [3]int              `yaml:"input_shape" json:"input_shape"`
	NumClasses int                 `yaml:"num_classes" json:"num_classes"`
	Dropout    float32             `yaml:"dropout"     json:"dropout"`
	ModelURL   string              `yaml:"model_url"   json:"model_url"`
	Extractor  hub.ExtractorConfig `yaml:"extractor"   json:"extractor"`
}

// DefaultHubViTConfig returns the 224×224, five-class configuration over
// ViT-B/16.
func DefaultHubViTConfig() HubViTConfig {
	return HubViTConfig{
		InputShape: [3]int{224, 224, 3},
		NumClasses: 5,
		Dropout:    0.5,
		ModelURL:   hub.DefaultViTURL,
		Extractor:  hub.DefaultExtractorConfig(),
	}
}

// Validate reports the first inconsistency in c.
func (c HubViTConfig) Validate() error {
	switch {
	case c.InputShape[2] != 3:
		return errors.Errorf("hub vit: expects RGB input, got %d channels", c.InputShape[2])
	case c.InputShape[0] != c.Extractor.Height || c.InputShape[1] != c.Extractor.Width:
		return errors.Errorf("hub vit: input %dx%d does not match extractor %dx%d",
			c.InputShape[0], c.InputShape[1], c.Extractor.Height, c.Extractor.Width)
	case c.NumClasses <= 0:
		return errors.Errorf("hub vit: num_classes must be positive, got %d", c.NumClasses)
	case c.Dropout < 0 || c.Dropout >= 1:
		return errors.Errorf("hub vit: dropout must be in [0, 1), got %v", c.Dropout)
	case c.ModelURL == "":
		return errors.New("hub vit: model_url is required")
	}
	return nil
}

// HubModel is a classifier that owns an ONNX extractor. Close releases it.
type HubModel struct {
	*nn.Network
	Extractor *hub.ONNXExtractor
}

// Close releases the extractor session.
func (m *HubModel) Close() error {
	return m.Extractor.Close()
}

// NewHubViT fetches the pretrained extractor named by cfg.ModelURL (a URL
// or a local .onnx file), wraps it as a trainable-flagged layer and adds
// the classification head.
func NewHubViT(ctx context.Context, cfg HubViTConfig, hubCfg hub.Config, backend tensor.Backend) (*HubModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	path, err := hub.NewDownloader(hubCfg).Resolve(ctx, cfg.ModelURL)
	if err != nil {
		return nil, errors.Wrap(err, "hub vit model")
	}
	extractor, err := hub.NewONNXExtractor(path, hubCfg.ONNXRuntimeLibrary, cfg.Extractor, backend)
	if err != nil {
		return nil, err
	}
	extractor.SetTrainable(true)

	return &HubModel{
		Network:   NewHubClassifier(extractor, cfg.InputShape, cfg.NumClasses, cfg.Dropout, backend),
		Extractor: extractor,
	}, nil
}

// NewHubClassifier builds input -> extractor -> Dense(512, relu) ->
// Dropout -> Dense(numClasses, softmax) over any feature extractor.
func NewHubClassifier(extractor FeatureExtractor, inputShape [3]int, numClasses int, dropoutRate float32, backend tensor.Backend) *nn.Network {
	input := nn.NewInput(tensor.Shape{inputShape[0], inputShape[1], inputShape[2]})
	dense := nn.NewLinear(extractor.OutputDim(), HeadUnits, backend)
	relu := nn.NewReLU()
	relu.SetName("activation")
	dropout := nn.NewDropout(dropoutRate, backend)
	logits := nn.NewLinear(HeadUnits, numClasses, backend)
	softmax := nn.NewSoftmax()

	layers := []nn.Layer{input, extractor, dense, relu, dropout, logits, softmax}
	return nn.NewNetwork("vit_transfer", layers, func(x *tensor.Tensor) *tensor.Tensor {
		x = extractor.Forward(input.Forward(x))
		x = dropout.Forward(relu.Forward(dense.Forward(x)))
		return softmax.Forward(logits.Forward(x))
	})
}
