package hub

import (
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/born-ml/vision/internal/nn"
	"github.com/born-ml/vision/internal/tensor"
)

var (
	runtimeMu   sync.Mutex
	runtimeRefs int
)

// acquireRuntime initializes the onnxruntime environment on first use.
func acquireRuntime(library string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if runtimeRefs == 0 {
		if library != "" {
			ort.SetSharedLibraryPath(library)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return errors.Wrap(err, "initialize onnxruntime")
		}
	}
	runtimeRefs++
	return nil
}

// releaseRuntime destroys the environment when the last extractor closes.
func releaseRuntime() {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeRefs--
	if runtimeRefs == 0 {
		_ = ort.DestroyEnvironment()
	}
}

// ExtractorConfig describes the inputs and outputs of an ONNX feature
// extractor. The defaults match Hugging Face ViT-B/16 exports: NCHW
// pixel_values normalized with mean 0.5 and std 0.5, and a
// last_hidden_state of 197 tokens whose first (CLS) token is the feature.
type ExtractorConfig struct {
	InputName      string  `yaml:"input_name"      json:"input_name"`
	OutputName     string  `yaml:"output_name"     json:"output_name"`
	Height         int     `yaml:"height"          json:"height"`
	Width          int     `yaml:"width"           json:"width"`
	SequenceLength int     `yaml:"sequence_length" json:"sequence_length"`
	HiddenSize     int     `yaml:"hidden_size"     json:"hidden_size"`
	Mean           float32 `yaml:"mean"            json:"mean"`
	Std            float32 `yaml:"std"             json:"std"`
}

// DefaultExtractorConfig returns the ViT-B/16 settings.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		InputName:      "pixel_values",
		OutputName:     "last_hidden_state",
		Height:         224,
		Width:          224,
		SequenceLength: 197,
		HiddenSize:     768,
		Mean:           0.5,
		Std:            0.5,
	}
}

// ONNXExtractor runs an ONNX feature extractor as a layer mapping
// [B, H, W, 3] images with values in 0..1 to [B, HiddenSize] features.
// It has no Go-side parameters; its trainable flag is informational.
type ONNXExtractor struct {
	nn.Base
	cfg       ExtractorConfig
	modelPath string
	backend   tensor.Backend

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

// NewONNXExtractor loads the model at modelPath. library optionally names
// the onnxruntime shared library.
func NewONNXExtractor(modelPath, library string, cfg ExtractorConfig, backend tensor.Backend) (*ONNXExtractor, error) {
	if cfg.Height <= 0 || cfg.Width <= 0 || cfg.HiddenSize <= 0 || cfg.SequenceLength <= 0 {
		return nil, errors.Errorf("invalid extractor config %+v", cfg)
	}
	if cfg.Std == 0 {
		return nil, errors.New("extractor std must not be zero")
	}
	if err := acquireRuntime(library); err != nil {
		return nil, err
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(cfg.Height), int64(cfg.Width)))
	if err != nil {
		releaseRuntime()
		return nil, errors.Wrap(err, "create input tensor")
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(cfg.SequenceLength), int64(cfg.HiddenSize)))
	if err != nil {
		_ = input.Destroy()
		releaseRuntime()
		return nil, errors.Wrap(err, "create output tensor")
	}
	session, err := ort.NewAdvancedSession(modelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		_ = input.Destroy()
		_ = output.Destroy()
		releaseRuntime()
		return nil, errors.Wrapf(err, "create onnx session for %s", modelPath)
	}

	e := &ONNXExtractor{
		Base:      nn.NewBase("vit_feature_extractor"),
		cfg:       cfg,
		modelPath: modelPath,
		backend:   backend,
		session:   session,
		input:     input,
		output:    output,
	}
	return e, nil
}

// OutputDim returns the feature size.
func (e *ONNXExtractor) OutputDim() int { return e.cfg.HiddenSize }

// Extract runs the model on every image of the batch.
func (e *ONNXExtractor) Extract(images *tensor.Tensor) (*tensor.Tensor, error) {
	s := images.Shape()
	if len(s) != 4 || s[1] != e.cfg.Height || s[2] != e.cfg.Width || s[3] != 3 {
		return nil, errors.Wrapf(tensor.ErrShape, "expected [batch, %d, %d, 3] images, got %v", e.cfg.Height, e.cfg.Width, s)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("extractor is closed")
	}

	batch := s[0]
	sample := e.cfg.Height * e.cfg.Width * 3
	src := images.Data()
	out := make([]float32, 0, batch*e.cfg.HiddenSize)
	for b := 0; b < batch; b++ {
		ToNCHW(e.input.GetData(), src[b*sample:(b+1)*sample], e.cfg.Height, e.cfg.Width, e.cfg.Mean, e.cfg.Std)
		if err := e.session.Run(); err != nil {
			return nil, errors.Wrap(err, "onnx inference")
		}
		out = append(out, e.output.GetData()[:e.cfg.HiddenSize]...)
	}
	return tensor.New(out, tensor.Shape{batch, e.cfg.HiddenSize}, e.backend), nil
}

// Forward is Extract that panics on failure.
func (e *ONNXExtractor) Forward(images *tensor.Tensor) *tensor.Tensor {
	out, err := e.Extract(images)
	if err != nil {
		if errors.Is(err, tensor.ErrShape) {
			tensor.Panicf("ONNXExtractor.Forward", "%v", err)
		}
		panic(err)
	}
	return out
}

// Parameters returns nil; the weights live in the ONNX graph.
func (e *ONNXExtractor) Parameters() []*nn.Parameter { return nil }

// ClassName returns "HubLayer".
func (e *ONNXExtractor) ClassName() string { return "HubLayer" }

// Config exports the layer configuration.
func (e *ONNXExtractor) Config() map[string]any {
	return e.BaseConfig(map[string]any{
		"model":       e.modelPath,
		"input_name":  e.cfg.InputName,
		"output_name": e.cfg.OutputName,
		"hidden_size": e.cfg.HiddenSize,
	})
}

// Close releases the session and its tensors.
func (e *ONNXExtractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	_ = e.input.Destroy()
	_ = e.output.Destroy()
	e.session, e.input, e.output = nil, nil, nil
	releaseRuntime()
	return errors.Wrap(err, "destroy onnx session")
}

// ToNCHW writes one HWC image into dst in CHW order, applying
// (v - mean) / std to every value.
func ToNCHW(dst, src []float32, height, width int, mean, std float32) {
	plane := height * width
	for i := 0; i < plane; i++ {
		for c := 0; c < 3; c++ {
			dst[c*plane+i] = (src[i*3+c] - mean) / std
		}
	}
}
