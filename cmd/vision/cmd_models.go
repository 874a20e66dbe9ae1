package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/born-ml/vision/internal/backend/cpu"
	"github.com/born-ml/vision/internal/config"
	"github.com/born-ml/vision/internal/hub"
	"github.com/born-ml/vision/internal/nn"
	"github.com/born-ml/vision/internal/transfer"
	"github.com/born-ml/vision/internal/vit"
)

// buildModel constructs the named model. The returned close function
// releases native resources and is never nil.
func buildModel(ctx context.Context, cfg *config.Config, name string) (*nn.Network, func() error, error) {
	backend := cpu.New()
	noop := func() error { return nil }

	switch name {
	case "vit":
		m, err := vit.Build(cfg.ViT, backend)
		return m, noop, err
	case "xception":
		m, err := transfer.NewXception(ctx, cfg.Xception, hub.NewDownloader(cfg.Hub), backend)
		return m, noop, err
	case "hub-vit":
		m, err := transfer.NewHubViT(ctx, cfg.HubViT, cfg.Hub, backend)
		if err != nil {
			return nil, noop, err
		}
		return m.Network, m.Close, nil
	default:
		return nil, noop, errors.Errorf("unknown model %q (want vit, xception or hub-vit)", name)
	}
}

func runSummary(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	model := fs.String("model", "vit", "Model to build: vit, xception, hub-vit")
	export := fs.String("export", "", "Also write the layer configuration as YAML to this file")
	weights := fs.String("save-weights", "", "Write the initial weights to this safetensors file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, closeModel, err := buildModel(ctx, cfg, *model)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeModel(); err != nil {
			slog.Warn("Failed to release model", "error", err)
		}
	}()

	if err := nn.Summary(os.Stdout, m); err != nil {
		return err
	}

	if *export != "" {
		data, err := nn.ModelConfig(m)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*export, data, 0o600); err != nil {
			return errors.Wrap(err, "write model config")
		}
		slog.Info("Model config written", "path", *export)
	}
	if *weights != "" {
		if err := nn.SaveWeights(m, *weights); err != nil {
			return err
		}
		slog.Info("Weights written", "path", *weights)
	}
	return nil
}

func runFetch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	url := fs.String("url", cfg.HubViT.ModelURL, "Artifact URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, cached, err := hub.NewDownloader(cfg.Hub).Fetch(ctx, *url)
	if err != nil {
		return err
	}
	fmt.Println(path)
	slog.Info("Artifact ready", "path", path, "cached", cached)
	return nil
}
