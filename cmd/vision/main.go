// Package main provides the vision command line tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/born-ml/vision/internal/config"
	"github.com/born-ml/vision/internal/env"
	"github.com/born-ml/vision/internal/logger"
	"github.com/born-ml/vision/internal/random"
)

const version = "v0.1.0"

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = []command{
	{"summary", "Build a model and print its layers", runSummary},
	{"fetch", "Download pretrained artifacts into the cache", runFetch},
	{"split", "Show the training/validation split of a data directory", runSplit},
	{"augment", "Render random augmentations of an image", runAugment},
	{"inspect", "Load images and render them side by side", runInspect},
	{"confusion", "Plot the confusion matrix of a predictions file", runConfusion},
	{"report", "Print a classification report for a predictions file", runReport},
	{"curves", "Plot loss and accuracy curves of a training history", runCurves},
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default $VISION_CONFIG or vision.yaml)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	name, args := flag.Arg(0), flag.Args()[1:]
	switch name {
	case "version":
		fmt.Printf("vision %s\n", version)
		return
	case "help":
		usage()
		return
	}

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := execute(c, *configPath, args); err != nil {
			slog.Error("Command failed", "command", name, "error", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

// execute loads the configuration, sets up logging and seeding, then runs c.
func execute(c command, configPath string, args []string) error {
	cfg, err := config.LoadAndValidate(config.Path(configPath))
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(env.FromEnv(),
		logger.WithLevel(level),
		logger.WithLogToFile(cfg.Log.ToFile),
		logger.WithLogFile(cfg.Log.File),
	))
	random.Seed(cfg.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.run(ctx, cfg, args)
}

func usage() {
	fmt.Println("vision - image classification experiment tools")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Usage: vision [-config file] <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %-10s %s\n", "version", "Show version")
	for _, c := range commands {
		fmt.Printf("  %-10s %s\n", c.name, c.usage)
	}
}
