// Package main provides the backprop CLI: train an MLP digit classifier and
// report build information.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/klauspost/cpuid/v2"
	"k8s.io/klog/v2"

	"github.com/born-ml/backprop/internal/config"
	"github.com/born-ml/backprop/internal/dataset"
	"github.com/born-ml/backprop/internal/nn"
	"github.com/born-ml/backprop/internal/optim"
	"github.com/born-ml/backprop/internal/tensor"
	"github.com/born-ml/backprop/internal/train"
	"github.com/born-ml/backprop/internal/view"
)

const version = "v0.1.0-dev"

// syntheticSamples is the size of the generated set used without IDX files.
const syntheticSamples = 1000

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout)
	stop()
	klog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer) error {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: backprop [klog flags] <train|version> [flags]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	switch args[0] {
	case "train":
		return runTrain(ctx, out, args[1:])
	case "version":
		return runVersion(out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runVersion(out io.Writer) error {
	fmt.Fprintf(out, "backprop %s (%s, %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(out, "cpu: %s (%d physical / %d logical cores)\n", cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores)

	var simd []string
	for _, f := range []cpuid.FeatureID{cpuid.SSE4, cpuid.AVX, cpuid.AVX2, cpuid.FMA3, cpuid.AVX512F, cpuid.ASIMD} {
		if cpuid.CPU.Supports(f) {
			simd = append(simd, f.String())
		}
	}
	if len(simd) == 0 {
		simd = append(simd, "none")
	}
	fmt.Fprintf(out, "simd: %s\n", strings.Join(simd, " "))
	return nil
}

func runTrain(ctx context.Context, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (defaults are used when empty)")
	dataDir := fs.String("data-dir", "", "Directory holding the MNIST IDX files")
	synthetic := fs.Bool("synthetic", false, "Train on generated digits instead of IDX files")
	maxSamples := fs.Int("max-samples", 0, "Limit the number of loaded samples")
	epochs := fs.Int("epochs", 0, "Number of epochs")
	batchSize := fs.Int("batch-size", 0, "Batch size")
	lr := fs.Float64("lr", 0, "Learning rate")
	momentum := fs.Float64("momentum", 0, "SGD momentum")
	shuffle := fs.Bool("shuffle", true, "Shuffle training data each epoch")
	seed := fs.Uint64("seed", 0, "PRNG seed")
	logEvery := fs.Int("log-every", 0, "Log every N steps")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	overrides := config.Overrides{
		DataDir:      *dataDir,
		MaxSamples:   *maxSamples,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: *lr,
		Seed:         *seed,
		LogEvery:     *logEvery,
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "synthetic":
			overrides.Synthetic = synthetic
		case "momentum":
			overrides.Momentum = momentum
		case "shuffle":
			overrides.Shuffle = shuffle
		}
	})
	cfg.ApplyOverrides(overrides)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return trainAndShow(ctx, out, cfg)
}

func trainAndShow(ctx context.Context, out io.Writer, cfg *config.Config) error {
	log := klog.FromContext(ctx)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))

	trainSet, testSet, err := loadData(cfg, rng)
	if err != nil {
		return err
	}
	log.Info("loaded data", "train", trainSet.Len(), "test", testSet.Len(), "synthetic", cfg.Synthetic)

	sizes := append([]int{dataset.ImageSize}, cfg.Hidden...)
	sizes = append(sizes, dataset.NumClasses)
	model, err := nn.NewMLP(rng, sizes...)
	if err != nil {
		return err
	}
	log.Info("built model", "sizes", sizes, "parameters", nn.NumParameters(model))

	optimizer, err := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: cfg.LearningRate, Momentum: cfg.Momentum})
	if err != nil {
		return err
	}

	trainLoader, err := dataset.NewLoader(trainSet, dataset.LoaderConfig{
		BatchSize: cfg.BatchSize,
		Shuffle:   cfg.Shuffle,
		Seed:      cfg.Seed,
		Mean:      cfg.NormalizeMean,
		Std:       cfg.NormalizeStd,
	})
	if err != nil {
		return err
	}
	testLoader, err := dataset.NewLoader(testSet, dataset.LoaderConfig{
		BatchSize: cfg.BatchSize,
		Mean:      cfg.NormalizeMean,
		Std:       cfg.NormalizeStd,
	})
	if err != nil {
		return err
	}

	trainer := &train.Trainer{Model: model, Optimizer: optimizer, LogEvery: cfg.LogEvery}
	if _, err := trainer.Run(ctx, trainLoader, cfg.Epochs); err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	eval, err := trainer.Evaluate(testLoader)
	if err != nil {
		return err
	}
	log.Info("evaluation", "examples", eval.Examples, "loss", eval.Loss, "accuracy", eval.Accuracy)

	if testSet.Len() == 0 {
		return nil
	}
	return showSample(out, model, testSet, 0, cfg)
}

func loadData(cfg *config.Config, rng *rand.Rand) (*dataset.Dataset, *dataset.Dataset, error) {
	if cfg.Synthetic {
		n := syntheticSamples
		if cfg.MaxSamples > 0 {
			n = cfg.MaxSamples
		}
		return dataset.Synthetic(n, rng).Split(0.2)
	}

	trainSet, err := dataset.LoadIDX(cfg.DataDir, true, cfg.MaxSamples)
	if err != nil {
		return nil, nil, fmt.Errorf("load training set: %w", err)
	}
	testSet, err := dataset.LoadIDX(cfg.DataDir, false, cfg.MaxSamples)
	if err != nil {
		return nil, nil, fmt.Errorf("load test set: %w", err)
	}
	return trainSet, testSet, nil
}

// showSample classifies one image and renders it with its class
// probabilities.
func showSample(out io.Writer, model nn.Module, data *dataset.Dataset, idx int, cfg *config.Config) error {
	image := data.Images[idx]
	pixels := append([]float64(nil), image...)
	dataset.Normalize(pixels, cfg.NormalizeMean, cfg.NormalizeStd)

	x, err := tensor.FromSlice(pixels, tensor.Shape{1, dataset.ImageSize})
	if err != nil {
		return err
	}
	logp, err := model.Forward(nil, x)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "sample %d (label %d)\n", idx, data.Labels[idx])
	return view.NewText(out, dataset.ImageCols, dataset.ImageRows).Show(nn.Probabilities(logp).Row(0), image)
}
