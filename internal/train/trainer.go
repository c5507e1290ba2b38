// Package train runs the training loop: forward, loss, backward and an
// optimizer step per batch, sequentially.
package train

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/klog/v2"

	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/dataset"
	"github.com/born-ml/backprop/internal/nn"
	"github.com/born-ml/backprop/internal/optim"
)

// Trainer drives a model whose output is log-probabilities (for example one
// built by nn.NewMLP) with NLL loss.
type Trainer struct {
	Model     nn.Module
	Optimizer optim.Optimizer

	// LogEvery is the step interval of progress logs in Run; 0 disables them.
	LogEvery int
}

// EpochStats summarises one pass over the training source.
type EpochStats struct {
	Epoch    int
	Steps    int
	Examples int
	MeanLoss float64 // example-weighted
	Duration time.Duration
}

// EvalStats is the result of Evaluate.
type EvalStats struct {
	Examples int
	Loss     float64 // example-weighted mean NLL
	Accuracy float64
}

// Step runs one training step on batch and returns the batch loss.
//
// The order is fixed: reset gradients, build a fresh graph, forward, loss,
// backward, optimizer step. If forward or backward fails the parameters are
// left untouched and the error is returned.
func (t *Trainer) Step(batch dataset.Batch) (float64, error) {
	t.Optimizer.ZeroGrad()

	g := autodiff.NewGraph()
	defer g.Release()

	logp, err := t.Model.Forward(g, batch.Inputs)
	if err != nil {
		return 0, fmt.Errorf("forward: %w", err)
	}
	loss, err := nn.NLLLoss(g, logp, batch.Labels)
	if err != nil {
		return 0, fmt.Errorf("loss: %w", err)
	}
	value, err := loss.Item()
	if err != nil {
		return 0, fmt.Errorf("loss: %w", err)
	}

	if err := g.Backward(loss); err != nil {
		return 0, fmt.Errorf("backward: %w", err)
	}
	t.Optimizer.Step()

	return value, nil
}

// Evaluate computes loss and accuracy over one epoch of src without
// recording a graph or touching gradients.
func (t *Trainer) Evaluate(src dataset.Source) (EvalStats, error) {
	var stats EvalStats
	var lossSum, correct float64

	g := autodiff.NewGraph()
	defer g.Release()

	err := g.NoGrad(func() error {
		for batch, err := range src.Batches() {
			if err != nil {
				return err
			}
			logp, err := t.Model.Forward(g, batch.Inputs)
			if err != nil {
				return fmt.Errorf("forward: %w", err)
			}
			loss, err := nn.NLLLoss(g, logp, batch.Labels)
			if err != nil {
				return fmt.Errorf("loss: %w", err)
			}
			value, err := loss.Item()
			if err != nil {
				return err
			}
			acc, err := nn.Accuracy(logp, batch.Labels)
			if err != nil {
				return err
			}

			n := float64(batch.Size())
			lossSum += value * n
			correct += acc * n
			stats.Examples += batch.Size()
		}
		return nil
	})
	if err != nil {
		return EvalStats{}, fmt.Errorf("evaluate: %w", err)
	}

	if stats.Examples > 0 {
		stats.Loss = lossSum / float64(stats.Examples)
		stats.Accuracy = correct / float64(stats.Examples)
	}
	return stats, nil
}

// Run trains for the given number of epochs over src.
//
// ctx is checked between batches; a cancelled run returns the stats of the
// completed epochs together with ctx's error.
func (t *Trainer) Run(ctx context.Context, src dataset.Source, epochs int) ([]EpochStats, error) {
	if epochs <= 0 {
		return nil, errors.New("train: epochs must be > 0")
	}
	log := klog.FromContext(ctx)

	history := make([]EpochStats, 0, epochs)
	var window Window
	step := 0

	for epoch := 1; epoch <= epochs; epoch++ {
		stats := EpochStats{Epoch: epoch}
		var lossSum float64
		epochStart := time.Now()

		for batch, err := range src.Batches() {
			if err != nil {
				return history, fmt.Errorf("epoch %d: %w", epoch, err)
			}
			if err := ctx.Err(); err != nil {
				return history, err
			}

			stepStart := time.Now()
			loss, err := t.Step(batch)
			if err != nil {
				return history, fmt.Errorf("epoch %d step %d: %w", epoch, stats.Steps+1, err)
			}
			window.Record(batch.Size(), time.Since(stepStart), loss)

			step++
			stats.Steps++
			stats.Examples += batch.Size()
			lossSum += loss * float64(batch.Size())

			if t.LogEvery > 0 && step%t.LogEvery == 0 {
				snap := window.Snapshot()
				log.Info("training progress",
					"epoch", epoch,
					"step", step,
					"loss", snap.MeanLoss,
					"examplesPerSec", snap.ExamplesPerSec,
					"stepMS", snap.AvgStepMS,
				)
			}
		}

		stats.Duration = time.Since(epochStart)
		if stats.Examples > 0 {
			stats.MeanLoss = lossSum / float64(stats.Examples)
		}
		history = append(history, stats)
		log.Info("epoch complete", "epoch", epoch, "steps", stats.Steps, "loss", stats.MeanLoss, "duration", stats.Duration)
	}

	return history, nil
}
