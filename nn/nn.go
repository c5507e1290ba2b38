// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network building blocks: parameters, layers,
// containers and losses.
//
// Example:
//
//	model, err := nn.NewMLP(rng, 784, 128, 64, 10)
//	if err != nil {
//	    return err
//	}
//	g := autodiff.NewGraph()
//	logp, err := model.Forward(g, images)
//	...
//	loss, err := nn.NLLLoss(g, logp, labels)
package nn

import (
	"math/rand/v2"

	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/nn"
	"github.com/born-ml/backprop/internal/tensor"
)

// Module interface defines the common interface for all neural network modules.
type Module = nn.Module

// Parameter represents a trainable parameter in a neural network.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with a zeroed gradient accumulator.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	return nn.NewParameter(name, t)
}

// NumParameters returns the total number of trainable scalars in m.
func NumParameters(m Module) int {
	return nn.NumParameters(m)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Xavier initialization.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, rng)
}

// NewLinearFrom creates a linear layer from existing weight [in, out] and
// optional bias [out] tensors.
func NewLinearFrom(weight, bias *tensor.Tensor) (*Linear, error) {
	return nn.NewLinearFrom(weight, bias)
}

// Activations

// ReLU applies max(0, x) element-wise.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return nn.NewReLU()
}

// LogSoftmax applies log-softmax to every row.
type LogSoftmax = nn.LogSoftmax

// NewLogSoftmax creates a LogSoftmax activation.
func NewLogSoftmax() *LogSoftmax {
	return nn.NewLogSoftmax()
}

// Containers

// Sequential chains modules in order.
type Sequential = nn.Sequential

// NewSequential creates a Sequential container.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// NewMLP builds Linear/ReLU layers for the given sizes, ending in LogSoftmax.
func NewMLP(rng *rand.Rand, sizes ...int) (*Sequential, error) {
	return nn.NewMLP(rng, sizes...)
}

// Losses and metrics

// NLLLoss computes the negative log-likelihood of labels under logp.
func NLLLoss(g *autodiff.Graph, logp *tensor.Tensor, labels []int) (*tensor.Tensor, error) {
	return nn.NLLLoss(g, logp, labels)
}

// CrossEntropy computes NLLLoss(LogSoftmax(logits), labels).
func CrossEntropy(g *autodiff.Graph, logits *tensor.Tensor, labels []int) (*tensor.Tensor, error) {
	return nn.CrossEntropy(g, logits, labels)
}

// Probabilities returns exp(logp).
func Probabilities(logp *tensor.Tensor) *tensor.Tensor {
	return nn.Probabilities(logp)
}

// Predict returns the arg-max class of each row.
func Predict(scores *tensor.Tensor) []int {
	return nn.Predict(scores)
}

// Accuracy returns the fraction of rows whose arg-max matches the label.
func Accuracy(scores *tensor.Tensor, labels []int) (float64, error) {
	return nn.Accuracy(scores, labels)
}
