// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Training Loop Pattern
//
//	for batch := range batches {
//	    // 1. Zero gradients
//	    optimizer.ZeroGrad()
//
//	    // 2. Forward pass on a fresh graph
//	    g := autodiff.NewGraph()
//	    logp, err := model.Forward(g, batch.Inputs)
//	    loss, err := nn.NLLLoss(g, logp, batch.Labels)
//
//	    // 3. Backward pass
//	    if err := g.Backward(loss); err != nil {
//	        return err
//	    }
//
//	    // 4. Update parameters
//	    optimizer.Step()
//	}
package optim

import (
	"github.com/born-ml/backprop/internal/nn"
	"github.com/born-ml/backprop/internal/optim"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer = optim.Optimizer

// SGD implements Stochastic Gradient Descent with optional momentum.
type SGD = optim.SGD

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// ErrInvalidLR is returned for a learning rate that is not strictly positive.
var ErrInvalidLR = optim.ErrInvalidLR

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer, err := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.003})
func NewSGD(params []*nn.Parameter, config SGDConfig) (*SGD, error) {
	return optim.NewSGD(params, config)
}
