// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// A Graph records the operations of one forward pass. Backward walks the
// recorded nodes in reverse and adds the resulting gradients into the
// accumulators of every leaf tensor that requires a gradient.
//
// Example:
//
//	g := autodiff.NewGraph()
//	h, _ := g.Linear(x, w, b)
//	logp, _ := g.LogSoftmax(h)
//	loss, _ := g.NLLLoss(logp, labels)
//	if err := g.Backward(loss); err != nil {
//	    return err
//	}
//	// w.Grad() and b.Grad() now hold dLoss/dw and dLoss/db.
//
// Inference code passes a nil *Graph or wraps calls in NoGrad.
package autodiff

import (
	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/autodiff/ops"
)

// Graph records operations of one forward pass for differentiation.
type Graph = autodiff.Graph

// Node is one recorded operation.
type Node = autodiff.Node

// Operation is a recorded differentiable operation.
type Operation = ops.Operation

// Kind identifies an operation type.
type Kind = ops.Kind

// Operation kinds.
const (
	KindLinear     = ops.KindLinear
	KindReLU       = ops.KindReLU
	KindLogSoftmax = ops.KindLogSoftmax
	KindNLLLoss    = ops.KindNLLLoss
)

// OpError is returned by operations; it names the failing operation and
// wraps the underlying cause.
type OpError = ops.Error

// Errors returned by Backward and operations.
var (
	ErrNotScalar = autodiff.ErrNotScalar
	ErrNoGraph   = autodiff.ErrNoGraph
	ErrNonFinite = ops.ErrNonFinite
)

// NewGraph creates an empty graph with recording enabled.
func NewGraph() *Graph {
	return autodiff.NewGraph()
}
