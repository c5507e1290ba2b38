// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides dense float64 tensors with gradient accumulators.
//
// # Basic Usage
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
//	if err != nil {
//	    return err
//	}
//	w := tensor.RandN(tensor.Shape{2, 3}, rng).SetRequiresGrad(true)
//
// Tensors are row-major. Data returns the backing slice, so writes through
// it are visible to the tensor.
package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/backprop/internal/tensor"
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// Tensor is a dense row-major float64 array with an optional gradient
// accumulator.
type Tensor = tensor.Tensor

// Errors returned by tensor constructors and operations.
var (
	ErrShapeMismatch = tensor.ErrShapeMismatch
	ErrOutOfRange    = tensor.ErrOutOfRange
	ErrNotScalar     = tensor.ErrNotScalar
)

// New creates a zero-filled tensor.
func New(shape Shape) (*Tensor, error) {
	return tensor.New(shape)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor {
	return tensor.Zeros(shape)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return tensor.Ones(shape)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) *Tensor {
	return tensor.Full(shape, value)
}

// Scalar creates a single-element tensor.
func Scalar(v float64) *Tensor {
	return tensor.Scalar(v)
}

// RandN creates a tensor with samples from the standard normal distribution.
func RandN(shape Shape, rng *rand.Rand) *Tensor {
	return tensor.RandN(shape, rng)
}

// Uniform creates a tensor with samples from U(lo, hi).
func Uniform(shape Shape, lo, hi float64, rng *rand.Rand) *Tensor {
	return tensor.Uniform(shape, lo, hi, rng)
}
