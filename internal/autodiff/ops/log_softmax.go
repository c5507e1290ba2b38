package ops

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/backprop/internal/tensor"
)

// LogSoftmaxOp represents the log-softmax operation over the class dimension.
//
// Forward (for each row):
//
//	log_softmax(x)_j = x_j - max(x) - log(Σ_k exp(x_k - max(x)))
//
// Backward:
//
//	∂L/∂x_j = ∂L/∂log_softmax_j - softmax_j * Σ_k ∂L/∂log_softmax_k
//
// Assumptions:
//   - Input shape: [batch_size, num_classes] (2D)
//   - Normalized along dimension 1 (one row per example)
type LogSoftmaxOp struct {
	input   *tensor.Tensor
	output  *tensor.Tensor // log_softmax output
	softmax []float64      // exp(output), cached for backward
}

// LogSoftmax computes row-wise log-softmax of a [batch, classes] tensor.
//
// Returns ErrNonFinite if the input holds NaN or ±Inf; any finite input,
// however large in magnitude, produces finite output.
func LogSoftmax(x *tensor.Tensor) (*LogSoftmaxOp, error) {
	if err := requireMatrix(KindLogSoftmax, "input", x); err != nil {
		return nil, err
	}
	for i, v := range x.Data() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, opErrorf(KindLogSoftmax, "element %d is %v: %w", i, v, ErrNonFinite)
		}
	}

	y := tensor.Zeros(x.Shape())
	softmax := make([]float64, x.NumElements())
	cols := x.Cols()
	for i := 0; i < x.Rows(); i++ {
		row := x.Row(i)
		// LogSumExp subtracts the row max before exponentiating.
		lse := floats.LogSumExp(row)
		out := y.Row(i)
		sm := softmax[i*cols : (i+1)*cols]
		for j, v := range row {
			out[j] = v - lse
			sm[j] = math.Exp(out[j])
		}
	}

	return &LogSoftmaxOp{input: x, output: y, softmax: softmax}, nil
}

// Kind returns KindLogSoftmax.
func (op *LogSoftmaxOp) Kind() Kind {
	return KindLogSoftmax
}

// Backward computes gradient for log-softmax.
//
// Formula:
//
//	∂L/∂x[b,j] = ∂L/∂log_softmax[b,j] - softmax[b,j] * Σ_k ∂L/∂log_softmax[b,k]
func (op *LogSoftmaxOp) Backward(outputGrad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := checkOutputGrad(KindLogSoftmax, op.output, outputGrad); err != nil {
		return nil, err
	}
	inputGrad := tensor.Zeros(op.input.Shape())
	cols := op.input.Cols()
	for i := 0; i < op.input.Rows(); i++ {
		g := outputGrad.Row(i)
		gradSum := floats.Sum(g)
		sm := op.softmax[i*cols : (i+1)*cols]
		gi := inputGrad.Row(i)
		for j := range gi {
			gi[j] = g[j] - sm[j]*gradSum
		}
	}
	return []*tensor.Tensor{inputGrad}, nil
}

// Inputs returns the input tensors.
func (op *LogSoftmaxOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input}
}

// Output returns the output tensor.
func (op *LogSoftmaxOp) Output() *tensor.Tensor {
	return op.output
}

// Softmax returns a copy of the cached softmax probabilities, shaped like the input.
func (op *LogSoftmaxOp) Softmax() *tensor.Tensor {
	t, err := tensor.FromSlice(op.softmax, op.input.Shape())
	if err != nil {
		panic(err) // sizes agree by construction
	}
	return t
}
