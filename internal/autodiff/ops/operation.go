// Package ops defines the closed set of differentiable operations.
//
// Each operation is computed eagerly by its constructor and keeps the state
// its backward rule needs:
//   - LinearOp: y = x @ W + b (dW = x^T @ g, db = colsum(g), dx = g @ W^T)
//   - ReLUOp: y = max(0, x) (g passes where x > 0)
//   - LogSoftmaxOp: row-wise log-softmax (dx = g - softmax(x) * rowsum(g))
//   - NLLLossOp: -mean(logp[i, label_i]) (d/dlogp = -1/n at the label)
//
// Operations do not record themselves; autodiff.Graph does that.
package ops

import (
	"errors"
	"fmt"

	"github.com/born-ml/backprop/internal/tensor"
)

// ErrNonFinite reports NaN or infinite values entering an operation that
// would otherwise produce NaN output.
var ErrNonFinite = errors.New("non-finite input")

// Kind tags an operation variant.
type Kind uint8

// Supported operation kinds.
const (
	KindLinear Kind = iota + 1
	KindReLU
	KindLogSoftmax
	KindNLLLoss
)

// String returns the operation name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "linear"
	case KindReLU:
		return "relu"
	case KindLogSoftmax:
		return "log_softmax"
	case KindNLLLoss:
		return "nll_loss"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Kind returns the operation variant.
	Kind() Kind

	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	//
	// Example for LinearOp with bias:
	//   inputs: [x, W, b]
	//   outputGrad: dL/dy
	//   returns: [dL/dy @ W^T, x^T @ dL/dy, colsum(dL/dy)]
	Backward(outputGrad *tensor.Tensor) ([]*tensor.Tensor, error)

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.Tensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.Tensor
}

// Error is returned by operations for invalid operands. It names the
// operation and wraps the cause, so errors.Is works with
// tensor.ErrShapeMismatch, tensor.ErrOutOfRange and ErrNonFinite.
type Error struct {
	Op  Kind
	Err error
}

func (e *Error) Error() string {
	return e.Op.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opErrorf(kind Kind, format string, args ...any) error {
	return &Error{Op: kind, Err: fmt.Errorf(format, args...)}
}

// checkOutputGrad validates that outputGrad matches the op's output shape.
func checkOutputGrad(kind Kind, output, outputGrad *tensor.Tensor) error {
	if outputGrad == nil {
		return opErrorf(kind, "nil output gradient")
	}
	if !outputGrad.Shape().Equal(output.Shape()) {
		return opErrorf(kind, "output gradient shape %v, want %v: %w",
			outputGrad.Shape(), output.Shape(), tensor.ErrShapeMismatch)
	}
	return nil
}

func requireMatrix(kind Kind, name string, t *tensor.Tensor) error {
	if t == nil {
		return opErrorf(kind, "%s is nil", name)
	}
	if !t.Shape().IsMatrix() {
		return opErrorf(kind, "%s must be 2-D [batch, features], got shape %v: %w",
			name, t.Shape(), tensor.ErrShapeMismatch)
	}
	return nil
}
