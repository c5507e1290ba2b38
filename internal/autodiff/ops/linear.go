package ops

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/backprop/internal/tensor"
)

// LinearOp represents an affine transform: output = x @ W + b.
//
// Shapes:
//   - x: [batch_size, in_features]
//   - W: [in_features, out_features]
//   - b: [out_features] (optional)
//   - output: [batch_size, out_features]
//
// Backward pass:
//   - dL/dx = outputGrad @ W^T
//   - dL/dW = x^T @ outputGrad
//   - dL/db = column sums of outputGrad
type LinearOp struct {
	x, w, b *tensor.Tensor
	output  *tensor.Tensor
}

// Linear computes x @ W + b. Pass a nil bias to skip the addition.
func Linear(x, w, b *tensor.Tensor) (*LinearOp, error) {
	if err := requireMatrix(KindLinear, "input", x); err != nil {
		return nil, err
	}
	if err := requireMatrix(KindLinear, "weight", w); err != nil {
		return nil, err
	}
	batch, in := x.Rows(), x.Cols()
	if w.Rows() != in {
		return nil, opErrorf(KindLinear, "input has %d features, weight %v expects %d: %w",
			in, w.Shape(), w.Rows(), tensor.ErrShapeMismatch)
	}
	out := w.Cols()
	if b != nil && !b.Shape().Equal(tensor.Shape{out}) {
		return nil, opErrorf(KindLinear, "bias shape %v, want [%d]: %w",
			b.Shape(), out, tensor.ErrShapeMismatch)
	}

	y := tensor.Zeros(tensor.Shape{batch, out})
	mat.NewDense(batch, out, y.Data()).Mul(dense(x), dense(w))
	if b != nil {
		for i := 0; i < batch; i++ {
			floats.Add(y.Row(i), b.Data())
		}
	}

	return &LinearOp{x: x, w: w, b: b, output: y}, nil
}

// Kind returns KindLinear.
func (op *LinearOp) Kind() Kind {
	return KindLinear
}

// Backward computes input gradients for the affine transform.
func (op *LinearOp) Backward(outputGrad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := checkOutputGrad(KindLinear, op.output, outputGrad); err != nil {
		return nil, err
	}
	g := dense(outputGrad)

	// grad_x = outputGrad @ W^T
	gradX := tensor.Zeros(op.x.Shape())
	mat.NewDense(op.x.Rows(), op.x.Cols(), gradX.Data()).Mul(g, dense(op.w).T())

	// grad_w = x^T @ outputGrad
	gradW := tensor.Zeros(op.w.Shape())
	mat.NewDense(op.w.Rows(), op.w.Cols(), gradW.Data()).Mul(dense(op.x).T(), g)

	if op.b == nil {
		return []*tensor.Tensor{gradX, gradW}, nil
	}

	gradB := tensor.Zeros(op.b.Shape())
	for i := 0; i < outputGrad.Rows(); i++ {
		floats.Add(gradB.Data(), outputGrad.Row(i))
	}
	return []*tensor.Tensor{gradX, gradW, gradB}, nil
}

// Inputs returns [x, W] or [x, W, b].
func (op *LinearOp) Inputs() []*tensor.Tensor {
	if op.b == nil {
		return []*tensor.Tensor{op.x, op.w}
	}
	return []*tensor.Tensor{op.x, op.w, op.b}
}

// Output returns x @ W + b.
func (op *LinearOp) Output() *tensor.Tensor {
	return op.output
}

// dense wraps a 2-D tensor's buffer without copying.
func dense(t *tensor.Tensor) *mat.Dense {
	return mat.NewDense(t.Rows(), t.Cols(), t.Data())
}
