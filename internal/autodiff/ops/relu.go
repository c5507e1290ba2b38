package ops

import "github.com/born-ml/backprop/internal/tensor"

// ReLUOp represents a ReLU (Rectified Linear Unit) activation: output = max(0, x).
//
// Backward pass:
//   - d(ReLU(x))/dx = 1 if x > 0, else 0
type ReLUOp struct {
	input  *tensor.Tensor // x
	output *tensor.Tensor // max(0, x)
}

// ReLU computes max(0, x) element-wise. Any shape is accepted.
func ReLU(x *tensor.Tensor) (*ReLUOp, error) {
	if x == nil {
		return nil, opErrorf(KindReLU, "input is nil")
	}
	y := tensor.Zeros(x.Shape())
	out := y.Data()
	for i, v := range x.Data() {
		if v > 0 {
			out[i] = v
		}
	}
	return &ReLUOp{input: x, output: y}, nil
}

// Kind returns KindReLU.
func (op *ReLUOp) Kind() Kind {
	return KindReLU
}

// Backward passes the output gradient through where the input was positive.
func (op *ReLUOp) Backward(outputGrad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := checkOutputGrad(KindReLU, op.output, outputGrad); err != nil {
		return nil, err
	}
	gradInput := tensor.Zeros(op.input.Shape())
	gi, g := gradInput.Data(), outputGrad.Data()
	for i, v := range op.input.Data() {
		if v > 0 {
			gi[i] = g[i]
		}
	}
	return []*tensor.Tensor{gradInput}, nil
}

// Inputs returns the input tensor [x].
func (op *ReLUOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.input}
}

// Output returns the output tensor max(0, x).
func (op *ReLUOp) Output() *tensor.Tensor {
	return op.output
}
