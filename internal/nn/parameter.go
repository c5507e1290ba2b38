package nn

import (
	"github.com/born-ml/backprop/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// A Parameter is a leaf tensor that requires gradients. Its gradient
// accumulator is allocated and zeroed at construction, so an optimizer step
// before any backward pass reads well-defined zeros.
//
// Example:
//
//	weight := nn.NewParameter("weight", tensor.Zeros(tensor.Shape{784, 128}))
//	w := weight.Tensor()
//	grad := weight.Grad() // all zeros until a backward pass
type Parameter struct {
	name   string
	tensor *tensor.Tensor
}

// NewParameter creates a new trainable parameter around t.
//
// t is marked as requiring gradients and its accumulator is zeroed.
func NewParameter(name string, t *tensor.Tensor) *Parameter {
	t.SetRequiresGrad(true)
	t.ZeroGrad()
	return &Parameter{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Data returns the parameter values. Writes modify the parameter.
func (p *Parameter) Data() []float64 {
	return p.tensor.Data()
}

// Grad returns the gradient accumulator.
func (p *Parameter) Grad() []float64 {
	return p.tensor.Grad()
}

// ZeroGrad zeroes the gradient accumulator in place.
func (p *Parameter) ZeroGrad() {
	p.tensor.ZeroGrad()
}

// NumElements returns the number of scalar weights in the parameter.
func (p *Parameter) NumElements() int {
	return p.tensor.NumElements()
}
