package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// RequiresGrad reports whether backward passes should deliver a gradient
// into this tensor's accumulator.
func (t *Tensor) RequiresGrad() bool {
	return t.requiresGrad
}

// SetRequiresGrad marks the tensor as a gradient leaf and returns it.
func (t *Tensor) SetRequiresGrad(requires bool) *Tensor {
	t.requiresGrad = requires
	return t
}

// HasGrad reports whether the gradient accumulator has been allocated.
func (t *Tensor) HasGrad() bool {
	return t.grad != nil
}

// Grad returns the gradient accumulator, or nil if none has been allocated.
func (t *Tensor) Grad() []float64 {
	return t.grad
}

// GradTensor returns a copy of the accumulator as a tensor of the same shape,
// or nil if none has been allocated.
func (t *Tensor) GradTensor() *Tensor {
	if t.grad == nil {
		return nil
	}
	data := make([]float64, len(t.grad))
	copy(data, t.grad)
	return &Tensor{data: data, shape: t.shape.Clone()}
}

// AccumulateGrad adds g into the gradient accumulator, allocating it on first use.
func (t *Tensor) AccumulateGrad(g *Tensor) error {
	if !g.shape.Equal(t.shape) {
		return fmt.Errorf("accumulate gradient %v into tensor %v: %w", g.shape, t.shape, ErrShapeMismatch)
	}
	if t.grad == nil {
		t.grad = make([]float64, len(t.data))
	}
	floats.Add(t.grad, g.data)
	return nil
}

// ZeroGrad sets every gradient entry to zero, allocating the accumulator
// if it does not exist yet.
func (t *Tensor) ZeroGrad() {
	if t.grad == nil {
		t.grad = make([]float64, len(t.data))
		return
	}
	clear(t.grad)
}
