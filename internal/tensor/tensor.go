// Package tensor implements the dense float64 tensor used by the graph,
// the layers and the optimizer.
//
// A Tensor owns its value buffer and, once gradients are requested or
// accumulated, a gradient buffer of identical shape. Data is stored in
// row-major order; 2-D tensors use one row per example and one column per
// feature or class.
package tensor

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for invalid tensor usage.
var (
	// ErrShapeMismatch reports operands whose dimensions are incompatible.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrOutOfRange reports an index or class label outside the valid range.
	ErrOutOfRange = errors.New("index out of range")

	// ErrNotScalar reports a scalar-only access on a multi-element tensor.
	ErrNotScalar = errors.New("tensor is not a scalar")
)

// Tensor is an N-dimensional array of float64 values.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
//	if err != nil {
//	    return err
//	}
//	x.At(1, 0) // 3
type Tensor struct {
	data         []float64
	shape        Shape
	requiresGrad bool
	grad         []float64 // nil until requested or accumulated
}

// New creates a zero-filled tensor with the given shape.
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &Tensor{
		data:  make([]float64, shape.NumElements()),
		shape: shape.Clone(),
	}, nil
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d: %w",
			shape, shape.NumElements(), len(data), ErrShapeMismatch)
	}
	t, err := New(shape)
	if err != nil {
		return nil, err
	}
	copy(t.data, data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Data returns the underlying buffer. Writes through the slice modify the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Rows returns the first dimension of a 2-D tensor.
func (t *Tensor) Rows() int {
	if len(t.shape) == 0 {
		return 1
	}
	return t.shape[0]
}

// Cols returns the size of the last dimension.
func (t *Tensor) Cols() int {
	if len(t.shape) == 0 {
		return 1
	}
	return t.shape[len(t.shape)-1]
}

// Row returns a view of row i of a 2-D tensor.
func (t *Tensor) Row(i int) []float64 {
	cols := t.Cols()
	return t.data[i*cols : (i+1)*cols]
}

// At returns the element at row i, column j of a 2-D tensor.
func (t *Tensor) At(i, j int) float64 {
	return t.data[i*t.Cols()+j]
}

// Item returns the value of a single-element tensor.
func (t *Tensor) Item() (float64, error) {
	if !t.shape.IsScalar() {
		return 0, fmt.Errorf("item of tensor with shape %v: %w", t.shape, ErrNotScalar)
	}
	return t.data[0], nil
}

// Clone returns a deep copy of the values. The copy does not track gradients.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return &Tensor{
		data:  data,
		shape: t.shape.Clone(),
	}
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor(shape=%v", t.shape)
	if t.requiresGrad {
		sb.WriteString(", requires_grad")
	}
	sb.WriteString(", data=")
	const limit = 16
	if len(t.data) > limit {
		fmt.Fprintf(&sb, "%v...", t.data[:limit])
	} else {
		fmt.Fprintf(&sb, "%v", t.data)
	}
	sb.WriteString(")")
	return sb.String()
}
