package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
//
// An empty shape describes a scalar.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// IsScalar reports whether the shape holds exactly one element.
// Both Shape{} and Shape{1, 1} are scalars.
func (s Shape) IsScalar() bool {
	return s.NumElements() == 1
}

// IsMatrix reports whether the shape is 2-D.
func (s Shape) IsMatrix() bool {
	return len(s) == 2
}

func (s Shape) String() string {
	return fmt.Sprint([]int(s))
}
