package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/tensor"
)

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input. Parameter names are
// prefixed with the module index ("0.weight", "0.bias", "2.weight", ...).
type Sequential struct {
	modules []Module
}

// NewSequential creates a new Sequential container.
func NewSequential(modules ...Module) *Sequential {
	s := &Sequential{}
	for _, m := range modules {
		s.Add(m)
	}
	return s
}

// Add appends a module to the sequence.
func (s *Sequential) Add(module Module) {
	index := len(s.modules)
	for _, p := range module.Parameters() {
		p.name = fmt.Sprintf("%d.%s", index, p.name)
	}
	s.modules = append(s.modules, module)
}

// Forward applies all modules in sequence.
//
// A failing module aborts the pass; the error names the module index.
func (s *Sequential) Forward(g *autodiff.Graph, input *tensor.Tensor) (*tensor.Tensor, error) {
	output := input
	for i, module := range s.modules {
		var err error
		output, err = module.Forward(g, output)
		if err != nil {
			return nil, fmt.Errorf("module %d: %w", i, err)
		}
	}
	return output, nil
}

// Parameters returns all trainable parameters from all modules.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Len returns the number of modules in the sequence.
func (s *Sequential) Len() int {
	return len(s.modules)
}

// Module returns the module at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Module(index int) Module {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// NewMLP builds Linear/ReLU layers through the given sizes and ends with
// LogSoftmax, so Forward returns log-probabilities.
//
// NewMLP(784, 128, 64, 10, rng) is the classic MNIST network:
// 784 → 128 → ReLU → 64 → ReLU → 10 → LogSoftmax.
func NewMLP(rng *rand.Rand, sizes ...int) (*Sequential, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("mlp needs at least input and output sizes, got %v", sizes)
	}
	for _, n := range sizes {
		if n <= 0 {
			return nil, fmt.Errorf("mlp layer sizes must be positive, got %v", sizes)
		}
	}

	s := NewSequential()
	for i := 0; i+1 < len(sizes); i++ {
		s.Add(NewLinear(sizes[i], sizes[i+1], rng))
		if i+2 < len(sizes) {
			s.Add(NewReLU())
		}
	}
	s.Add(NewLogSoftmax())
	return s, nil
}
