// Package nn implements the layers, losses and parameter handling used to
// train a feed-forward classifier.
//
// This package provides:
//   - Module interface: Forward through an autodiff.Graph, Parameters
//   - Parameter: Trainable tensor with a zero-initialized gradient accumulator
//   - Linear: Fully connected layer (y = x @ W + b)
//   - Activations: ReLU, LogSoftmax
//   - Losses: NLLLoss, CrossEntropy
//   - Sequential and NewMLP for stacking layers
package nn

import (
	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, rng),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10, rng),
//	    nn.NewLogSoftmax(),
//	)
type Module interface {
	// Forward computes the output of the module given an input tensor.
	//
	// Operations are recorded on g when it is recording. A nil g
	// evaluates without recording.
	Forward(g *autodiff.Graph, input *tensor.Tensor) (*tensor.Tensor, error)

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	Parameters() []*Parameter
}

// NumParameters returns the total number of scalar weights in m.
func NumParameters(m Module) int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.NumElements()
	}
	return n
}
