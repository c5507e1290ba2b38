package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter // [in_features, out_features]
	bias        *Parameter // [out_features]
}

// NewLinear creates a new Linear layer with Xavier-uniform weights and zero bias.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	weight := Xavier(inFeatures, outFeatures, tensor.Shape{inFeatures, outFeatures}, rng)
	bias := tensor.Zeros(tensor.Shape{outFeatures})
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", bias),
	}
}

// NewLinearFrom creates a Linear layer around existing tensors.
// weight must be [in, out]; bias must be [out] or nil for no bias.
func NewLinearFrom(weight, bias *tensor.Tensor) (*Linear, error) {
	if !weight.Shape().IsMatrix() {
		return nil, fmt.Errorf("linear weight must be 2-D, got %v: %w", weight.Shape(), tensor.ErrShapeMismatch)
	}
	l := &Linear{
		inFeatures:  weight.Rows(),
		outFeatures: weight.Cols(),
		weight:      NewParameter("weight", weight),
	}
	if bias != nil {
		if !bias.Shape().Equal(tensor.Shape{l.outFeatures}) {
			return nil, fmt.Errorf("linear bias shape %v, want [%d]: %w", bias.Shape(), l.outFeatures, tensor.ErrShapeMismatch)
		}
		l.bias = NewParameter("bias", bias)
	}
	return l, nil
}

// Forward computes x @ W + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear) Forward(g *autodiff.Graph, input *tensor.Tensor) (*tensor.Tensor, error) {
	var b *tensor.Tensor
	if l.bias != nil {
		b = l.bias.Tensor()
	}
	return g.Linear(input, l.weight.Tensor(), b)
}

// Parameters returns [weight, bias] if bias is present, otherwise [weight].
func (l *Linear) Parameters() []*Parameter {
	if l.bias != nil {
		return []*Parameter{l.weight, l.bias}
	}
	return []*Parameter{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}
