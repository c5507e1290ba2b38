package nn

import (
	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/tensor"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU) Forward(g *autodiff.Graph, input *tensor.Tensor) (*tensor.Tensor, error) {
	return g.ReLU(input)
}

// Parameters returns nil (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

// LogSoftmax normalizes each row of a [batch, classes] tensor into
// log-probabilities.
type LogSoftmax struct{}

// NewLogSoftmax creates a new LogSoftmax module.
func NewLogSoftmax() *LogSoftmax {
	return &LogSoftmax{}
}

// Forward applies row-wise log-softmax.
func (l *LogSoftmax) Forward(g *autodiff.Graph, input *tensor.Tensor) (*tensor.Tensor, error) {
	return g.LogSoftmax(input)
}

// Parameters returns nil (LogSoftmax has no trainable parameters).
func (l *LogSoftmax) Parameters() []*Parameter {
	return nil
}
