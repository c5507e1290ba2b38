package autodiff

import (
	"github.com/born-ml/backprop/internal/autodiff/ops"
	"github.com/born-ml/backprop/internal/tensor"
)

// Linear computes x @ w + b and records a linear node. b may be nil.
func (g *Graph) Linear(x, w, b *tensor.Tensor) (*tensor.Tensor, error) {
	op, err := ops.Linear(x, w, b)
	if err != nil {
		return nil, err
	}
	g.record(op)
	return op.Output(), nil
}

// ReLU computes max(0, x) and records a relu node.
func (g *Graph) ReLU(x *tensor.Tensor) (*tensor.Tensor, error) {
	op, err := ops.ReLU(x)
	if err != nil {
		return nil, err
	}
	g.record(op)
	return op.Output(), nil
}

// LogSoftmax computes row-wise log-softmax and records a log_softmax node.
func (g *Graph) LogSoftmax(x *tensor.Tensor) (*tensor.Tensor, error) {
	op, err := ops.LogSoftmax(x)
	if err != nil {
		return nil, err
	}
	g.record(op)
	return op.Output(), nil
}

// NLLLoss computes the mean negative log-likelihood of labels under logp
// and records an nll_loss node. The result is a scalar tensor.
func (g *Graph) NLLLoss(logp *tensor.Tensor, labels []int) (*tensor.Tensor, error) {
	op, err := ops.NLLLoss(logp, labels)
	if err != nil {
		return nil, err
	}
	g.record(op)
	return op.Output(), nil
}
