package ops

import "github.com/born-ml/backprop/internal/tensor"

// NLLLossOp represents the negative log-likelihood loss.
//
// Forward:
//
//	Loss = -(1/n) Σ_i logp[i, labels[i]]
//
// Backward:
//
//	∂L/∂logp[i,j] = -g/n if j == labels[i], else 0
//
// Assumptions:
//   - logp shape: [batch_size, num_classes], typically LogSoftmax output
//   - labels: one class index per row
//   - Output: scalar loss (mean over batch)
type NLLLossOp struct {
	logp   *tensor.Tensor
	labels []int
	output *tensor.Tensor
}

// NLLLoss computes the mean negative log-likelihood of the labelled classes.
func NLLLoss(logp *tensor.Tensor, labels []int) (*NLLLossOp, error) {
	if err := requireMatrix(KindNLLLoss, "log-probabilities", logp); err != nil {
		return nil, err
	}
	n, classes := logp.Rows(), logp.Cols()
	if len(labels) != n {
		return nil, opErrorf(KindNLLLoss, "%d labels for batch of %d: %w",
			len(labels), n, tensor.ErrShapeMismatch)
	}

	sum := 0.0
	for i, label := range labels {
		if label < 0 || label >= classes {
			return nil, opErrorf(KindNLLLoss, "label %d at row %d outside [0, %d): %w",
				label, i, classes, tensor.ErrOutOfRange)
		}
		sum += logp.At(i, label)
	}

	owned := make([]int, n)
	copy(owned, labels)

	return &NLLLossOp{
		logp:   logp,
		labels: owned,
		output: tensor.Scalar(-sum / float64(n)),
	}, nil
}

// Kind returns KindNLLLoss.
func (op *NLLLossOp) Kind() Kind {
	return KindNLLLoss
}

// Backward computes the gradient with respect to the log-probabilities.
func (op *NLLLossOp) Backward(outputGrad *tensor.Tensor) ([]*tensor.Tensor, error) {
	if err := checkOutputGrad(KindNLLLoss, op.output, outputGrad); err != nil {
		return nil, err
	}
	n := float64(len(op.labels))
	scale := -outputGrad.Data()[0] / n

	grad := tensor.Zeros(op.logp.Shape())
	cols := op.logp.Cols()
	data := grad.Data()
	for i, label := range op.labels {
		data[i*cols+label] = scale
	}
	return []*tensor.Tensor{grad}, nil
}

// Inputs returns the log-probabilities. Labels are not differentiable.
func (op *NLLLossOp) Inputs() []*tensor.Tensor {
	return []*tensor.Tensor{op.logp}
}

// Output returns the scalar loss.
func (op *NLLLossOp) Output() *tensor.Tensor {
	return op.output
}

// Labels returns the class index per row.
func (op *NLLLossOp) Labels() []int {
	return op.labels
}
