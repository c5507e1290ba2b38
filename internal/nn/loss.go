package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/backprop/internal/autodiff"
	"github.com/born-ml/backprop/internal/tensor"
)

// NLLLoss computes the negative log-likelihood loss.
//
// Loss = -mean(logp[i, labels[i]])
//
// logp must be log-probabilities with shape [batch_size, num_classes],
// typically the output of LogSoftmax. Returns a scalar tensor.
func NLLLoss(g *autodiff.Graph, logp *tensor.Tensor, labels []int) (*tensor.Tensor, error) {
	return g.NLLLoss(logp, labels)
}

// CrossEntropy computes NLLLoss(LogSoftmax(logits), labels).
//
// Use it with models that return raw logits; models built by NewMLP already
// end in LogSoftmax and pair with NLLLoss.
func CrossEntropy(g *autodiff.Graph, logits *tensor.Tensor, labels []int) (*tensor.Tensor, error) {
	logp, err := g.LogSoftmax(logits)
	if err != nil {
		return nil, err
	}
	return g.NLLLoss(logp, labels)
}

// Probabilities returns exp(logp), the class probabilities per row.
func Probabilities(logp *tensor.Tensor) *tensor.Tensor {
	probs := logp.Clone()
	data := probs.Data()
	for i, v := range data {
		data[i] = math.Exp(v)
	}
	return probs
}

// Predict returns the arg-max class of each row.
func Predict(scores *tensor.Tensor) []int {
	preds := make([]int, scores.Rows())
	for i := range preds {
		preds[i] = floats.MaxIdx(scores.Row(i))
	}
	return preds
}

// Accuracy returns the fraction of rows whose arg-max matches the label.
func Accuracy(scores *tensor.Tensor, labels []int) (float64, error) {
	if len(labels) != scores.Rows() {
		return 0, fmt.Errorf("accuracy: %d labels for %d rows: %w", len(labels), scores.Rows(), tensor.ErrShapeMismatch)
	}
	correct := 0
	for i, pred := range Predict(scores) {
		if pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}
