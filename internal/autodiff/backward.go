package autodiff

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/backprop/internal/tensor"
)

// Usage errors returned by Backward. They are distinct from the shape and
// numeric errors raised by the operations themselves.
var (
	// ErrNotScalar is returned when Backward is called on a multi-element tensor.
	ErrNotScalar = errors.New("autodiff: backward requires a scalar tensor")

	// ErrNoGraph is returned when the tensor was not produced by a recorded
	// operation: tracking was disabled, the graph was released, or the
	// tensor is a leaf.
	ErrNoGraph = errors.New("autodiff: tensor has no recorded graph")
)

// Backward computes d(loss)/d(leaf) for every leaf tensor that requires
// gradients and adds the result into that tensor's accumulator.
//
// Algorithm:
//  1. Seed the loss gradient with 1
//  2. Walk nodes backwards from the loss's producer
//  3. For each node with an incoming gradient, apply its backward rule
//  4. Sum gradients when the same tensor feeds several nodes
//  5. Add the final leaf gradients into their accumulators
//
// Gradients are committed only after the whole walk succeeds; on error no
// accumulator is touched. The graph is released when Backward returns, so
// it can run at most once per graph.
func (g *Graph) Backward(loss *tensor.Tensor) error {
	if loss == nil {
		return fmt.Errorf("%w: nil loss", ErrNoGraph)
	}
	if !loss.Shape().IsScalar() {
		return fmt.Errorf("%w: got shape %v", ErrNotScalar, loss.Shape())
	}
	if g == nil || g.released {
		return fmt.Errorf("%w: graph is nil or already released", ErrNoGraph)
	}
	root, ok := g.producers[loss]
	if !ok {
		return fmt.Errorf("%w: loss was not produced by a recorded operation", ErrNoGraph)
	}
	defer g.Release()

	grads := map[*tensor.Tensor]*tensor.Tensor{
		loss: tensor.Full(loss.Shape(), 1),
	}

	for i := root.seq; i >= 0; i-- {
		node := g.nodes[i]
		out := node.op.Output()
		outGrad, hasGrad := grads[out]
		if !hasGrad {
			// Not connected to the loss.
			continue
		}
		delete(grads, out)

		inputGrads, err := node.op.Backward(outGrad)
		if err != nil {
			return fmt.Errorf("backward through node %d: %w", node.seq, err)
		}
		accumulate(grads, node.op.Inputs(), inputGrads)
	}

	return commit(grads)
}

// accumulate adds each input gradient into grads, summing contributions
// from multiple consumers.
func accumulate(grads map[*tensor.Tensor]*tensor.Tensor, inputs, inputGrads []*tensor.Tensor) {
	for j, input := range inputs {
		if j >= len(inputGrads) || inputGrads[j] == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			floats.Add(existing.Data(), inputGrads[j].Data())
			continue
		}
		grads[input] = inputGrads[j]
	}
}

// commit adds leaf gradients into accumulators. It validates every shape
// first so a failure leaves all accumulators untouched.
func commit(grads map[*tensor.Tensor]*tensor.Tensor) error {
	for t, grad := range grads {
		if t.RequiresGrad() && !grad.Shape().Equal(t.Shape()) {
			return fmt.Errorf("gradient shape %v for leaf %v: %w", grad.Shape(), t.Shape(), tensor.ErrShapeMismatch)
		}
	}
	for t, grad := range grads {
		if !t.RequiresGrad() {
			continue
		}
		if err := t.AccumulateGrad(grad); err != nil {
			return err
		}
	}
	return nil
}
