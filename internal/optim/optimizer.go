// Package optim implements gradient-descent optimizers.
//
// Example usage:
//
//	optimizer, err := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.003})
//	if err != nil {
//	    return err
//	}
//
//	for batch := range batches {
//	    optimizer.ZeroGrad()
//
//	    g := autodiff.NewGraph()
//	    logp, _ := model.Forward(g, batch.Inputs)
//	    loss, _ := nn.NLLLoss(g, logp, batch.Labels)
//	    if err := g.Backward(loss); err != nil {
//	        return err // never step on a failed backward pass
//	    }
//
//	    optimizer.Step()
//	}
package optim

import "errors"

// ErrInvalidLR is returned for a learning rate that is not strictly positive.
var ErrInvalidLR = errors.New("learning rate must be > 0")

// Optimizer is the base interface for all optimization algorithms.
//
// Gradients live in each parameter's accumulator, filled by
// autodiff.Graph.Backward. The training loop owns the ordering:
// ZeroGrad, forward, Backward, Step.
type Optimizer interface {
	// Step applies gradient updates to all parameters in place.
	Step()

	// ZeroGrad zeroes the gradient accumulator of every parameter.
	//
	// Call it before each backward pass; accumulators add up otherwise.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float64
}
