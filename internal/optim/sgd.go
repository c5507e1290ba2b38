package optim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/backprop/internal/nn"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD struct {
	params     []*nn.Parameter
	lr         float64
	momentum   float64
	velocities map[*nn.Parameter][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate, must be > 0
	Momentum float64 // Momentum factor in [0, 1), 0 disables momentum
}

// NewSGD creates a new SGD optimizer over params.
func NewSGD(params []*nn.Parameter, config SGDConfig) (*SGD, error) {
	if !(config.LR > 0) {
		return nil, fmt.Errorf("sgd: %w (got %v)", ErrInvalidLR, config.LR)
	}
	if config.Momentum < 0 || config.Momentum >= 1 {
		return nil, fmt.Errorf("sgd: momentum must be in [0, 1) (got %v)", config.Momentum)
	}
	return &SGD{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter][]float64),
	}, nil
}

// Step performs a single optimization step.
//
// Applies gradient descent update to all parameters:
//   - Without momentum: param -= lr * grad
//   - With momentum: velocity = momentum * velocity + grad, param -= lr * velocity
func (s *SGD) Step() {
	for _, param := range s.params {
		grad := param.Grad()
		if s.momentum == 0 {
			floats.AddScaled(param.Data(), -s.lr, grad)
			continue
		}

		velocity, exists := s.velocities[param]
		if !exists {
			velocity = make([]float64, len(grad))
			s.velocities[param] = velocity
		}
		floats.Scale(s.momentum, velocity)
		floats.Add(velocity, grad)
		floats.AddScaled(param.Data(), -s.lr, velocity)
	}
}

// ZeroGrad zeroes the gradient accumulator of every parameter.
func (s *SGD) ZeroGrad() {
	for _, param := range s.params {
		param.ZeroGrad()
	}
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) error {
	if !(lr > 0) {
		return fmt.Errorf("sgd: %w (got %v)", ErrInvalidLR, lr)
	}
	s.lr = lr
	return nil
}

// Momentum returns the momentum factor.
func (s *SGD) Momentum() float64 {
	return s.momentum
}
