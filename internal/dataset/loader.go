package dataset

import (
	"fmt"
	"iter"
	"math/rand/v2"

	"github.com/born-ml/backprop/internal/tensor"
)

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	BatchSize int
	Shuffle   bool
	Seed      uint64 // shuffle seed; epochs draw successive permutations

	// Normalization applied to every pixel: (x - Mean) / Std.
	// A zero Std leaves pixels untouched.
	Mean float64
	Std  float64
}

// Loader batches a Dataset. It implements Source.
type Loader struct {
	data   *Dataset
	config LoaderConfig
	rng    *rand.Rand
}

// NewLoader creates a Loader over data.
func NewLoader(data *Dataset, config LoaderConfig) (*Loader, error) {
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be > 0 (got %d)", config.BatchSize)
	}
	if config.Std < 0 {
		return nil, fmt.Errorf("normalization std must be >= 0 (got %v)", config.Std)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &Loader{
		data:   data,
		config: config,
		rng:    rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// NumBatches returns the number of batches per epoch. The last batch may be
// smaller if the data doesn't divide evenly.
func (l *Loader) NumBatches() int {
	return (l.data.Len() + l.config.BatchSize - 1) / l.config.BatchSize
}

// Batches returns one epoch of batches.
func (l *Loader) Batches() iter.Seq2[Batch, error] {
	numSamples := l.data.Len()
	indices := make([]int, numSamples)
	for i := range indices {
		indices[i] = i
	}
	if l.config.Shuffle {
		l.rng.Shuffle(numSamples, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	return func(yield func(Batch, error) bool) {
		for start := 0; start < numSamples; start += l.config.BatchSize {
			end := min(start+l.config.BatchSize, numSamples)
			if !yield(l.batch(indices[start:end])) {
				return
			}
		}
	}
}

func (l *Loader) batch(indices []int) (Batch, error) {
	pixels := make([]float64, 0, len(indices)*ImageSize)
	labels := make([]int, len(indices))
	for i, idx := range indices {
		pixels = append(pixels, l.data.Images[idx]...)
		labels[i] = l.data.Labels[idx]
	}
	Normalize(pixels, l.config.Mean, l.config.Std)

	inputs, err := tensor.FromSlice(pixels, tensor.Shape{len(indices), ImageSize})
	if err != nil {
		return Batch{}, fmt.Errorf("batch: %w", err)
	}
	return Batch{Inputs: inputs, Labels: labels}, nil
}

// Normalize applies (x - mean) / std to pixels in place. A zero std leaves
// pixels untouched.
func Normalize(pixels []float64, mean, std float64) {
	if std == 0 {
		return
	}
	for i, v := range pixels {
		pixels[i] = (v - mean) / std
	}
}
