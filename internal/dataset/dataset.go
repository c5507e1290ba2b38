// Package dataset supplies labelled image batches to the training loop.
//
// A Source yields one epoch of batches per call to Batches. Data comes from
// the official MNIST IDX files (LoadIDX) or from a small synthetic set
// (Synthetic) when no files are available.
package dataset

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/born-ml/backprop/internal/tensor"
)

// MNIST geometry.
const (
	ImageRows  = 28
	ImageCols  = 28
	ImageSize  = ImageRows * ImageCols
	NumClasses = 10
)

// ErrInvalidFormat is returned for malformed dataset files.
var ErrInvalidFormat = errors.New("invalid dataset format")

// Batch is one mini-batch: Inputs has shape [n, ImageSize] and Labels has n
// class indices.
type Batch struct {
	Inputs *tensor.Tensor
	Labels []int
}

// Size returns the number of examples in the batch.
func (b Batch) Size() int {
	return len(b.Labels)
}

// Source is a finite, restartable sequence of batches. Every call to
// Batches starts a new epoch.
type Source interface {
	Batches() iter.Seq2[Batch, error]
}

// Dataset holds images scaled to [0, 1] and their labels.
type Dataset struct {
	Images [][]float64 // [num_samples][ImageSize]
	Labels []int       // [num_samples]
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Images)
}

// Validate checks that images and labels line up and labels are in range.
func (d *Dataset) Validate() error {
	if len(d.Images) != len(d.Labels) {
		return fmt.Errorf("image count (%d) != label count (%d): %w", len(d.Images), len(d.Labels), ErrInvalidFormat)
	}
	for i, img := range d.Images {
		if len(img) != ImageSize {
			return fmt.Errorf("image %d has %d pixels, want %d: %w", i, len(img), ImageSize, ErrInvalidFormat)
		}
		if d.Labels[i] < 0 || d.Labels[i] >= NumClasses {
			return fmt.Errorf("label %d at sample %d: %w", d.Labels[i], i, tensor.ErrOutOfRange)
		}
	}
	return nil
}

// Split splits the dataset into train and validation sets.
//
// validationRatio is the fraction of samples (taken from the tail) that goes
// to the validation set. The two halves share backing storage with d.
func (d *Dataset) Split(validationRatio float64) (*Dataset, *Dataset, error) {
	if validationRatio < 0 || validationRatio >= 1 {
		return nil, nil, fmt.Errorf("validation ratio must be in [0, 1) (got %v)", validationRatio)
	}
	splitIdx := d.Len() - int(math.Round(float64(d.Len())*validationRatio))

	train := &Dataset{Images: d.Images[:splitIdx], Labels: d.Labels[:splitIdx]}
	validation := &Dataset{Images: d.Images[splitIdx:], Labels: d.Labels[splitIdx:]}
	return train, validation, nil
}
