// Package view renders a classified image and its class probabilities.
package view

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Sink receives one image and the model's class probabilities for it.
// Sinks are write-only: nothing flows back into training.
type Sink interface {
	Show(probs []float64, image []float64) error
}

// ErrImageSize is returned when the image is not Width*Height pixels.
var ErrImageSize = errors.New("image size does not match sink geometry")

// shades maps intensity (low to high) to a character.
const shades = " .:-=+*#%@"

// Text renders images as ASCII art followed by one probability bar per class.
type Text struct {
	w        io.Writer
	width    int
	height   int
	barWidth int
}

// NewText creates a Text sink writing width x height images to w.
func NewText(w io.Writer, width, height int) *Text {
	return &Text{w: w, width: width, height: height, barWidth: 40}
}

// Show implements Sink.
//
// Pixel intensities are rescaled to the image's own [min, max] range, so
// normalized inputs render the same as raw ones.
func (t *Text) Show(probs []float64, image []float64) error {
	if len(image) != t.width*t.height {
		return fmt.Errorf("view: %d pixels for %dx%d: %w", len(image), t.width, t.height, ErrImageSize)
	}

	var b strings.Builder
	lo, hi := floats.Min(image), floats.Max(image)
	for row := 0; row < t.height; row++ {
		for _, v := range image[row*t.width : (row+1)*t.width] {
			b.WriteByte(shade(v, lo, hi))
		}
		b.WriteByte('\n')
	}

	best := -1
	if len(probs) > 0 {
		best = floats.MaxIdx(probs)
	}
	for class, p := range probs {
		n := int(math.Round(clamp01(p) * float64(t.barWidth)))
		marker := ' '
		if class == best {
			marker = '<'
		}
		fmt.Fprintf(&b, "%2d %-*s %6.2f%% %c\n", class, t.barWidth, strings.Repeat("#", n), 100*p, marker)
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

func shade(v, lo, hi float64) byte {
	if hi <= lo {
		return shades[0]
	}
	idx := int((v - lo) / (hi - lo) * float64(len(shades)-1))
	return shades[idx]
}

func clamp01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
