package dataset

import "math/rand/v2"

// Synthetic creates a small synthetic digit set for running without the
// MNIST files.
//
// Sample i has label i%10. Each class is a horizontal band whose position
// depends on the digit, with light pixel noise drawn from rng. This is NOT
// realistic MNIST data, just enough signal to exercise the pipeline.
func Synthetic(n int, rng *rand.Rand) *Dataset {
	data := &Dataset{
		Images: make([][]float64, n),
		Labels: make([]int, n),
	}

	for i := 0; i < n; i++ {
		digit := i % NumClasses
		img := make([]float64, ImageSize)

		startRow := digit * 2 // 0, 2, 4, ..., 18
		for row := startRow; row < startRow+8 && row < ImageRows; row++ {
			for col := 5; col < 23; col++ {
				img[row*ImageCols+col] = 0.8
			}
		}
		for j := range img {
			img[j] += 0.1 * rng.Float64()
		}

		data.Images[i] = img
		data.Labels[i] = digit
	}

	return data
}
