package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SmoothGaussian applies a separable Gaussian blur to m and returns a new
// matrix of identical shape. sigmaRow and sigmaCol are the standard
// deviations along axis 0 and axis 1 in grid units; a sigma of zero skips
// smoothing along that axis. The kernel is truncated at truncate*sigma on
// each side and the field is extended by reflection at the boundaries.
//
// Returns an error when the kernel support along an axis exceeds that
// axis's length.
func SmoothGaussian(m *mat.Dense, sigmaRow, sigmaCol, truncate float64) (*mat.Dense, error) {
	r, c := m.Dims()
	out := mat.DenseCopyOf(m)

	if sigmaRow > 0 {
		k := gaussianKernel(sigmaRow, truncate)
		if len(k) > 2*r-1 {
			return nil, fmt.Errorf("gaussian kernel support %d exceeds %d rows", len(k), r)
		}
		smoothed := mat.NewDense(r, c, nil)
		for j := 0; j < c; j++ {
			col := mat.Col(nil, j, out)
			conv := convolveReflect(col, k)
			for i := 0; i < r; i++ {
				smoothed.Set(i, j, conv[i])
			}
		}
		out = smoothed
	}

	if sigmaCol > 0 {
		k := gaussianKernel(sigmaCol, truncate)
		if len(k) > 2*c-1 {
			return nil, fmt.Errorf("gaussian kernel support %d exceeds %d columns", len(k), c)
		}
		smoothed := mat.NewDense(r, c, nil)
		for i := 0; i < r; i++ {
			row := mat.Row(nil, i, out)
			conv := convolveReflect(row, k)
			for j := 0; j < c; j++ {
				smoothed.Set(i, j, conv[j])
			}
		}
		out = smoothed
	}

	return out, nil
}

// gaussianKernel builds a normalised 1D Gaussian kernel with the given
// standard deviation, truncated at truncate*sigma (rounded up) per side.
func gaussianKernel(sigma, truncate float64) []float64 {
	radius := int(math.Ceil(truncate * sigma))
	if radius < 1 {
		radius = 1
	}
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+radius] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// convolveReflect convolves a signal with a centred kernel, reflecting the
// signal at both ends so the output has the same length as the input.
func convolveReflect(signal, kernel []float64) []float64 {
	n := len(signal)
	radius := len(kernel) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		acc := 0.0
		for t := -radius; t <= radius; t++ {
			idx := reflectIndex(i+t, n)
			acc += signal[idx] * kernel[t+radius]
		}
		out[i] = acc
	}
	return out
}

// reflectIndex maps an out-of-range index back into [0, n) by mirroring
// about the array edges (the "reflect" boundary mode: d c b a | a b c d).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}
