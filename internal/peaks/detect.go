// Package peaks detects local extrema in a swept 2D field, one control-axis
// slice at a time. The field is smoothed with a mild Gaussian blur before
// searching so that measurement noise does not fragment a single physical
// peak into several detections.
package peaks

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/peaktrace/internal/field"
)

// Kernel holds the smoothing parameters applied before extremum search.
// Sigmas are in grid units. The blur is asymmetric on purpose: heavier along
// the signal axis where noise lives, light along the control axis so peaks
// in neighbouring slices do not bleed into each other.
type Kernel struct {
	SigmaSignal  float64
	SigmaControl float64
	Truncate     float64 // kernel support in sigmas per side
}

// DefaultKernel returns the standard mild blur.
func DefaultKernel() Kernel {
	return Kernel{
		SigmaSignal:  2.0,
		SigmaControl: 0.5,
		Truncate:     4.0,
	}
}

// Detect smooths f and locates the local extrema of every control-axis
// slice. signalAxis selects which field axis (0 or 1) carries the signal;
// the complementary axis is the swept control axis. findMaxima selects
// peaks; false selects valleys.
//
// It returns two 2×N matrices: indices holds grid coordinates (row 0 =
// signal index, row 1 = control index) and values the matching physical
// coordinates, pooled over all slices in increasing control order. Extrema
// on the signal-axis boundary are suppressed as smoothing artifacts; slices
// at the ends of the control sweep are retained. When no extrema are found
// both matrices are nil.
func Detect(f *field.Field, signalAxis int, findMaxima bool, k Kernel) (indices, values *mat.Dense, err error) {
	if signalAxis != 0 && signalAxis != 1 {
		return nil, nil, fmt.Errorf("signal axis must be 0 or 1, got %d", signalAxis)
	}
	controlAxis := 1 - signalAxis

	var sigmaRow, sigmaCol float64
	if signalAxis == 0 {
		sigmaRow, sigmaCol = k.SigmaSignal, k.SigmaControl
	} else {
		sigmaRow, sigmaCol = k.SigmaControl, k.SigmaSignal
	}

	smoothed, err := field.SmoothGaussian(f.Data, sigmaRow, sigmaCol, k.Truncate)
	if err != nil {
		return nil, nil, fmt.Errorf("smooth field: %w", err)
	}

	var exclude [2]bool
	exclude[signalAxis] = true
	pts := field.LocalExtrema(smoothed, signalAxis, findMaxima, exclude)
	if len(pts) == 0 {
		return nil, nil, nil
	}

	// Group by slice: control index first, signal index second.
	sort.Slice(pts, func(a, b int) bool {
		pa, pb := pts[a], pts[b]
		ca, cb := axisIndex(pa, controlAxis), axisIndex(pb, controlAxis)
		if ca != cb {
			return ca < cb
		}
		return axisIndex(pa, signalAxis) < axisIndex(pb, signalAxis)
	})

	n := len(pts)
	indices = mat.NewDense(2, n, nil)
	values = mat.NewDense(2, n, nil)
	for j, pt := range pts {
		si := axisIndex(pt, signalAxis)
		ci := axisIndex(pt, controlAxis)
		indices.Set(0, j, float64(si))
		indices.Set(1, j, float64(ci))
		values.Set(0, j, f.Axes[signalAxis].Value(si))
		values.Set(1, j, f.Axes[controlAxis].Value(ci))
	}
	return indices, values, nil
}

func axisIndex(pt field.GridPoint, axis int) int {
	if axis == 0 {
		return pt.Row
	}
	return pt.Col
}
