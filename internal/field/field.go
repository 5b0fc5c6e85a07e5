package field

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Axis maps grid indices along one field dimension to physical values.
// Values must be monotonic and carry one entry per grid index.
type Axis struct {
	Name   string
	Values []float64
}

// Len returns the number of grid positions on the axis.
func (a Axis) Len() int { return len(a.Values) }

// Value returns the physical value at grid index i.
func (a Axis) Value(i int) float64 { return a.Values[i] }

// LinearAxis builds an axis with n evenly spaced values from start to stop
// inclusive.
func LinearAxis(name string, start, stop float64, n int) Axis {
	vals := make([]float64, n)
	if n == 1 {
		vals[0] = start
	} else {
		floats.Span(vals, start, stop)
	}
	return Axis{Name: name, Values: vals}
}

// IndexAxis builds an axis whose physical values equal the grid indices.
// Useful when no calibration is available.
func IndexAxis(name string, n int) Axis {
	return LinearAxis(name, 0, float64(n-1), n)
}

// Field is a dense 2D scalar field with labelled axes. Axis 0 indexes rows
// of Data, axis 1 indexes columns.
type Field struct {
	Data *mat.Dense
	Axes [2]Axis
}

// New wraps data with the two axes, validating that axis lengths match the
// matrix dimensions.
func New(data *mat.Dense, axis0, axis1 Axis) (*Field, error) {
	r, c := data.Dims()
	if axis0.Len() != r {
		return nil, fmt.Errorf("axis %q has %d values for %d rows", axis0.Name, axis0.Len(), r)
	}
	if axis1.Len() != c {
		return nil, fmt.Errorf("axis %q has %d values for %d columns", axis1.Name, axis1.Len(), c)
	}
	return &Field{Data: data, Axes: [2]Axis{axis0, axis1}}, nil
}

// Dims returns the grid dimensions (rows, columns).
func (f *Field) Dims() (int, int) { return f.Data.Dims() }

// At returns the field value at grid position (i, j).
func (f *Field) At(i, j int) float64 { return f.Data.At(i, j) }
