package field

import "gonum.org/v1/gonum/mat"

// GridPoint is a grid-index coordinate (row, column) in a 2D matrix.
type GridPoint struct {
	Row int
	Col int
}

// LocalExtrema scans m for points that are strict local maxima (or minima,
// when findMaxima is false) along the given axis: each candidate is compared
// against its two neighbours along that axis only, so every line of the
// complementary axis is searched independently. Points on the edge of the
// search axis are compared against their single in-grid neighbour.
//
// excludeBorder suppresses, per axis, any extremum whose index lies on that
// axis's first or last grid position. Results are ordered by row, then
// column.
func LocalExtrema(m *mat.Dense, axis int, findMaxima bool, excludeBorder [2]bool) []GridPoint {
	r, c := m.Dims()
	better := func(a, b float64) bool { return a > b }
	if !findMaxima {
		better = func(a, b float64) bool { return a < b }
	}

	dims := [2]int{r, c}
	var pts []GridPoint
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			idx := [2]int{i, j}
			k := idx[axis]
			v := m.At(i, j)

			if k > 0 {
				prev := idx
				prev[axis] = k - 1
				if !better(v, m.At(prev[0], prev[1])) {
					continue
				}
			}
			if k < dims[axis]-1 {
				next := idx
				next[axis] = k + 1
				if !better(v, m.At(next[0], next[1])) {
					continue
				}
			}

			if excludeBorder[0] && (i == 0 || i == r-1) {
				continue
			}
			if excludeBorder[1] && (j == 0 || j == c-1) {
				continue
			}
			pts = append(pts, GridPoint{Row: i, Col: j})
		}
	}
	return pts
}
