package tracking

import "gonum.org/v1/gonum/mat"

// rowColPair is one (row, column) match in the transition distance matrix.
// Rows are always the side with fewer points.
type rowColPair struct {
	row int
	col int
}

// matchRows matches every row of the distance matrix to a column according
// to mode. The result holds exactly min(rows, cols) pairs in row order
// except under AssignmentOptimal, where a row can in principle be left
// unassigned and is then omitted.
func matchRows(dist *mat.Dense, mode AssignmentMode) []rowColPair {
	switch mode {
	case AssignmentGreedyUnique:
		return matchGreedy(dist, true)
	case AssignmentOptimal:
		return matchOptimal(dist)
	default:
		return matchGreedy(dist, false)
	}
}

// matchGreedy picks, for each row in order, the column with minimum
// distance (lowest index on ties). With unique set, a column is removed
// from the pool once claimed; otherwise two rows may pick the same column.
func matchGreedy(dist *mat.Dense, unique bool) []rowColPair {
	rows, cols := dist.Dims()
	used := make([]bool, cols)
	pairs := make([]rowColPair, 0, rows)
	for i := 0; i < rows; i++ {
		best := -1
		for j := 0; j < cols; j++ {
			if unique && used[j] {
				continue
			}
			if best < 0 || dist.At(i, j) < dist.At(i, best) {
				best = j
			}
		}
		if best < 0 {
			continue // unique mode with more rows than columns left
		}
		used[best] = true
		pairs = append(pairs, rowColPair{row: i, col: best})
	}
	return pairs
}

// matchOptimal solves the transition exactly with the Hungarian algorithm.
func matchOptimal(dist *mat.Dense) []rowColPair {
	rows, _ := dist.Dims()
	assign := solveAssignment(dist)
	pairs := make([]rowColPair, 0, rows)
	for i, j := range assign {
		if j >= 0 {
			pairs = append(pairs, rowColPair{row: i, col: j})
		}
	}
	return pairs
}
