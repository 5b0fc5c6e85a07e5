package tracking

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Tracker assigns persistent track identities to per-slice extrema. A
// Tracker is stateless between calls to Track; every run starts a fresh
// id counter and result map.
type Tracker struct {
	Config Config
}

// NewTracker creates a tracker with the given configuration.
func NewTracker(config Config) *Tracker {
	return &Tracker{Config: config}
}

// point is the loop-carried state for one previous-slice extremum.
type point struct {
	sig, ctl float64
	id       int
	// displacement observed when this point was matched in the previous
	// transition; undefined while hasDelta is false (freshly born points).
	deltaSig, deltaCtl float64
	hasDelta           bool
}

// Track traverses controlRange slice by slice and stitches the extrema in
// values into tracks. indices and values are the 2×N matrices produced by
// peaks.Detect: row 1 of indices tags each column with its control-axis
// grid index, and values carries the physical (signal, control) pair used
// for distance computation and output.
//
// The result maps every track id minted during the run (a dense range
// starting at 1) to that track's observations in traversal order. Both
// matrices may be nil together, meaning no extrema anywhere.
func (t *Tracker) Track(controlRange []int, indices, values *mat.Dense) (map[int][]Observation, error) {
	if len(controlRange) == 0 {
		return nil, ErrEmptyRange
	}
	if err := checkShape(indices, values); err != nil {
		return nil, err
	}

	tracks := make(map[int][]Observation)
	nextID := 1

	// Initialization: every extremum of the first slice starts a track.
	prev := slicePoints(indices, values, controlRange[0])
	for i := range prev {
		prev[i].id = nextID
		nextID++
		tracks[prev[i].id] = append(tracks[prev[i].id], Observation{Signal: prev[i].sig, Control: prev[i].ctl})
	}

	for step := 0; step+1 < len(controlRange); step++ {
		next := slicePoints(indices, values, controlRange[step+1])
		p, n := len(prev), len(next)

		if n == 0 {
			// Every previous point dies; nothing to match against.
			prev = nil
			continue
		}
		if p == 0 {
			// Every next point is a birth.
			for i := range next {
				next[i].id = nextID
				nextID++
				tracks[next[i].id] = append(tracks[next[i].id], Observation{Signal: next[i].sig, Control: next[i].ctl})
			}
			prev = next
			continue
		}

		// Comparison positions: raw previous positions, or extrapolated
		// along the last observed displacement rescaled to this step's
		// control spacing.
		ctlStep := next[0].ctl - prev[0].ctl
		cmpSig := make([]float64, p)
		cmpCtl := make([]float64, p)
		for i, pt := range prev {
			cmpSig[i], cmpCtl[i] = pt.sig, pt.ctl
			if t.Config.FollowTrajectory && pt.hasDelta && pt.deltaCtl != 0 {
				scale := ctlStep / pt.deltaCtl
				cmpSig[i] += pt.deltaSig * scale
				cmpCtl[i] += pt.deltaCtl * scale
			}
		}

		// Distance matrix with the smaller side as rows.
		swapped := n < p
		rows, cols := p, n
		if swapped {
			rows, cols = n, p
		}
		dist := mat.NewDense(rows, cols, nil)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				pi, ni := i, j
				if swapped {
					pi, ni = j, i
				}
				dist.Set(i, j, math.Hypot(cmpSig[pi]-next[ni].sig, cmpCtl[pi]-next[ni].ctl))
			}
		}

		pairs := matchRows(dist, t.Config.Assignment)

		claimed := make([]bool, n)
		ids := make([]int, n)
		deltaSig := make([]float64, n)
		deltaCtl := make([]float64, n)
		for _, pr := range pairs {
			pi, ni := pr.row, pr.col
			if swapped {
				pi, ni = pr.col, pr.row
			}
			id := prev[pi].id
			tracks[id] = append(tracks[id], Observation{Signal: next[ni].sig, Control: next[ni].ctl})
			// Last writer wins when the greedy matcher lets two previous
			// points claim the same next point.
			ids[ni] = id
			deltaSig[ni] = next[ni].sig - prev[pi].sig
			deltaCtl[ni] = next[ni].ctl - prev[pi].ctl
			claimed[ni] = true
		}

		// Births: any next point no pair claimed starts a new track. With
		// one-to-one matching this is exactly the n > p surplus; duplicate
		// greedy claims can orphan extra points, which are born too so that
		// every extremum ends up owned by exactly one track.
		for ni := range next {
			if !claimed[ni] {
				ids[ni] = nextID
				nextID++
				tracks[ids[ni]] = append(tracks[ids[ni]], Observation{Signal: next[ni].sig, Control: next[ni].ctl})
			}
		}

		// Advance: unclaimed previous points drop out here (deaths).
		for ni := range next {
			next[ni].id = ids[ni]
			next[ni].deltaSig = deltaSig[ni]
			next[ni].deltaCtl = deltaCtl[ni]
			next[ni].hasDelta = claimed[ni]
		}
		prev = next
	}

	return tracks, nil
}

// checkShape validates the detector output matrices. Both nil is accepted
// as "no extrema anywhere".
func checkShape(indices, values *mat.Dense) error {
	if indices == nil && values == nil {
		return nil
	}
	if indices == nil || values == nil {
		return ErrShapeMismatch
	}
	ir, ic := indices.Dims()
	vr, vc := values.Dims()
	if ir != 2 || vr != 2 {
		return fmt.Errorf("%w: got %d and %d rows", ErrShapeMismatch, ir, vr)
	}
	if ic != vc {
		return fmt.Errorf("%w: %d index columns vs %d value columns", ErrShapeMismatch, ic, vc)
	}
	return nil
}

// slicePoints extracts the points whose control-axis grid index equals
// ctlIdx, in column order.
func slicePoints(indices, values *mat.Dense, ctlIdx int) []point {
	if indices == nil {
		return nil
	}
	_, n := indices.Dims()
	var pts []point
	for j := 0; j < n; j++ {
		if int(math.Round(indices.At(1, j))) != ctlIdx {
			continue
		}
		pts = append(pts, point{sig: values.At(0, j), ctl: values.At(1, j)})
	}
	return pts
}
