package tracking

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

// buildDetections assembles the 2×N indices/values matrices the detector
// would produce. slices[k] holds the signal values present at control grid
// index k; controls[k] is that slice's physical control value.
func buildDetections(t *testing.T, controls []float64, slices [][]float64) (indices, values *mat.Dense) {
	t.Helper()
	var n int
	for _, s := range slices {
		n += len(s)
	}
	if n == 0 {
		return nil, nil
	}
	indices = mat.NewDense(2, n, nil)
	values = mat.NewDense(2, n, nil)
	col := 0
	for k, s := range slices {
		for si, sv := range s {
			indices.Set(0, col, float64(si))
			indices.Set(1, col, float64(k))
			values.Set(0, col, sv)
			values.Set(1, col, controls[k])
			col++
		}
	}
	return indices, values
}

func fullRange(slices [][]float64) []int {
	r := make([]int, len(slices))
	for i := range r {
		r[i] = i
	}
	return r
}

func sortedIDs(tracks map[int][]Observation) []int {
	ids := make([]int, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func TestTrackEmptyRange(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	_, err := tr.Track(nil, nil, nil)
	if !errors.Is(err, ErrEmptyRange) {
		t.Fatalf("expected ErrEmptyRange, got %v", err)
	}
}

func TestTrackShapeMismatch(t *testing.T) {
	tr := NewTracker(DefaultConfig())

	threeRows := mat.NewDense(3, 2, nil)
	twoByTwo := mat.NewDense(2, 2, nil)
	twoByThree := mat.NewDense(2, 3, nil)

	cases := []struct {
		name            string
		indices, values *mat.Dense
	}{
		{"wrong row count", threeRows, twoByTwo},
		{"column count mismatch", twoByTwo, twoByThree},
		{"one matrix nil", twoByTwo, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tr.Track([]int{0, 1}, tc.indices, tc.values)
			if !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("expected ErrShapeMismatch, got %v", err)
			}
		})
	}
}

func TestTrackNoExtremaAnywhere(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	tracks, err := tr.Track([]int{0, 1, 2}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("expected no tracks, got %d", len(tracks))
	}
}

func TestTrackSingleSlice(t *testing.T) {
	indices, values := buildDetections(t,
		[]float64{0.0},
		[][]float64{{1.0, 2.5, 7.0}},
	)
	tr := NewTracker(DefaultConfig())
	tracks, err := tr.Track([]int{0}, indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[int][]Observation{
		1: {{Signal: 1.0, Control: 0.0}},
		2: {{Signal: 2.5, Control: 0.0}},
		3: {{Signal: 7.0, Control: 0.0}},
	}
	if diff := cmp.Diff(want, tracks); diff != "" {
		t.Errorf("single-slice tracks mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackStationaryPeaks(t *testing.T) {
	// Peaks that do not move must map to exactly one track per peak with
	// one observation per slice, for any number of slices.
	const nSlices = 6
	controls := make([]float64, nSlices)
	slices := make([][]float64, nSlices)
	for k := 0; k < nSlices; k++ {
		controls[k] = 0.1 * float64(k)
		slices[k] = []float64{2.0, 5.0, 9.0}
	}
	indices, values := buildDetections(t, controls, slices)

	tr := NewTracker(DefaultConfig())
	tracks, err := tr.Track(fullRange(slices), indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tracks) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(tracks))
	}
	for id, obs := range tracks {
		if len(obs) != nSlices {
			t.Errorf("track %d: expected %d observations, got %d", id, nSlices, len(obs))
		}
		for i := 1; i < len(obs); i++ {
			if obs[i].Signal != obs[0].Signal {
				t.Errorf("track %d drifted: %v -> %v", id, obs[0].Signal, obs[i].Signal)
			}
		}
	}
}

func TestTrackBirthAndDeath(t *testing.T) {
	// Slice A has one peak, B has two, C has one again: the survivor must
	// be the feature near 5.0, giving exactly 2 tracks with lengths 2+2.
	indices, values := buildDetections(t,
		[]float64{0.0, 0.1, 0.2},
		[][]float64{
			{1.0},
			{1.0, 5.0},
			{5.0},
		},
	)
	tr := NewTracker(DefaultConfig())
	tracks, err := tr.Track([]int{0, 1, 2}, indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("expected exactly 2 tracks, got %d", len(tracks))
	}
	total := 0
	for _, obs := range tracks {
		total += len(obs)
	}
	if total != 4 {
		t.Errorf("expected 4 observations across all tracks, got %d", total)
	}

	want := map[int][]Observation{
		1: {{Signal: 1.0, Control: 0.0}, {Signal: 1.0, Control: 0.1}},
		2: {{Signal: 5.0, Control: 0.1}, {Signal: 5.0, Control: 0.2}},
	}
	if diff := cmp.Diff(want, tracks); diff != "" {
		t.Errorf("birth/death tracks mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackCrossingPeaksWithTrajectory(t *testing.T) {
	// Two peaks moving at constant velocity cross near slice 2. With
	// uniform control spacing the extrapolated position is exact, so each
	// track keeps its own feature through the crossing.
	controls := []float64{0.0, 0.1, 0.2, 0.3, 0.4}
	slices := [][]float64{
		{0.0, 4.2},
		{1.0, 3.2},
		{2.0, 2.2},
		{3.0, 1.2},
		{4.0, 0.2},
	}
	indices, values := buildDetections(t, controls, slices)

	tr := NewTracker(Config{FollowTrajectory: true, Assignment: AssignmentGreedy})
	tracks, err := tr.Track(fullRange(slices), indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	wantRising := []float64{0.0, 1.0, 2.0, 3.0, 4.0}
	wantFalling := []float64{4.2, 3.2, 2.2, 1.2, 0.2}
	for i, sv := range tracks[1] {
		if sv.Signal != wantRising[i] {
			t.Errorf("track 1 slice %d: expected signal %v, got %v", i, wantRising[i], sv.Signal)
		}
	}
	for i, sv := range tracks[2] {
		if sv.Signal != wantFalling[i] {
			t.Errorf("track 2 slice %d: expected signal %v, got %v", i, wantFalling[i], sv.Signal)
		}
	}
}

func TestTrackCrossingPeaksWithoutTrajectory(t *testing.T) {
	// The same crossing without extrapolation: raw-position matching swaps
	// the identities at the crossing, so neither track stays monotonic.
	controls := []float64{0.0, 0.1, 0.2, 0.3, 0.4}
	slices := [][]float64{
		{0.0, 4.2},
		{1.0, 3.2},
		{2.0, 2.2},
		{3.0, 1.2},
		{4.0, 0.2},
	}
	indices, values := buildDetections(t, controls, slices)

	tr := NewTracker(Config{FollowTrajectory: false, Assignment: AssignmentGreedy})
	tracks, err := tr.Track(fullRange(slices), indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs := tracks[1]
	if len(obs) != 5 {
		t.Fatalf("expected track 1 to span all slices, got %d observations", len(obs))
	}
	swapped := false
	for i := 1; i < len(obs); i++ {
		if obs[i].Signal < obs[i-1].Signal {
			swapped = true
		}
	}
	if !swapped {
		t.Errorf("expected raw-position matching to swap identities at the crossing, track 1 = %v", obs)
	}
}

func TestTrackExtrapolationRescalesControlStep(t *testing.T) {
	// Control spacing doubles between the second and third slice. The
	// observed displacement must be rescaled to the new step, landing
	// exactly on the true continuation rather than the nearer decoy.
	controls := []float64{0.0, 0.1, 0.3}
	slices := [][]float64{
		{0.0},
		{1.0},
		{2.4, 3.0}, // decoy at 2.4, true continuation at 3.0
	}
	indices, values := buildDetections(t, controls, slices)

	tr := NewTracker(Config{FollowTrajectory: true, Assignment: AssignmentGreedy})
	tracks, err := tr.Track(fullRange(slices), indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Observation{
		{Signal: 0.0, Control: 0.0},
		{Signal: 1.0, Control: 0.1},
		{Signal: 3.0, Control: 0.3},
	}
	if diff := cmp.Diff(want, tracks[1]); diff != "" {
		t.Errorf("rescaled extrapolation mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackZeroExtremaSlice(t *testing.T) {
	// An empty slice kills every live track; features reappearing after it
	// are new identities, never resurrections.
	controls := []float64{0.0, 0.1, 0.2}
	slices := [][]float64{
		{1.0, 4.0},
		{},
		{1.0, 4.0},
	}
	indices, values := buildDetections(t, controls, slices)

	tr := NewTracker(DefaultConfig())
	tracks, err := tr.Track(fullRange(slices), indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := sortedIDs(tracks); !cmp.Equal(got, []int{1, 2, 3, 4}) {
		t.Fatalf("expected track ids 1..4, got %v", got)
	}
	for id, obs := range tracks {
		if len(obs) != 1 {
			t.Errorf("track %d: expected length 1, got %d", id, len(obs))
		}
	}
}

func TestTrackIDsDenseAndMonotonic(t *testing.T) {
	// Births and deaths across a ragged sweep: ids must still form a dense
	// range starting at 1.
	controls := []float64{0.0, 0.1, 0.2, 0.3}
	slices := [][]float64{
		{1.0, 5.0},
		{1.0, 5.0, 9.0},
		{5.0},
		{5.0, 2.0, 12.0},
	}
	indices, values := buildDetections(t, controls, slices)

	tr := NewTracker(DefaultConfig())
	tracks, err := tr.Track(fullRange(slices), indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := sortedIDs(tracks)
	for i, id := range ids {
		if id != i+1 {
			t.Fatalf("track ids not dense from 1: %v", ids)
		}
	}
}

func TestTrackObservationConservation(t *testing.T) {
	// With one-to-one matching every detected extremum lands in exactly
	// one track, so track lengths sum to the total detection count.
	controls := []float64{0.0, 0.1, 0.2, 0.3, 0.4}
	slices := [][]float64{
		{1.0, 6.0},
		{1.1, 6.2, 3.0},
		{1.2, 3.1},
		{},
		{8.0},
	}
	indices, values := buildDetections(t, controls, slices)
	_, n := values.Dims()

	tr := NewTracker(Config{FollowTrajectory: true, Assignment: AssignmentGreedyUnique})
	tracks, err := tr.Track(fullRange(slices), indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0
	seen := make(map[Observation]int)
	for _, obs := range tracks {
		total += len(obs)
		for _, o := range obs {
			seen[o]++
		}
	}
	if total != n {
		t.Errorf("expected %d observations across tracks, got %d", n, total)
	}
	for o, count := range seen {
		if count != 1 {
			t.Errorf("observation %v claimed by %d tracks", o, count)
		}
	}
}

func TestTrackGreedyDuplicateClaim(t *testing.T) {
	// Two previous points both prefer the same next point. The historical
	// greedy matcher lets both inherit it and the orphaned next point is
	// born as a new track; the unique and optimal matchers keep the
	// assignment one-to-one.
	controls := []float64{0.0, 0.1}
	slices := [][]float64{
		{0.0, 1.0},
		{0.4, 10.0},
	}
	indices, values := buildDetections(t, controls, slices)

	t.Run("greedy", func(t *testing.T) {
		tr := NewTracker(Config{FollowTrajectory: true, Assignment: AssignmentGreedy})
		tracks, err := tr.Track([]int{0, 1}, indices, values)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := map[int][]Observation{
			1: {{Signal: 0.0, Control: 0.0}, {Signal: 0.4, Control: 0.1}},
			2: {{Signal: 1.0, Control: 0.0}, {Signal: 0.4, Control: 0.1}},
			3: {{Signal: 10.0, Control: 0.1}},
		}
		if diff := cmp.Diff(want, tracks); diff != "" {
			t.Errorf("duplicate-claim tracks mismatch (-want +got):\n%s", diff)
		}
	})

	for _, mode := range []AssignmentMode{AssignmentGreedyUnique, AssignmentOptimal} {
		t.Run(mode.String(), func(t *testing.T) {
			tr := NewTracker(Config{FollowTrajectory: true, Assignment: mode})
			tracks, err := tr.Track([]int{0, 1}, indices, values)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tracks) != 2 {
				t.Fatalf("expected 2 tracks, got %d", len(tracks))
			}
			total := 0
			for _, obs := range tracks {
				total += len(obs)
			}
			if total != 4 {
				t.Errorf("expected 4 observations, got %d", total)
			}
		})
	}
}

func TestTrackDeterminism(t *testing.T) {
	controls := []float64{0.0, 0.1, 0.2, 0.3}
	slices := [][]float64{
		{1.0, 5.0, 5.0}, // tie: two identical detections
		{1.0, 5.0},
		{1.0, 5.0, 7.0},
		{7.0},
	}
	indices, values := buildDetections(t, controls, slices)

	tr := NewTracker(DefaultConfig())
	first, err := tr.Track(fullRange(slices), indices, values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := tr.Track(fullRange(slices), indices, values)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d diverged (-first +again):\n%s", i, diff)
		}
	}
}

func TestParseAssignmentMode(t *testing.T) {
	for _, mode := range []AssignmentMode{AssignmentGreedy, AssignmentGreedyUnique, AssignmentOptimal} {
		parsed, err := ParseAssignmentMode(mode.String())
		if err != nil {
			t.Errorf("round trip %v: %v", mode, err)
		}
		if parsed != mode {
			t.Errorf("round trip %v: got %v", mode, parsed)
		}
	}
	if _, err := ParseAssignmentMode("viterbi"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
