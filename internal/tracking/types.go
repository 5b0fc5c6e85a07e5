package tracking

import "errors"

// Observation is one tracked point in physical coordinates.
type Observation struct {
	Signal  float64 // value on the signal axis (e.g. frequency)
	Control float64 // value on the swept control axis
}

// AssignmentMode selects how previous-slice points are matched to
// next-slice points within one transition.
type AssignmentMode int

const (
	// AssignmentGreedy is the historical row-greedy matcher: each point on
	// the smaller side independently picks its nearest counterpart, and two
	// points may claim the same counterpart.
	AssignmentGreedy AssignmentMode = iota
	// AssignmentGreedyUnique removes a counterpart from the pool once
	// claimed, making matches one-to-one in pick order.
	AssignmentGreedyUnique
	// AssignmentOptimal solves the transition's assignment problem exactly
	// with the Hungarian algorithm.
	AssignmentOptimal
)

// String returns the flag/config spelling of the mode.
func (m AssignmentMode) String() string {
	switch m {
	case AssignmentGreedy:
		return "greedy"
	case AssignmentGreedyUnique:
		return "greedy-unique"
	case AssignmentOptimal:
		return "optimal"
	}
	return "unknown"
}

// ParseAssignmentMode parses the spelling produced by String.
func ParseAssignmentMode(s string) (AssignmentMode, error) {
	switch s {
	case "greedy":
		return AssignmentGreedy, nil
	case "greedy-unique":
		return AssignmentGreedyUnique, nil
	case "optimal":
		return AssignmentOptimal, nil
	}
	return 0, errors.New("unknown assignment mode " + s)
}

// Config holds tracker parameters.
type Config struct {
	// FollowTrajectory extrapolates each previously matched point along its
	// last observed displacement (rescaled to the current control step)
	// before computing distances. Improves matching when peaks move or
	// cross; costs nothing when they are stationary.
	FollowTrajectory bool
	// Assignment selects the per-transition matching strategy.
	Assignment AssignmentMode
}

// DefaultConfig returns the standard tracker configuration.
func DefaultConfig() Config {
	return Config{
		FollowTrajectory: true,
		Assignment:       AssignmentGreedy,
	}
}

// Input validation errors surfaced by Track.
var (
	// ErrEmptyRange reports a control-index range with no entries.
	ErrEmptyRange = errors.New("tracking: empty control index range")
	// ErrShapeMismatch reports indices/values matrices that are not both
	// 2×N with matching N.
	ErrShapeMismatch = errors.New("tracking: indices and values must be matching 2-row matrices")
)
