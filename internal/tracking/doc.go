// Package tracking links per-slice extrema into persistent tracks across a
// swept control axis. It is an online, one-step-ahead tracker: each
// control-axis transition matches the previous slice's points to the next
// slice's points by Euclidean distance in physical (signal, control) space,
// optionally extrapolating each point along its last observed displacement
// first. Points that find no match die silently; points nothing claimed are
// born as new tracks. Track ids are dense positive integers minted in
// traversal order and never reused.
//
// The default matcher reproduces the historical row-greedy behaviour, where
// two previous points may claim the same next point. AssignmentGreedyUnique
// and AssignmentOptimal provide stricter alternatives.
package tracking
