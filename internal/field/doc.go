// Package field provides the dense 2D scalar field container used by the
// peak detection pipeline, together with the numeric collaborators the
// detector relies on: a separable Gaussian smoothing operator and a
// grid-level local-extrema search primitive.
//
// A Field couples a gonum mat.Dense with two labelled axes that map grid
// indices to physical values (frequency, a swept voltage, etc). The field
// is read-only to every consumer in this module.
package field
