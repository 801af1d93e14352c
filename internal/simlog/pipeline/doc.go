// Package pipeline runs the full log-to-vector transform for one log:
// load, build frames, assemble the four feature matrices and denoise them.
//
// This package is the composition root of simlog; none of the stage
// packages import it.
package pipeline
