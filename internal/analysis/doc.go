// Package analysis runs one validator set over one decoded stream.
//
// The runner initializes every validator, begins analysis with each
// validator's predecessors, fans every decoded frame out to the frame
// consumers in declared order, and ends analysis. A validator fault (error or
// panic) becomes the report's fatal override and skips the remaining
// validators. Cancellation stops at the next frame boundary and leaves the
// report open.
package analysis
