// Package loudness implements the signal analysis used by the amplitude and
// noise validators: a ReplayGain style perceptual loudness estimator, a
// run-length clip detector, and a single-pass noise floor search.
//
// All types consume interleaved signed 16-bit PCM as delivered by the decoder.
// None of them retain the caller's sample slice after a call returns.
package loudness
