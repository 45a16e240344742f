// Package services defines shared utilities consumed by the analysis pipeline
// and its collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, validator identities,
//     and correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent job outcomes (error vs. silent reset).
//
// Use these helpers when wiring new pipeline code so operational behaviour
// stays uniform across jobs.
package services
