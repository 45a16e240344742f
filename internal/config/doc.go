// Package config loads, normalizes, and validates the audiocheck TOML
// configuration.
//
// Defaults live in defaults.go, path expansion and value cleanup in
// normalize.go, and semantic checks in validate.go. The embedded
// sample_config.toml backs `audiocheck config init`.
package config
