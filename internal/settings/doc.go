// Package settings adapts the loaded configuration into the view validators
// consume: typed per-validator values, strictness overrides, localized
// message text, and help links.
package settings
