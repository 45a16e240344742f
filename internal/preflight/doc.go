// Package preflight provides readiness checks for the binaries and
// directories audiocheck depends on.
//
// These checks run in two contexts:
//   - The watch command calls RunAll before it starts ingesting files and
//     refuses to start when a required check fails.
//   - The CLI "audiocheck doctor" command prints every check, including the
//     binary versions reported by CheckSystemDeps.
package preflight
