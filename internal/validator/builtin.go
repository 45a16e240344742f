package validator

import "audiocheck/internal/report"

// Built-in identities in declared order.
const (
	IDFormat    = "format"
	IDAmplitude = "amplitude"
	IDNoise     = "noise"
	IDFilename  = "filename"
	IDMetadata  = "metadata"
)

const (
	req = report.Required
	opt = report.Optional
	ign = report.Ignore
)

// Builtins returns the built-in descriptor table. Columns are the standard,
// strict, and lenient profiles.
func Builtins() []Descriptor {
	return []Descriptor{
		{ID: IDFormat, Strictness: [3]report.Strictness{req, req, req}, DefaultEnabled: true, New: newFormat},
		{ID: IDAmplitude, Strictness: [3]report.Strictness{req, req, opt}, DefaultEnabled: true, New: newAmplitude},
		{ID: IDNoise, Strictness: [3]report.Strictness{opt, req, ign}, DefaultEnabled: true, New: newNoise},
		{ID: IDFilename, Strictness: [3]report.Strictness{opt, req, ign}, DefaultEnabled: false, New: newFilename},
		{ID: IDMetadata, Strictness: [3]report.Strictness{opt, req, opt}, DefaultEnabled: true, New: newMetadata},
	}
}
