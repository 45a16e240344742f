// Package metadata reads the tag view the metadata validator judges.
//
// Tag headers (version, start-of-audio offset, ID3v1 presence) are read
// directly; frame values come from audiometa, with ffprobe's tag dump filling
// fields audiometa does not surface (year, genre, comment, TLEN).
package metadata
