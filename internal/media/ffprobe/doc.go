// Package ffprobe runs ffprobe and exposes the container and audio stream
// properties the format and metadata validators read.
package ffprobe
