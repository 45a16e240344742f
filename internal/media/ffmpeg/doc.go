// Package ffmpeg implements audio.Decoder on top of the ffprobe and ffmpeg
// command line tools. ffprobe supplies the stream header; ffmpeg streams
// signed 16-bit little-endian PCM through a pipe so a whole file is never held
// in memory.
package ffmpeg
