// Package audio defines the decoded-audio contract shared by the decoder
// implementations and the analysis pipeline: stream headers, PCM frames, and
// the Decoder/Stream interfaces.
package audio
