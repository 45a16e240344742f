// Package validator defines the validator contract, the strictness-aware
// recording helper every validator embeds, the registry that produces fresh
// validator sets per run, and the built-in validators.
//
// A run drives each validator through Initialize, BeginAnalysis, zero or more
// AnalyzeFrame calls (FrameConsumer only), and EndAnalysis. The analysis
// package owns that sequencing; validators only record findings.
package validator
