// Package main hosts the audiocheck CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the SQLite store, the
// validator registry, the worker pool, and the job manager together, then
// hands terminal invocations to them: one-shot checks of files and URLs,
// validator enable state, run history, watch-folder ingestion, environment
// checks, verdict notifications, and configuration scaffolding.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
