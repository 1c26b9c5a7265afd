// Package main hosts the voxpost CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the worker daemon in the foreground
// (serve) and translates every other invocation into HTTP calls against the
// daemon's API: queueing audio for article generation, inspecting articles
// and jobs, retrying failed runs, and configuration scaffolding.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
