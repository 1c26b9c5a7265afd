// Package logs tails the daemon log file for the CLI.
//
// Tail prints the last N lines with bounded memory and, in follow mode, polls
// for appended lines until the context ends. A file that is truncated or
// rotated underneath the follower is re-read from the start.
package logs
