// Package preflight provides readiness checks for the directories, stores,
// brokers, and AI endpoints voxpost depends on.
//
// The CLI "voxpost check" command renders RunAll results. Checks that would
// spend provider quota run only when Options.Remote is set.
package preflight
