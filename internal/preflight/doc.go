// Package preflight provides readiness checks for the filesystem paths and
// binaries a run depends on.
//
// The process and check commands call RunAll before touching the output tree
// and refuse to start when a check fails; "solea deps" renders the same
// results for the operator.
package preflight
