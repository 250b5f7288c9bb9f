// Package main hosts the solea CLI entrypoint and command graph.
//
// Running solea with no subcommand processes the manifest (or audits the
// dataset when --check-dataset is given). The process, check, config and deps
// subcommands expose the same operations explicitly. Configuration resolution,
// flag overrides and logger construction live here; the work itself is done
// by the internal packages.
package main
