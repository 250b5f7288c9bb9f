package preflight

import (
	"fmt"

	"solea/internal/config"
	"solea/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Mode selects which checks RunAll performs.
type Mode int

const (
	// ModeProcess prepares a processing run.
	ModeProcess Mode = iota
	// ModeCheck prepares a dataset audit.
	ModeCheck
)

// RunAll executes the checks needed for mode. The root folder is created
// when absent.
func RunAll(cfg *config.Config, mode Mode) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckReadableFile("Manifest", cfg.Paths.Manifest))

	switch mode {
	case ModeProcess:
		if err := cfg.EnsureDirectories(); err != nil {
			results = append(results, Result{Name: "Root folder", Detail: err.Error()})
		} else {
			results = append(results, CheckDirectoryAccess("Root folder", cfg.Paths.RootFolder))
		}
		for _, status := range CheckSystemDeps(cfg) {
			results = append(results, depResult(status))
		}
	case ModeCheck:
		results = append(results,
			CheckFileParent("Missing audio log", cfg.Audit.MissingChunksLog),
			CheckFileParent("Missing notes log", cfg.Audit.MissingNotesLog),
		)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

func depResult(status deps.Status) Result {
	if status.Available {
		return Result{Name: status.Name, Passed: true, Detail: status.Path}
	}
	detail := status.Detail
	if detail == "" {
		detail = fmt.Sprintf("binary %q not found", status.Command)
	}
	return Result{Name: status.Name, Passed: status.Optional, Detail: detail}
}
