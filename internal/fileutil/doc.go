// Package fileutil holds small filesystem helpers shared by the pipeline and
// the auditor.
package fileutil
