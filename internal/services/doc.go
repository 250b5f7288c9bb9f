// Package services defines shared utilities consumed by the processing
// pipeline, the dataset auditor, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp song identifiers, chunk identifiers, and run
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that lets callers classify
//     failures (download vs processing vs manifest) with errors.Is.
//
// Integrations with external tools live in subpackages (ytdlp).
package services
