// Package logging assembles the slog loggers used by the downloader and the
// auditor.
//
// It owns the console and JSON handlers, optional rotating file output, and
// context helpers that tag lines with the song, chunk and run identifiers
// carried on a context.Context.
package logging
