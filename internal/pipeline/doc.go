// Package pipeline turns manifest song groups into chunk directories.
//
// For each group the Processor makes sure the full-song audio is on disk
// (downloading it when missing), decodes and resamples it once, writes
// audio.flac and notes.tsv for every chunk, and removes the full-song file
// afterwards. Failures never escape a group: each group ends in an Outcome and
// Run collects them into a Summary in manifest order.
//
// Groups are processed one at a time unless Options.Workers is raised; groups
// share no files, so running them in parallel keeps each group's all-or-abandon
// behaviour intact.
package pipeline
