// Package manifest loads the dataset manifest and groups its chunk records by
// song.
//
// A manifest is a JSON array (or, for .yaml/.yml files, a YAML sequence) of
// objects with the keys dali_id, youtube_id, chunk_id, beginning, end and
// notes. Identifiers may be written as strings or numbers; they are always
// handled as strings so they can be used as path segments.
package manifest
